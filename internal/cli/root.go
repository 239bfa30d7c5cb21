// Package cli implements the membership-matrix command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redbuttegarden/memberships/internal/config"
	"github.com/redbuttegarden/memberships/pkg/logger"
)

type rootOptions struct {
	fixture   string
	logFormat string
	logLevel  string

	cfg *config.Config
	log logger.Logger
}

// NewRootCmd builds the command tree. The root command builds the matrix.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "membership-matrix",
		Short: "Tabulate membership recommendations for every selector input",
		Long: `membership-matrix runs the recommendation engine for every combination of
cardholders, guests and presale tickets the selector form accepts and writes
the results as an XLSX workbook or JSON document for review.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.fixture, "fixture", "", "membership level fixture (default: fixture_path from config)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json (default: log_format from config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (default: log_level from config)")

	build := newBuildCmd(opts)
	root.Flags().AddFlagSet(build.Flags())
	root.RunE = build.RunE

	root.AddCommand(build)
	root.AddCommand(newLevelsCmd(opts))
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// init loads config and sets up logging on stderr, so stdout stays free for data.
func (o *rootOptions) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if o.fixture == "" {
		o.fixture = cfg.FixturePath
	}
	if o.logFormat == "" {
		o.logFormat = cfg.LogFormat
	}
	if o.logLevel == "" {
		o.logLevel = cfg.LogLevel
	}

	if err := logger.InitWithOptions(o.logFormat, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if err := logger.SetLevelString(o.logLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	o.cfg = cfg
	o.log = logger.Named("matrix")
	return nil
}
