package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/internal/domain/selector"
	"github.com/redbuttegarden/memberships/internal/matrix"
	"github.com/redbuttegarden/memberships/pkg/logger"
)

const stdoutPath = "-"

type buildOptions struct {
	*rootOptions
	out     string
	format  string
	workers int
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the recommendation matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "membership_matrix.xlsx", `output file, or "-" for stdout`)
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: xlsx or json (default: from --out extension)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "rows computed concurrently (default: matrix_workers from config)")
	return cmd
}

func (o *buildOptions) resolveFormat() string {
	if o.format != "" {
		return strings.ToLower(o.format)
	}
	if strings.EqualFold(filepath.Ext(o.out), ".json") || o.out == stdoutPath {
		return matrix.FormatJSON
	}
	return matrix.FormatXLSX
}

func (o *buildOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	runID := uuid.NewString()
	format := o.resolveFormat()
	if format != matrix.FormatXLSX && format != matrix.FormatJSON {
		return fmt.Errorf("%w: %q", matrix.ErrUnknownFormat, format)
	}

	levels, err := repository.LoadFixtureFile(ctx, o.fixture)
	if err != nil {
		return err
	}
	if err := repository.Validate(levels); err != nil {
		return err
	}
	engineLevels := repository.EngineLevels(levels)

	workers := o.workers
	if workers <= 0 {
		workers = o.cfg.MatrixWorkers
	}
	b := matrix.New(
		matrix.WithWorkers(workers),
		matrix.WithLogger(o.log),
		matrix.WithValidator(selector.New(
			selector.WithLimits(o.cfg.MaxCardholders, o.cfg.MaxGuests),
			selector.WithPresaleTemplate(o.cfg.PresaleMessageTemplate),
		)),
	)
	rows, err := b.Build(ctx, engineLevels)
	if err != nil {
		return err
	}

	rep := matrix.Report{
		RunID:       runID,
		GeneratedAt: time.Now(),
		FixturePath: o.fixture,
		Levels:      engineLevels,
		Rows:        rows,
	}
	if err := writeOutput(o.out, cmd.OutOrStdout(), func(w io.Writer) error {
		return matrix.Write(w, format, rep)
	}); err != nil {
		return err
	}

	o.log.Info(ctx, "matrix written",
		logger.String("runID", runID),
		logger.String("out", o.out),
		logger.String("format", format),
		logger.Int("rows", len(rows)),
		logger.Int("levels", len(levels)),
	)
	return nil
}

// writeOutput calls write with stdout for "-" and a created file otherwise.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == stdoutPath {
		return write(stdout)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
