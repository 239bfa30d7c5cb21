package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/pkg/logger"
)

func newLevelsCmd(root *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Validate the fixture and print it in normalized form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			levels, err := repository.LoadFixtureFile(ctx, root.fixture)
			if err != nil {
				return err
			}
			if err := repository.Validate(levels); err != nil {
				return err
			}
			if err := writeOutput(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return repository.WriteFixture(ctx, w, levels)
			}); err != nil {
				return err
			}
			root.log.Info(ctx, "fixture validated",
				logger.String("fixture", root.fixture),
				logger.Int("levels", len(levels)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", stdoutPath, `output file, or "-" for stdout`)
	return cmd
}
