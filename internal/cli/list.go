package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/reporter"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks with their test counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reporter.NewTextReporter(cmd.OutOrStdout(), false).PrintTasks(cfg.List())
			return nil
		},
	}
}
