package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/task"
)

func newFmtCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Rewrite the task config in canonical form",
		Long: `Parse the task config and write it back in canonical form: lower-case
task IDs, tables in sorted order. With --check, only report whether the file
would change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			data, err := config.ReadFile(path)
			if err != nil {
				return err
			}
			cfg, err := task.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			formatted, err := task.Serialize(cfg)
			if err != nil {
				return err
			}

			if bytes.Equal(data, formatted) {
				return nil
			}
			if check {
				return fmt.Errorf("%s is not formatted", path)
			}
			if err := config.WriteFile(path, formatted); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Formatted %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "fail if the file is not formatted, without writing")
	return cmd
}
