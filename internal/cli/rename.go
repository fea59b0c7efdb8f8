package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/task"
)

func newRenameCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <old-id> <new-id>",
		Short: "Change a task's ID and optionally its name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			oldID, newID := args[0], args[1]

			current, ok := cfg.TaskName(oldID)
			if !ok {
				return &executor.TaskNotFoundError{ID: task.NormalizeID(oldID)}
			}
			sameID := task.NormalizeID(oldID) == task.NormalizeID(newID)
			if !sameID && cfg.TaskExists(newID) {
				return fmt.Errorf("task %s already exists", task.DisplayID(newID))
			}
			if !cmd.Flags().Changed("name") {
				name = current
			}

			cfg.RenameTask(oldID, newID, name)
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", task.DisplayID(oldID), task.DisplayID(newID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new task name (default: keep)")
	return cmd
}
