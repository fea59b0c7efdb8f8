package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/task"
)

func newRemoveCmd() *cobra.Command {
	var testNumber int

	cmd := &cobra.Command{
		Use:     "rm <task-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a task, or a single test with --test",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			if !cfg.TaskExists(id) {
				return &executor.TaskNotFoundError{ID: task.NormalizeID(id)}
			}

			var msg string
			if cmd.Flags().Changed("test") {
				if !cfg.RemoveTest(id, testNumber-1) {
					return fmt.Errorf("task %s has no test %d", task.DisplayID(id), testNumber)
				}
				msg = fmt.Sprintf("Removed test %d from task %s", testNumber, task.DisplayID(id))
			} else {
				cfg.RemoveTask(id)
				msg = fmt.Sprintf("Removed task %s", task.DisplayID(id))
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().IntVar(&testNumber, "test", 0, "remove only this test (1-based)")
	return cmd
}
