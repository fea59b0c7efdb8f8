package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/task"
)

func newAddCmd() *cobra.Command {
	var (
		name         string
		inputFile    string
		expectedFile string
	)

	cmd := &cobra.Command{
		Use:   "add [task-id]",
		Short: "Add a test to a task, creating the task if needed",
		Long: `Add one input/expected-output test to a task.

Values not given as arguments or flags are asked for interactively. Input
and expected output are read until end of input. Use "-" as a file name to
read that value from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputFile == "-" && expectedFile == "-" {
				return errors.New("only one of --input-file and --expected-file can read stdin")
			}
			_, path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

			var id string
			if len(args) == 1 {
				id = args[0]
			} else if id, err = p.line("Enter task ID: "); err != nil {
				return err
			}
			if id == "" {
				return errors.New("task ID is required")
			}

			if !cmd.Flags().Changed("name") {
				if existing, ok := cfg.TaskName(id); ok {
					name = existing
				} else if name, err = p.line("Enter task name: "); err != nil {
					return err
				}
			}

			input, err := valueFrom(cmd, p, inputFile, "Enter task input")
			if err != nil {
				return err
			}
			expected, err := valueFrom(cmd, p, expectedFile, "Enter expected output")
			if err != nil {
				return err
			}

			cfg.AddTask(id, name)
			cfg.AddTest(id, input, expected)
			if err := config.Save(path, cfg); err != nil {
				return err
			}

			t, _ := cfg.Task(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Added test %d to task %s. Saved to %s\n",
				len(t.Tests), task.DisplayID(id), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "task name (kept from the config if the task exists)")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "read test input from file")
	cmd.Flags().StringVar(&expectedFile, "expected-file", "", "read expected output from file")
	return cmd
}

func valueFrom(cmd *cobra.Command, p *prompter, file, prompt string) (string, error) {
	if file != "" {
		return readSource(file, cmd.InOrStdin())
	}
	return p.untilEOF(prompt)
}
