package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/task"
)

func newEditTestCmd() *cobra.Command {
	var (
		inputFile    string
		expectedFile string
	)

	cmd := &cobra.Command{
		Use:   "edit-test <task-id> <n>",
		Short: "Replace the input and/or expected output of test n (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputFile == "" && expectedFile == "" {
				return errors.New("nothing to change: give --input-file and/or --expected-file")
			}
			if inputFile == "-" && expectedFile == "-" {
				return errors.New("only one of --input-file and --expected-file can read stdin")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid test number %q", args[1])
			}

			_, path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			id := args[0]

			t, ok := cfg.Task(id)
			if !ok || n < 1 || n > len(t.Tests) {
				// UpdateTest ignores this case as well; say so instead of saving.
				slog.Warn("no such test, nothing changed", "task", task.DisplayID(id), "test", n)
				return nil
			}

			updated := t.Tests[n-1]
			if inputFile != "" {
				if updated.Input, err = readSource(inputFile, cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if expectedFile != "" {
				if updated.Expected, err = readSource(expectedFile, cmd.InOrStdin()); err != nil {
					return err
				}
			}

			cfg.UpdateTest(id, n-1, updated)
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated test %d of task %s\n", n, task.DisplayID(id))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "input-file", "", "read new input from file (\"-\" for stdin)")
	cmd.Flags().StringVar(&expectedFile, "expected-file", "", "read new expected output from file (\"-\" for stdin)")
	return cmd
}
