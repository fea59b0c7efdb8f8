package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/reporter"
	"github.com/ppiankov/cdf/internal/task"
)

// TestsFailedError is returned when a task ran but not every test passed.
// Callers should map this to exit code 2.
type TestsFailedError struct {
	ID      string
	Summary executor.Summary
}

func (e *TestsFailedError) Error() string {
	return fmt.Sprintf("task %s: %d of %d tests failed", task.DisplayID(e.ID), e.Summary.Failed+e.Summary.Errored, e.Summary.Total)
}

func newTestCmd() *cobra.Command {
	var (
		format    string
		tuiMode   bool
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "test <task-id>",
		Short: "Build a task and run its tests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, path, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") && s.Format != "" {
				format = s.Format
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			record := !noHistory && s.HistoryEnabled()
			id := task.NormalizeID(args[0])

			if tuiMode {
				return runUI(s, path, id, record)
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			base, err := config.BaseDirFor(path)
			if err != nil {
				return err
			}

			started := time.Now()
			var summary executor.Summary
			if format == "json" {
				summary, err = runJSON(cmd.OutOrStdout(), cfg, base, id, nil)
			} else {
				summary, err = runText(cmd.OutOrStdout(), cfg, base, id, useColor(s), nil)
			}

			if record {
				res := reporter.RunResult{TaskID: id, Started: started, Duration: time.Since(started), Summary: summary, Err: err}
				if recErr := recordRun(context.Background(), s, path, res); recErr != nil {
					slog.Warn("record run", "error", recErr)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&tuiMode, "tui", false, "show progress in the interactive UI")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this run")
	return cmd
}

// runText runs the tests of id, printing one mark per test and the details
// of every failure. It returns *TestsFailedError when a test did not pass.
func runText(w io.Writer, cfg *task.Config, baseDir, id string, color bool, r executor.Runner) (executor.Summary, error) {
	var summary executor.Summary
	e := executor.New(cfg, baseDir, r)
	if err := e.Check(id); err != nil {
		return summary, err
	}

	rep := reporter.NewTextReporter(w, color)
	name, _ := cfg.TaskName(id)
	rep.PrintHeader(id, name)

	if e.ShouldBuild() {
		rep.PrintBuilding()
		if _, err := e.Build(id); err != nil {
			rep.PrintBuildFailure(err)
			return summary, err
		}
	}

	rep.PrintTesting()
	var problems []executor.Verdict
	for v := range e.Tests(id) {
		rep.PrintVerdict(v)
		summary.Add(v)
		if v.Status != executor.StatusOK {
			problems = append(problems, v)
		}
	}
	rep.PrintSummary(summary, problems)

	if !summary.OK() {
		return summary, &TestsFailedError{ID: id, Summary: summary}
	}
	return summary, nil
}

// runJSON runs the tests of id and writes a single JSON report.
func runJSON(w io.Writer, cfg *task.Config, baseDir, id string, r executor.Runner) (executor.Summary, error) {
	e := executor.New(cfg, baseDir, r)
	name, _ := cfg.TaskName(id)
	report := reporter.NewReport(id, name)

	verdicts, err := e.Run(id)
	if err != nil {
		var be *executor.BuildError
		if !errors.As(err, &be) {
			return report.Summary, err
		}
		report.SetBuildFailure(err)
	} else {
		for v := range verdicts {
			report.Add(v)
		}
	}
	report.Duration = time.Since(report.Timestamp)

	if werr := reporter.WriteJSON(w, report); werr != nil {
		return report.Summary, werr
	}
	if err != nil {
		return report.Summary, err
	}
	if !report.Summary.OK() {
		return report.Summary, &TestsFailedError{ID: id, Summary: report.Summary}
	}
	return report.Summary, nil
}
