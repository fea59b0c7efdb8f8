package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/history"
	"github.com/ppiankov/cdf/internal/reporter"
	"github.com/ppiankov/cdf/internal/task"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [task-id]",
		Short: "Show recorded test runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, path, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			dbPath := s.HistoryDB(path)
			out := cmd.OutOrStdout()
			if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			ctx := context.Background()
			store, err := history.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var id string
			if len(args) == 1 {
				id = task.NormalizeID(args[0])
			}
			runs, err := store.List(ctx, id, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "STARTED\tTASK\tRESULT\tPASSED\tDURATION\n")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), task.DisplayID(r.TaskID),
					runResult(&r), r.Summary.Passed, r.Summary.Total, r.Duration.Round(time.Millisecond))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max runs to show (0 = all)")
	return cmd
}

func runResult(r *history.Run) string {
	switch {
	case r.BuildFailed:
		return "build failed"
	case r.Error != "":
		return "error"
	case r.OK():
		return "ok"
	default:
		return "failed"
	}
}

// recordRun stores res in the history database. Runs rejected before the
// build step (unknown task, no tests) are not recorded.
func recordRun(ctx context.Context, s *config.Settings, configPath string, res reporter.RunResult) error {
	var notFound *executor.TaskNotFoundError
	var noTests *executor.NoTestsError
	if errors.As(res.Err, &notFound) || errors.As(res.Err, &noTests) {
		return nil
	}

	store, err := history.Open(ctx, s.HistoryDB(configPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run := &history.Run{
		TaskID:    res.TaskID,
		StartedAt: res.Started,
		Duration:  res.Duration,
		Summary:   res.Summary,
	}
	var buildErr *executor.BuildError
	var failed *TestsFailedError
	switch {
	case errors.As(res.Err, &buildErr):
		run.BuildFailed = true
		run.Error = res.Err.Error()
	case res.Err != nil && !errors.As(res.Err, &failed):
		run.Error = res.Err.Error()
	}
	return store.Record(ctx, run)
}
