package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/reporter"
	"github.com/ppiankov/cdf/internal/task"
	"github.com/ppiankov/cdf/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		extensions []string
		debounce   time.Duration
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Re-run a task's tests whenever source files change",
		Long: `Run the tests of a task, then watch the build working directory and run
them again after every change. The task config is re-read before each run.
Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			base, err := config.BaseDirFor(path)
			if err != nil {
				return err
			}
			root, err := config.ResolveDir(cfg.Settings.Build.WorkDir(), base)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = s.Debounce()
			}
			ignore, err := watchIgnores(path, s.HistoryDB(path))
			if err != nil {
				return err
			}

			id := task.NormalizeID(args[0])
			record := !noHistory && s.HistoryEnabled()
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			color := useColor(s)

			runOnce := func(ctx context.Context) {
				fmt.Fprintf(out, "\n[%s]\n", time.Now().Format("15:04:05"))
				cfg, err := config.Load(path)
				if err != nil {
					fmt.Fprintln(errOut, err)
					return
				}
				started := time.Now()
				summary, err := runText(out, cfg, base, id, color, nil)
				var failed *TestsFailedError
				if err != nil && !errors.As(err, &failed) {
					fmt.Fprintln(errOut, err)
				}
				if record {
					res := reporter.RunResult{TaskID: id, Started: started, Duration: time.Since(started), Summary: summary, Err: err}
					if recErr := recordRun(ctx, s, path, res); recErr != nil {
						fmt.Fprintln(errOut, recErr)
					}
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			runOnce(ctx)
			return watch.Run(ctx, watch.Options{
				Root:       root,
				Debounce:   debounce,
				Extensions: extensions,
				Ignore:     ignore,
			}, runOnce)
		},
	}

	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "only react to files with these extensions, e.g. .cpp,.h")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before re-running")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record runs")
	return cmd
}

// watchIgnores lists files cdf itself writes, so saving the config or
// recording history never triggers a run.
func watchIgnores(configPath, historyPath string) ([]string, error) {
	cfgAbs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	histAbs, err := filepath.Abs(historyPath)
	if err != nil {
		return nil, fmt.Errorf("resolve history path: %w", err)
	}
	return []string{
		cfgAbs + ".tmp",
		histAbs,
		histAbs + "-wal",
		histAbs + "-shm",
		histAbs + "-journal",
	}, nil
}
