package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/reporter"
)

func newUICmd() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse tasks and run their tests interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, path, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return runUI(s, path, "", !noHistory && s.HistoryEnabled())
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record runs")
	return cmd
}

// runUI starts the interactive app, optionally running autoRun right away.
func runUI(s *config.Settings, configPath, autoRun string, record bool) error {
	opts := reporter.AppOptions{ConfigPath: configPath, AutoRun: autoRun}
	if record {
		opts.OnRunComplete = func(res reporter.RunResult) error {
			return recordRun(context.Background(), s, configPath, res)
		}
	}
	p := tea.NewProgram(reporter.NewAppModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
