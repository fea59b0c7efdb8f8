package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/task"
)

// Version, Commit and BuildDate are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose      bool
	configFile   string
	settingsFile string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cdf",
		Short: "Run stdin/stdout tests against competitive programming solutions",
		Long: `cdf keeps named tasks with input/expected-output tests in a TOML file,
builds a solution with a configurable command and checks its output test by test.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "path to task config file")
	root.PersistentFlags().StringVar(&settingsFile, "settings", config.DefaultSettingsFile, "path to CLI settings file")

	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRenameCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newEditTestCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newFmtCmd())
	root.AddCommand(newTestCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newUICmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadSettings reads the CLI settings file and returns it along with the
// task config path: --config wins over the settings file.
func loadSettings(cmd *cobra.Command) (*config.Settings, string, error) {
	s, err := config.LoadSettings(settingsFile)
	if err != nil {
		return nil, "", fmt.Errorf("load settings: %w", err)
	}
	path := configFile
	if !cmd.Flags().Changed("config") && s.Config != "" {
		path = s.Config
	}
	return s, path, nil
}

// loadConfig reads settings and the task config in one step.
func loadConfig(cmd *cobra.Command) (*config.Settings, string, *task.Config, error) {
	s, path, err := loadSettings(cmd)
	if err != nil {
		return nil, "", nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", nil, err
	}
	return s, path, cfg, nil
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// useColor resolves the color setting; unset means color on a terminal.
func useColor(s *config.Settings) bool {
	if s.Color != nil {
		return *s.Color
	}
	return isTerminal()
}
