package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the CLI settings path used when --settings is not given.
const DefaultSettingsFile = ".cdf.yml"

// Settings holds persistent CLI defaults loaded from a settings file.
// Flags given on the command line take precedence.
type Settings struct {
	Config        string        `yaml:"config"`         // task config path, default cdf.toml
	Format        string        `yaml:"format"`         // "text" or "json"
	Color         *bool         `yaml:"color"`          // nil = detect TTY
	History       *bool         `yaml:"history"`        // record runs; nil = true
	HistoryPath   string        `yaml:"history_path"`   // default .cdf/history.db next to the config
	WatchDebounce time.Duration `yaml:"watch_debounce"` // default 300ms
}

// LoadSettings reads a YAML settings file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Format != "" && s.Format != "text" && s.Format != "json" {
		return nil, fmt.Errorf("parse settings %s: unknown format %q", path, s.Format)
	}

	return &s, nil
}

// HistoryEnabled reports whether test runs should be recorded.
func (s *Settings) HistoryEnabled() bool {
	return s.History == nil || *s.History
}

// HistoryDB returns the history database path for the given config file.
func (s *Settings) HistoryDB(configPath string) string {
	if s.HistoryPath != "" {
		return s.HistoryPath
	}
	return filepath.Join(filepath.Dir(configPath), ".cdf", "history.db")
}

// Debounce returns the watch debounce interval.
func (s *Settings) Debounce() time.Duration {
	if s.WatchDebounce > 0 {
		return s.WatchDebounce
	}
	return 300 * time.Millisecond
}
