package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/cdf/internal/task"
)

// DefaultConfigFile is the task config path used when --config is not given.
const DefaultConfigFile = "cdf.toml"

// ErrConfigExists is returned by Init when the target file already exists.
var ErrConfigExists = errors.New("config file already exists")

// ReadFile returns the raw bytes of a config file.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return data, nil
}

// WriteFile replaces path with data atomically (tmp → rename).
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Load reads and parses a task config file.
func Load(path string) (*task.Config, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := task.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save serializes cfg and writes it to path.
func Save(path string, cfg *task.Config) error {
	data, err := task.Serialize(cfg)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// Init writes the default config to path. Without force an existing file
// is left alone and ErrConfigExists is returned.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		}
	}
	return Save(path, task.Default())
}
