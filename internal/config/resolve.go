package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ppiankov/cdf/internal/runner"
)

// ResolveDir returns the directory commands run in. An empty string means
// "not given" for both arguments.
//
//	absolute configured            → configured
//	relative configured, base set  → base/configured
//	relative configured, no base   → $PWD/configured
//	no configured                  → base, else $PWD
func ResolveDir(configured, base string) (string, error) {
	if configured != "" && filepath.IsAbs(configured) {
		return configured, nil
	}

	root := base
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", &runner.Error{Kind: runner.ErrCannotGetCwd, Err: err}
		}
		root = wd
	}

	dir := root
	if configured != "" {
		dir = filepath.Join(root, configured)
	}
	slog.Debug("resolved working directory", "configured", configured, "base", base, "dir", dir)
	return dir, nil
}

// BaseDirFor returns the absolute directory containing configPath.
func BaseDirFor(configPath string) (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return filepath.Dir(abs), nil
}
