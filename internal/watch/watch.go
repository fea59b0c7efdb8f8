// Package watch re-runs an action when source files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a watch loop.
type Options struct {
	Root       string        // absolute directory watched recursively; hidden dirs are skipped
	Debounce   time.Duration // quiet period after the last event before triggering
	Extensions []string      // e.g. ".cpp"; empty matches every file
	Ignore     []string      // absolute paths whose events are dropped
}

// Relevant reports whether a change to path should trigger a run.
func (o Options) Relevant(path string) bool {
	if slices.Contains(o.Ignore, path) {
		return false
	}
	rel, err := filepath.Rel(o.Root, path)
	if err == nil {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return false
			}
		}
	}
	if len(o.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range o.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Run watches opts.Root and calls trigger after every debounced burst of
// relevant changes. trigger runs on the calling goroutine, so runs never
// overlap; events produced while it runs (build outputs, for instance) are
// discarded, as are events within one debounce period after it returns.
// Run blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options, trigger func(context.Context)) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addTree(watcher, opts.Root); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching for changes", "dir", opts.Root, "debounce", opts.Debounce)

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()
	var quietUntil time.Time

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && !hidden(opts.Root, event.Name) {
				if err := addTree(watcher, event.Name); err != nil {
					slog.Warn("watch new dir", "dir", event.Name, "error", err)
				}
				continue
			}
			if !opts.Relevant(event.Name) || time.Now().Before(quietUntil) {
				continue
			}
			slog.Debug("change detected", "file", event.Name, "op", event.Op.String())
			timer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)

		case <-timer.C:
			trigger(ctx)
			drain(watcher.Events)
			quietUntil = time.Now().Add(opts.Debounce)
		}
	}
}

func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func hidden(root, path string) bool {
	return !(Options{Root: root}).Relevant(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
