// Package executor turns "run the tests of task X" into an ordered sequence
// of verdicts: validate, optionally build, then run each test in turn.
package executor

import (
	"iter"
	"log/slog"

	"github.com/ppiankov/cdf/internal/config"
	"github.com/ppiankov/cdf/internal/runner"
	"github.com/ppiankov/cdf/internal/task"
)

// Runner executes a single command line. *runner.ProcessRunner implements it.
type Runner interface {
	Run(commandLine string, stdin *string, cwd string) (*runner.CommandOutput, error)
}

// Executor runs build and test commands for the tasks of one Config.
// It is not safe for concurrent use; one process runs at a time.
type Executor struct {
	cfg     *task.Config
	baseDir string
	runner  Runner
}

// New creates an Executor. baseDir anchors a relative cwd setting; "" means
// the process working directory. A nil r uses runner.New().
func New(cfg *task.Config, baseDir string, r Runner) *Executor {
	if r == nil {
		r = runner.New()
	}
	return &Executor{cfg: cfg, baseDir: baseDir, runner: r}
}

// Check verifies that the task exists and has at least one test.
func (e *Executor) Check(id string) error {
	t, ok := e.cfg.Task(id)
	if !ok {
		return &TaskNotFoundError{ID: task.NormalizeID(id)}
	}
	if len(t.Tests) == 0 {
		return &NoTestsError{ID: task.NormalizeID(id)}
	}
	return nil
}

// ShouldBuild reports whether a build command is configured.
func (e *Executor) ShouldBuild() bool {
	_, ok := e.cfg.Settings.Build.BuildCommand()
	return ok
}

func (e *Executor) workDir() (string, error) {
	return config.ResolveDir(e.cfg.Settings.Build.WorkDir(), e.baseDir)
}

// Build runs the build command for id. It returns nil, nil when no build
// command is configured, and a *BuildError when the command cannot start
// or exits unsuccessfully.
func (e *Executor) Build(id string) (*runner.CommandOutput, error) {
	tmpl, ok := e.cfg.Settings.Build.BuildCommand()
	if !ok {
		return nil, nil
	}
	id = task.NormalizeID(id)

	dir, err := e.workDir()
	if err != nil {
		return nil, &BuildError{ID: id, Err: err}
	}

	cmdLine := task.Substitute(tmpl, id)
	slog.Debug("building task", "task", id, "cmd", cmdLine, "dir", dir)

	out, err := e.runner.Run(cmdLine, nil, dir)
	if err != nil {
		return nil, &BuildError{ID: id, Err: err}
	}
	if exitErr := out.Err(); exitErr != nil {
		return out, &BuildError{ID: id, Output: out, Err: exitErr}
	}
	return out, nil
}

// Tests returns the verdicts for id, produced lazily: each step of the
// range runs one test. The sequence stops after the first StatusError and
// can be consumed only once. Tests does not validate or build; see Run.
func (e *Executor) Tests(id string) iter.Seq[Verdict] {
	id = task.NormalizeID(id)
	consumed := false

	return func(yield func(Verdict) bool) {
		if consumed {
			return
		}
		consumed = true

		t, ok := e.cfg.Task(id)
		if !ok {
			return
		}
		tests := make([]task.Test, len(t.Tests))
		copy(tests, t.Tests)
		cmdLine := task.Substitute(e.cfg.Settings.Build.Run, id)

		for i, tc := range tests {
			v := e.runTest(i, tc, cmdLine)
			if !yield(v) || v.Status == StatusError {
				return
			}
		}
	}
}

func (e *Executor) runTest(index int, tc task.Test, cmdLine string) Verdict {
	dir, err := e.workDir()
	if err != nil {
		return Verdict{Index: index, Status: StatusError, Err: err}
	}

	input := tc.Input
	out, err := e.runner.Run(cmdLine, &input, dir)
	if err != nil {
		slog.Debug("test aborted", "test", index+1, "error", err)
		return Verdict{Index: index, Status: StatusError, Err: err}
	}
	if Compare(out.Stdout, tc.Expected) {
		return Verdict{Index: index, Status: StatusOK}
	}
	return Verdict{Index: index, Status: StatusFailed, Expected: tc.Expected, Actual: out}
}

// Run validates id, runs the build step if configured, and returns the
// lazy verdict sequence. On a build failure no test command is run.
func (e *Executor) Run(id string) (iter.Seq[Verdict], error) {
	if err := e.Check(id); err != nil {
		return nil, err
	}
	if _, err := e.Build(id); err != nil {
		return nil, err
	}
	return e.Tests(id), nil
}
