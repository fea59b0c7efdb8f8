package executor

import (
	"fmt"

	"github.com/ppiankov/cdf/internal/runner"
)

// TaskNotFoundError is returned when the task ID is not in the config.
type TaskNotFoundError struct {
	ID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.ID)
}

// NoTestsError is returned when the task exists but has no tests.
type NoTestsError struct {
	ID string
}

func (e *NoTestsError) Error() string {
	return fmt.Sprintf("task %q has no tests", e.ID)
}

// BuildError aborts a test run. Output is nil when the build command could
// not be started at all.
type BuildError struct {
	ID     string
	Output *runner.CommandOutput
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %v", e.ID, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
