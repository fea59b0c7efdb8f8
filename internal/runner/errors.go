package runner

import (
	"errors"
	"fmt"
)

// Error kinds. An *Error matches its kind with errors.Is.
var (
	ErrEmptyCommand         = errors.New("empty command")
	ErrCannotCreateCommand  = errors.New("cannot create command")
	ErrCannotWriteToStdin   = errors.New("cannot write to stdin")
	ErrCannotReadFromStdout = errors.New("cannot read from stdout")
	ErrCannotReadFromStderr = errors.New("cannot read from stderr")
	ErrCannotGetCwd         = errors.New("cannot get current directory")
	ErrCommandTerminated    = errors.New("command terminated")
)

// Error is a process-level failure carrying the OS error and the command
// line that was being run.
type Error struct {
	Kind    error
	Command string
	Err     error
}

func (e *Error) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v %q: %v", e.Kind, e.Command, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying OS error.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ExitError reports a command that ran but exited with a non-zero code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}
