package runner

import (
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// CommandOutput is the captured result of one process invocation.
// Success reflects the exit status only.
type CommandOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"` // -1 when killed by a signal
}

// Err converts an unsuccessful exit into *ExitError or ErrCommandTerminated.
func (o *CommandOutput) Err() error {
	switch {
	case o.Success:
		return nil
	case o.ExitCode < 0:
		return ErrCommandTerminated
	default:
		return &ExitError{Code: o.ExitCode}
	}
}

// ProcessRunner spawns one external command at a time and blocks until it
// exits. There is no timeout: a child that never exits blocks the caller.
type ProcessRunner struct{}

// New creates a ProcessRunner.
func New() *ProcessRunner {
	return &ProcessRunner{}
}

// Run splits commandLine on whitespace, starts it in cwd and returns its
// output. When stdin is non-nil it is written in full and closed before the
// output streams are read; when nil the child gets no standard input.
//
// Because stdin is written before stdout is read, a child that writes more
// than one pipe buffer (typically 64 KiB on Linux) of output before it has
// consumed all of its input blocks forever, and so does Run.
func (r *ProcessRunner) Run(commandLine string, stdin *string, cwd string) (*CommandOutput, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	slog.Debug("spawning command", "cmd", commandLine, "dir", cwd, "stdin", stdin != nil)

	cmd := exec.Command(fields[0], fields[1:]...)
	cmd.Dir = cwd

	var stdinPipe io.WriteCloser
	var err error
	if stdin != nil {
		if stdinPipe, err = cmd.StdinPipe(); err != nil {
			return nil, &Error{Kind: ErrCannotCreateCommand, Command: commandLine, Err: err}
		}
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Kind: ErrCannotCreateCommand, Command: commandLine, Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &Error{Kind: ErrCannotCreateCommand, Command: commandLine, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: ErrCannotCreateCommand, Command: commandLine, Err: err}
	}

	if stdinPipe != nil {
		_, werr := io.WriteString(stdinPipe, *stdin)
		cerr := stdinPipe.Close()
		if werr == nil {
			werr = cerr
		}
		if werr != nil {
			// reap the child; its output is discarded
			_, _ = io.Copy(io.Discard, stdoutPipe)
			_, _ = io.Copy(io.Discard, stderrPipe)
			_ = cmd.Wait()
			return nil, &Error{Kind: ErrCannotWriteToStdin, Command: commandLine, Err: werr}
		}
	}

	// stderr is drained alongside stdout so neither pipe can fill up and
	// stall the child while the other is being read.
	type readResult struct {
		data []byte
		err  error
	}
	stderrCh := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(stderrPipe)
		stderrCh <- readResult{data, err}
	}()

	stdout, outErr := io.ReadAll(stdoutPipe)
	errRes := <-stderrCh

	waitErr := cmd.Wait()

	if outErr != nil {
		return nil, &Error{Kind: ErrCannotReadFromStdout, Command: commandLine, Err: outErr}
	}
	if errRes.err != nil {
		return nil, &Error{Kind: ErrCannotReadFromStderr, Command: commandLine, Err: errRes.err}
	}

	out := &CommandOutput{
		Stdout:   string(stdout),
		Stderr:   string(errRes.data),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	out.Success = out.ExitCode == 0

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		slog.Debug("wait failed", "cmd", commandLine, "error", waitErr)
	}

	return out, nil
}
