package reporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/task"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// TextReporter writes human-readable test progress to a writer:
// one mark per test while running, failure details at the end.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes "Task ABC - name".
func (r *TextReporter) PrintHeader(id, name string) {
	if name == "" {
		name = "unnamed task"
	}
	fmt.Fprintf(r.w, "%sTask %s - %s%s\n", r.c(colorCyan), task.DisplayID(id), name, r.c(colorReset))
}

// PrintBuilding announces the build step.
func (r *TextReporter) PrintBuilding() {
	fmt.Fprintln(r.w, "Building")
}

// PrintBuildFailure writes the reason a build aborted the run along with
// the captured output of the build command.
func (r *TextReporter) PrintBuildFailure(err error) {
	fmt.Fprintf(r.w, "%sBuild failed: %v%s\n", r.c(colorRed), err, r.c(colorReset))
	var be *executor.BuildError
	if !errors.As(err, &be) || be.Output == nil {
		return
	}
	if be.Output.Stdout != "" {
		fmt.Fprintf(r.w, "Stdout:\n%s\n", strings.TrimRight(be.Output.Stdout, "\n"))
	}
	if be.Output.Stderr != "" {
		fmt.Fprintf(r.w, "Stderr:\n%s\n", strings.TrimRight(be.Output.Stderr, "\n"))
	}
}

// PrintTesting announces the test loop.
func (r *TextReporter) PrintTesting() {
	fmt.Fprintln(r.w, "Testing")
}

// PrintVerdict writes the progress mark for one test: "." pass, "x" mismatch,
// "E" process error.
func (r *TextReporter) PrintVerdict(v executor.Verdict) {
	switch v.Status {
	case executor.StatusOK:
		fmt.Fprintf(r.w, "%s.%s", r.c(colorGreen), r.c(colorReset))
	case executor.StatusFailed:
		fmt.Fprintf(r.w, "%sx%s", r.c(colorRed), r.c(colorReset))
	default:
		fmt.Fprintf(r.w, "%sE%s", r.c(colorYellow), r.c(colorReset))
	}
}

// PrintSummary ends the progress line and lists every failed or errored test.
func (r *TextReporter) PrintSummary(s executor.Summary, problems []executor.Verdict) {
	if s.OK() {
		fmt.Fprintf(r.w, " %sok%s\n", r.c(colorGreen), r.c(colorReset))
		return
	}
	fmt.Fprintf(r.w, " %sfailed%s\n\n", r.c(colorRed), r.c(colorReset))
	for _, v := range problems {
		r.printProblem(v)
	}
	fmt.Fprintf(r.w, "%s%d passed, %d failed, %d errors%s\n", r.c(colorDim), s.Passed, s.Failed, s.Errored, r.c(colorReset))
}

func (r *TextReporter) printProblem(v executor.Verdict) {
	fmt.Fprintf(r.w, "%s-- test %d --%s\n", r.c(colorCyan), v.Number(), r.c(colorReset))
	if v.Status == executor.StatusError {
		fmt.Fprintf(r.w, "Error:\n%v\n\n", v.Err)
		return
	}
	fmt.Fprintf(r.w, "Expected output:\n%s\n\nActual output:\n%s\n", v.Expected, v.Actual.Stdout)
	if v.Actual.Stderr != "" {
		fmt.Fprintf(r.w, "Stderr:\n%s\n", v.Actual.Stderr)
	}
	fmt.Fprintln(r.w)
}

// PrintTasks writes one line per task: "ABC - name, 3 tests".
func (r *TextReporter) PrintTasks(infos []task.Info) {
	if len(infos) == 0 {
		fmt.Fprintf(r.w, "%sno tasks%s\n", r.c(colorDim), r.c(colorReset))
		return
	}
	for _, t := range infos {
		fmt.Fprintf(r.w, "%s - %s, %d tests\n", task.DisplayID(t.ID), t.Name, len(t.Tests))
	}
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}
