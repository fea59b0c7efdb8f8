package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/cdf/internal/executor"
	"github.com/ppiankov/cdf/internal/runner"
)

// TestReport is the JSON form of one verdict.
type TestReport struct {
	Number   int                   `json:"number"`
	Status   string                `json:"status"`
	Expected string                `json:"expected,omitempty"`
	Actual   *runner.CommandOutput `json:"actual,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// BuildReport describes a failed build step.
type BuildReport struct {
	Error  string                `json:"error"`
	Output *runner.CommandOutput `json:"output,omitempty"`
}

// Report is the machine-readable result of one "cdf test" invocation.
type Report struct {
	Task      string           `json:"task"`
	Name      string           `json:"name"`
	Timestamp time.Time        `json:"timestamp"`
	Duration  time.Duration    `json:"duration"`
	Build     *BuildReport     `json:"build,omitempty"`
	Tests     []TestReport     `json:"tests"`
	Summary   executor.Summary `json:"summary"`
}

// NewReport starts an empty report for a task.
func NewReport(id, name string) *Report {
	return &Report{Task: id, Name: name, Timestamp: time.Now(), Tests: []TestReport{}}
}

// Add appends a verdict.
func (r *Report) Add(v executor.Verdict) {
	tr := TestReport{Number: v.Number(), Status: v.Status.String()}
	switch v.Status {
	case executor.StatusFailed:
		tr.Expected = v.Expected
		tr.Actual = v.Actual
	case executor.StatusError:
		tr.Error = v.Err.Error()
	}
	r.Tests = append(r.Tests, tr)
	r.Summary.Add(v)
}

// SetBuildFailure records why the build step aborted the run.
func (r *Report) SetBuildFailure(err error) {
	br := &BuildReport{Error: err.Error()}
	var be *executor.BuildError
	if errors.As(err, &be) {
		br.Output = be.Output
	}
	r.Build = br
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
