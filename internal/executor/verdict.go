package executor

import (
	"strings"
	"unicode"

	"github.com/ppiankov/cdf/internal/runner"
)

// Status is the outcome class of one test.
type Status int

const (
	StatusOK     Status = iota
	StatusFailed        // output mismatch
	StatusError         // the run command could not be executed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFailed:
		return "FAILED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the result of evaluating one test. Expected and Actual are
// set for StatusFailed; Err is set for StatusError.
type Verdict struct {
	Index    int
	Status   Status
	Expected string
	Actual   *runner.CommandOutput
	Err      error
}

// Number is the 1-based test number shown to users.
func (v Verdict) Number() int { return v.Index + 1 }

// Compare reports whether actual stdout matches the expected output,
// ignoring trailing whitespace on both.
func Compare(actual, expected string) bool {
	return strings.TrimRightFunc(actual, unicode.IsSpace) == strings.TrimRightFunc(expected, unicode.IsSpace)
}

// Summary counts verdicts by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// Add records one verdict.
func (s *Summary) Add(v Verdict) {
	s.Total++
	switch v.Status {
	case StatusOK:
		s.Passed++
	case StatusFailed:
		s.Failed++
	case StatusError:
		s.Errored++
	}
}

// OK reports whether every recorded verdict passed.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errored == 0
}
