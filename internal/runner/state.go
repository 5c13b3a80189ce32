package runner

import (
	"errors"
	"time"

	"assetgen/internal/budget"
	"assetgen/internal/money"
	"assetgen/internal/producer"
)

// ErrPersist marks a job whose output could not be saved: the artifact write
// or the ledger commit failed.
var ErrPersist = errors.New("persist failed")

// State is the lifecycle position of one job within a run.
type State int

const (
	StatePending State = iota
	StateSkippedComplete
	StateSkippedBudget
	StateGenerating
	StateCommitted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSkippedComplete:
		return "skipped_complete"
	case StateSkippedBudget:
		return "skipped_budget"
	case StateGenerating:
		return "generating"
	case StateCommitted:
		return "committed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final outcome.
func (s State) Terminal() bool {
	return s == StateSkippedComplete || s == StateSkippedBudget || s == StateCommitted || s == StateErrored
}

// JobResult is the outcome of one job.
type JobResult struct {
	Index    int
	ID       string
	Kind     producer.Kind
	Class    string
	Cost     money.Amount
	State    State
	Charged  money.Amount
	Bytes    int
	Path     string
	Called   bool
	Duration time.Duration
	Err      error
}

// Cause is a short, single-line rendering of Err.
func (r JobResult) Cause() string {
	if r.Err == nil {
		return ""
	}
	return producer.Snippet(r.Err.Error(), 160)
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	RunID           string
	Catalog         string
	Total           int
	Generated       int
	SkippedComplete int
	SkippedBudget   int
	Errored         int
	NotAttempted    int
	Interrupted     bool
	StartSpent      money.Amount
	TotalSpent      money.Amount
	Spent           money.Amount
	BudgetCap       money.Amount
	Started         time.Time
	Finished        time.Time
	Results         []JobResult
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.Finished.Before(s.Started) {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Remaining is the unspent budget.
func (s Summary) Remaining() money.Amount {
	return budget.Remaining(s.TotalSpent, s.BudgetCap)
}

// Failures returns the errored results in run order.
func (s Summary) Failures() []JobResult {
	var out []JobResult
	for _, r := range s.Results {
		if r.State == StateErrored {
			out = append(out, r)
		}
	}
	return out
}

func (s *Summary) add(r JobResult) {
	s.Results = append(s.Results, r)
	switch r.State {
	case StateCommitted:
		s.Generated++
		s.Spent += r.Charged
	case StateSkippedComplete:
		s.SkippedComplete++
	case StateSkippedBudget:
		s.SkippedBudget++
	case StateErrored:
		s.Errored++
	}
}
