// Package run holds the state of one test run: the fixed action sequence,
// the execution cursor, accumulated results and the terminal status.
package run

import (
	"github.com/google/uuid"
	"github.com/v0xg/vistest/internal/action"
)

// Status of a test run. Passed and failed are terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Run is the state of a single test run. The action sequence is fixed at
// creation; only the engine mutates cursor, results and status.
type Run struct {
	ID          string
	Name        string
	Description string
	Actions     []action.Action
	Results     []action.Result
	Status      Status
	Error       string

	cursor int
}

// New creates a pending run over a finalized action sequence. The cursor
// starts before the first action.
func New(name, description string, actions []action.Action) *Run {
	return &Run{
		ID:          "test_" + uuid.NewString(),
		Name:        name,
		Description: description,
		Actions:     actions,
		Status:      StatusPending,
		cursor:      -1,
	}
}

// Advance moves the cursor to the next action. Advancing past the end is
// allowed; CurrentAction then reports no current action.
func (r *Run) Advance() {
	r.cursor++
}

// Cursor returns the index of the action currently being processed.
func (r *Run) Cursor() int { return r.cursor }

// CurrentAction returns the action at the cursor, if the cursor is in range.
func (r *Run) CurrentAction() (action.Action, bool) {
	if r.cursor >= 0 && r.cursor < len(r.Actions) {
		return r.Actions[r.cursor], true
	}
	return action.Action{}, false
}

// IsComplete reports whether every action has a recorded result.
func (r *Run) IsComplete() bool {
	return len(r.Results) == len(r.Actions)
}

// HasFailed reports whether any recorded result is a failure.
func (r *Run) HasFailed() bool {
	for _, res := range r.Results {
		if res.IsFailure() {
			return true
		}
	}
	return false
}

// Terminal reports whether the run has reached a final status and accepts
// no further mutation.
func (r *Run) Terminal() bool {
	return r.Status == StatusPassed || r.Status == StatusFailed
}

// RecordResult appends the result for the current action. A failing result
// marks the run failed and captures the first failure's detail; the engine
// records nothing after that.
func (r *Run) RecordResult(res action.Result) {
	if r.Terminal() {
		return
	}
	r.Results = append(r.Results, res)
	if res.IsFailure() {
		r.Status = StatusFailed
		if res.Error != "" {
			r.Error = res.Error
		} else {
			r.Error = res.Message
		}
	}
}
