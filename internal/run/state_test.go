package run

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/vistest/internal/action"
)

func threeStepRun() *Run {
	return New("Login Test", "Open the app and log in", []action.Action{
		action.Visit("example.com"),
		action.Click("Login button"),
		action.AssertText("welcome banner", "Welcome"),
	})
}

func TestNewRun(t *testing.T) {
	r := threeStepRun()

	assert.True(t, strings.HasPrefix(r.ID, "test_"))
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, -1, r.Cursor())
	assert.False(t, r.Terminal())

	_, ok := r.CurrentAction()
	assert.False(t, ok, "no current action before the first advance")
}

func TestAdvanceAndCurrentAction(t *testing.T) {
	r := threeStepRun()

	r.Advance()
	act, ok := r.CurrentAction()
	require.True(t, ok)
	assert.Equal(t, action.KindVisit, act.Kind)
	assert.Equal(t, 0, r.Cursor())

	r.Advance()
	r.Advance()
	act, ok = r.CurrentAction()
	require.True(t, ok)
	assert.Equal(t, action.KindAssertText, act.Kind)

	r.Advance()
	_, ok = r.CurrentAction()
	assert.False(t, ok, "cursor past the end has no current action")
}

func TestRecordResultFailureIsTerminal(t *testing.T) {
	r := threeStepRun()

	r.RecordResult(action.Result{Success: true, Message: "visited"})
	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.HasFailed())

	r.RecordResult(action.Result{Message: "Failed to click on Login button", Error: "targeting: no element"})
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "targeting: no element", r.Error)
	assert.True(t, r.HasFailed())
	assert.True(t, r.Terminal())

	// Nothing is recorded after the run turned terminal.
	r.RecordResult(action.Result{Success: true, Message: "too late"})
	assert.Len(t, r.Results, 2)
	assert.Equal(t, "targeting: no element", r.Error)
}

func TestRecordResultErrorFallsBackToMessage(t *testing.T) {
	r := threeStepRun()
	r.RecordResult(action.Result{Message: "Failed to visit http://example.com"})
	assert.Equal(t, "Failed to visit http://example.com", r.Error)
}

func TestIsComplete(t *testing.T) {
	r := threeStepRun()
	assert.False(t, r.IsComplete())
	r.RecordResult(action.Result{Success: true})
	r.RecordResult(action.Result{Success: true})
	r.RecordResult(action.Result{Success: true})
	assert.True(t, r.IsComplete())
}

func TestReportAfterFailure(t *testing.T) {
	r := threeStepRun()
	r.RecordResult(action.Result{Success: true, Message: "visited"})
	r.RecordResult(action.Result{Message: "Failed to click on Login button", Error: "targeting: no element"})

	rep := r.Report()
	assert.Equal(t, r.ID, rep.ID)
	assert.Equal(t, StatusFailed, rep.Status)
	assert.Equal(t, "2/3", rep.Progress)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 2, rep.Executed)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, "targeting: no element", rep.Error)

	require.Len(t, rep.Steps, 3)
	assert.Equal(t, "http://example.com", rep.Steps[0].URL)
	assert.Empty(t, rep.Steps[0].Element)
	assert.Equal(t, "Login button", rep.Steps[1].Element)
	assert.Equal(t, "Welcome", rep.Steps[2].Expected)
	assert.Equal(t, "pending", rep.Steps[2].Result)

	res, ok := rep.Steps[1].Result.(action.Result)
	require.True(t, ok)
	assert.True(t, res.IsFailure())
}

func TestReportJSONContract(t *testing.T) {
	r := threeStepRun()
	r.Status = StatusPassed
	r.RecordResult(action.Result{Success: true, Message: "ok"})

	data, err := json.Marshal(r.Report())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"id", "name", "status", "progress", "passed_steps", "executed_steps", "total_steps", "steps"} {
		assert.Contains(t, decoded, key)
	}

	steps := decoded["steps"].([]any)
	first := steps[0].(map[string]any)
	assert.Equal(t, "visit", first["kind"])
	assert.Equal(t, float64(0), first["index"])
	last := steps[2].(map[string]any)
	assert.Equal(t, "pending", last["result"])
}
