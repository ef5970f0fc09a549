package run

import (
	"fmt"

	"github.com/v0xg/vistest/internal/action"
)

// Report is the serializable snapshot of a run. Field names are the
// compatibility contract consumed by the JSON and HTML renderers.
type Report struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Progress    string `json:"progress"`
	Passed      int    `json:"passed_steps"`
	Executed    int    `json:"executed_steps"`
	Total       int    `json:"total_steps"`
	Steps       []Step `json:"steps"`
	Error       string `json:"error,omitempty"`
}

// Step echoes one action plus its result. Result is either an
// action.Result or the literal string "pending" for unexecuted steps.
type Step struct {
	Index       int               `json:"index"`
	Kind        action.Kind       `json:"kind"`
	Description string            `json:"description"`
	URL         string            `json:"url,omitempty"`
	Element     string            `json:"element_description,omitempty"`
	Text        string            `json:"text,omitempty"`
	Expected    string            `json:"expected_text,omitempty"`
	ExpectedRow map[string]string `json:"expected_data,omitempty"`
	Result      any               `json:"result"`
}

// Report projects the run into a Report. Pure: no mutation.
func (r *Run) Report() Report {
	passed := 0
	for _, res := range r.Results {
		if !res.IsFailure() {
			passed++
		}
	}

	rep := Report{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		Progress:    fmt.Sprintf("%d/%d", len(r.Results), len(r.Actions)),
		Passed:      passed,
		Executed:    len(r.Results),
		Total:       len(r.Actions),
		Error:       r.Error,
	}

	for i, act := range r.Actions {
		step := Step{
			Index:       i,
			Kind:        act.Kind,
			Description: act.Description,
		}
		switch act.Kind {
		case action.KindVisit:
			step.URL = act.URL
		case action.KindFill:
			step.Element = act.Element
			step.Text = act.Text
		case action.KindAssertText:
			step.Element = act.Element
			step.Expected = act.ExpectedText
		case action.KindAssertRow:
			step.ExpectedRow = act.ExpectedRow
		default:
			step.Element = act.Element
		}
		if i < len(r.Results) {
			step.Result = r.Results[i]
		} else {
			step.Result = "pending"
		}
		rep.Steps = append(rep.Steps, step)
	}

	return rep
}
