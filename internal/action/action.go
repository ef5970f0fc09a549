// Package action defines the typed test step model and per-step results.
package action

import (
	"fmt"
	"strings"
)

// Kind discriminates the action variants.
type Kind string

const (
	KindVisit         Kind = "visit"
	KindClick         Kind = "click"
	KindFill          Kind = "fill"
	KindScroll        Kind = "scroll"
	KindAssertVisible Kind = "assert_visible"
	KindAssertText    Kind = "assert_text"
	KindAssertRow     Kind = "assert_row"
)

// Action is a single test step. It is a closed tagged variant: consumers
// dispatch on Kind and read only the fields that kind defines. Construct
// actions via the constructors below so the invariants hold.
type Action struct {
	Kind        Kind   `json:"type"`
	Description string `json:"description"`

	URL          string            `json:"url,omitempty"`                 // visit
	Element      string            `json:"element_description,omitempty"` // click, fill, scroll, assert_visible, assert_text
	Text         string            `json:"text,omitempty"`                // fill
	ExpectedText string            `json:"expected_text,omitempty"`       // assert_text
	ExpectedRow  map[string]string `json:"expected_data,omitempty"`       // assert_row
}

// Visit navigates to a URL. A missing scheme is normalized to http://.
func Visit(url string) Action {
	url = strings.TrimSpace(url)
	if url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	return Action{Kind: KindVisit, URL: url, Description: fmt.Sprintf("Visit %s", url)}
}

// Click clicks the element matching a natural-language description.
func Click(element string) Action {
	return Action{Kind: KindClick, Element: element, Description: fmt.Sprintf("Click on %s", element)}
}

// Fill types text into the described input field.
func Fill(element, text string) Action {
	return Action{Kind: KindFill, Element: element, Text: text,
		Description: fmt.Sprintf("Fill %s with %q", element, text)}
}

// Scroll scrolls the described element into view.
func Scroll(element string) Action {
	return Action{Kind: KindScroll, Element: element, Description: fmt.Sprintf("Scroll to %s", element)}
}

// AssertVisible verifies the described element is visible, without
// interacting with it.
func AssertVisible(element string) Action {
	return Action{Kind: KindAssertVisible, Element: element,
		Description: fmt.Sprintf("Verify %s is visible", element)}
}

// AssertText verifies the described element's text contains expected
// (case-insensitive).
func AssertText(element, expected string) Action {
	return Action{Kind: KindAssertText, Element: element, ExpectedText: expected,
		Description: fmt.Sprintf("Verify %s contains text %q", element, expected)}
}

// AssertRow verifies some table row contains every key/value pair.
func AssertRow(expected map[string]string) Action {
	return Action{Kind: KindAssertRow, ExpectedRow: expected,
		Description: fmt.Sprintf("Verify table row contains %v", expected)}
}

// Validate checks the per-variant invariants.
func (a Action) Validate() error {
	switch a.Kind {
	case KindVisit:
		if a.URL == "" {
			return fmt.Errorf("visit action requires a URL")
		}
		if !strings.HasPrefix(a.URL, "http://") && !strings.HasPrefix(a.URL, "https://") {
			return fmt.Errorf("visit URL %q lacks a scheme", a.URL)
		}
	case KindClick, KindScroll, KindAssertVisible:
		if strings.TrimSpace(a.Element) == "" {
			return fmt.Errorf("%s action requires an element description", a.Kind)
		}
	case KindFill:
		if strings.TrimSpace(a.Element) == "" {
			return fmt.Errorf("fill action requires an element description")
		}
	case KindAssertText:
		if strings.TrimSpace(a.Element) == "" {
			return fmt.Errorf("assert_text action requires an element description")
		}
		if a.ExpectedText == "" {
			return fmt.Errorf("assert_text action requires expected text")
		}
	case KindAssertRow:
		if len(a.ExpectedRow) == 0 {
			return fmt.Errorf("assert_row action requires expected data")
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// Result is the immutable outcome of one executed action.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Screenshot string `json:"screenshot,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IsFailure reports whether this result fails the step.
func (r Result) IsFailure() bool {
	return !r.Success || r.Error != ""
}
