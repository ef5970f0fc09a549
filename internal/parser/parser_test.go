package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/vistest/internal/action"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestParseRuleBasedScenario(t *testing.T) {
	scenario := `Open http://example.com/home. Click the Login button.
Fill the username field with "admin". Verify the welcome banner contains text "Welcome".
Check that the logout link is visible.`

	completer := &fakeCompleter{}
	r, err := New(completer, nil).Parse(context.Background(), scenario)
	require.NoError(t, err)
	assert.Empty(t, completer.prompts, "fully covered scenarios never reach the LLM")

	require.Len(t, r.Actions, 5)
	assert.Equal(t, action.KindVisit, r.Actions[0].Kind)
	assert.Equal(t, "http://example.com/home", r.Actions[0].URL)

	assert.Equal(t, action.KindClick, r.Actions[1].Kind)
	assert.Equal(t, "Login", r.Actions[1].Element)

	assert.Equal(t, action.KindFill, r.Actions[2].Kind)
	assert.Equal(t, "username field", r.Actions[2].Element)
	assert.Equal(t, "admin", r.Actions[2].Text)

	assert.Equal(t, action.KindAssertText, r.Actions[3].Kind)
	assert.Equal(t, "welcome banner", r.Actions[3].Element)
	assert.Equal(t, "Welcome", r.Actions[3].ExpectedText)

	assert.Equal(t, action.KindAssertVisible, r.Actions[4].Kind)
	assert.Equal(t, "logout link", r.Actions[4].Element)
}

func TestParseScroll(t *testing.T) {
	r, err := New(nil, nil).Parse(context.Background(), "Open example.com. Scroll to the page footer.")
	require.NoError(t, err)
	require.Len(t, r.Actions, 2)
	assert.Equal(t, action.KindScroll, r.Actions[1].Kind)
	assert.Equal(t, "page footer", r.Actions[1].Element)
}

func TestParseTableRowNeedsLLM(t *testing.T) {
	scenario := "Verify the table contains party id iag00001 and first name test user1."

	_, err := New(nil, nil).Parse(context.Background(), scenario)
	require.Error(t, err, "row assertions are beyond the rules and need the LLM")
}

func TestParseLLMFallback(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n" + `{
  "name": "Party Table Test",
  "description": "verify the new party shows up",
  "actions": [
    {"type": "visit", "url": "http://example.com/parties"},
    {"type": "assert_row", "expected_data": {"party id": "iag00001", "first name": "test user1"}}
  ]
}` + "\n```"}

	scenario := "Open http://example.com/parties. Verify the table contains party id iag00001."
	r, err := New(completer, nil).Parse(context.Background(), scenario)
	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], scenario)

	assert.Equal(t, "Party Table Test", r.Name)
	require.Len(t, r.Actions, 2)
	assert.Equal(t, action.KindVisit, r.Actions[0].Kind)
	assert.Equal(t, action.KindAssertRow, r.Actions[1].Kind)
	assert.Equal(t, "iag00001", r.Actions[1].ExpectedRow["party id"])
}

func TestParseLLMDropsInvalidActions(t *testing.T) {
	completer := &fakeCompleter{response: `{
  "name": "Mixed",
  "actions": [
    {"type": "click"},
    {"type": "teleport", "url": "x"},
    {"type": "click", "element_description": "Save button"}
  ]
}`}

	r, err := New(completer, nil).Parse(context.Background(), "Verify the table contains id 5.")
	require.NoError(t, err)
	require.Len(t, r.Actions, 1, "malformed actions are dropped, not fatal")
	assert.Equal(t, "Save button", r.Actions[0].Element)
}

func TestParseLLMAllInvalidFails(t *testing.T) {
	completer := &fakeCompleter{response: `{"name": "Bad", "actions": [{"type": "teleport"}]}`}
	_, err := New(completer, nil).Parse(context.Background(), "Verify the table contains id 5.")
	require.Error(t, err)
}

func TestSplitSentencesKeepsURLsIntact(t *testing.T) {
	got := splitSentences("Open http://example.com/accounts.html. Click the New button.")
	require.Len(t, got, 2)
	assert.Equal(t, "Open http://example.com/accounts.html", got[0])
	assert.Equal(t, "Click the New button", got[1])
}

func TestSplitSentencesKeepsQuotedPeriods(t *testing.T) {
	got := splitSentences(`Fill the note field with "Done. All good". Click Save.`)
	require.Len(t, got, 2)
	assert.Equal(t, `Fill the note field with "Done. All good"`, got[0])
	assert.Equal(t, "Click Save", got[1])
}

func TestSplitSentencesHandlesNewlinesAndSemicolons(t *testing.T) {
	got := splitSentences("Open example.com; Click Login\nFill username with admin")
	require.Len(t, got, 3)
}

func TestParseSentenceClickStripsSuffix(t *testing.T) {
	act, ok := parseSentence("Click on the Submit Order button")
	require.True(t, ok)
	assert.Equal(t, action.KindClick, act.Kind)
	assert.Equal(t, "Submit Order", act.Element)

	act, ok = parseSentence("Press the Details link")
	require.True(t, ok)
	assert.Equal(t, "Details", act.Element)
}

func TestParseSentenceVisitTrimsQuotes(t *testing.T) {
	act, ok := parseSentence(`Navigate to "example.com/login"`)
	require.True(t, ok)
	assert.Equal(t, action.KindVisit, act.Kind)
	assert.Equal(t, "http://example.com/login", act.URL)
}
