// Package parser converts a natural-language test scenario into a test
// run. Common phrasings are handled by rules; anything the rules cannot
// express (notably table-row assertions) falls back to an LLM with a
// structured-output prompt.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/v0xg/vistest/internal/action"
	"github.com/v0xg/vistest/internal/oracle"
	"github.com/v0xg/vistest/internal/run"
)

// Parser turns scenarios into runs.
type Parser struct {
	completer oracle.Completer
	log       *slog.Logger
}

// New creates a Parser. completer may be nil; then only rule-based parsing
// is available.
func New(completer oracle.Completer, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{completer: completer, log: log}
}

var (
	visitRE = regexp.MustCompile(`(?i)(?:open|visit|navigate to|go to)\s+(?:the\s+)?(?:url\s+)?(\S+)`)
	clickRE = regexp.MustCompile(`(?i)(?:click|press|select|choose)(?:\s+on)?(?:\s+the)?\s+(.+?)(?:\s*(?:button|link|icon|element))?$`)
	fillRE  = regexp.MustCompile(`(?i)(?:fill|enter|type|input)(?:\s+in)?(?:\s+the)?\s+(.+?)\s+(?:with|as)\s+(?:the\s+)?(?:value\s+)?['"]?([^'"]+?)['"]?$`)

	scrollRE = regexp.MustCompile(`(?i)^scroll(?:\s+down)?(?:\s+to)?(?:\s+the)?\s+(.+)$`)

	visibleHintRE = regexp.MustCompile(`(?i)(?:verify|check|ensure|assert).*(?:visible|appears|displays|shown)`)
	visibleRE     = regexp.MustCompile(`(?i)(?:verify|check|ensure|assert)(?:\s+that)?(?:\s+the)?\s+(.+?)\s+(?:is\s+)?(?:visible|appears|displays|shown)`)

	textHintRE = regexp.MustCompile(`(?i)(?:verify|check|ensure|assert).*(?:contains|has|shows|displays).*(?:text|value|content)`)
	textRE     = regexp.MustCompile(`(?i)(?:verify|check|ensure|assert)(?:\s+that)?(?:\s+the)?\s+(.+?)\s+(?:contains|has|shows|displays)(?:\s+the)?(?:\s+text)?\s+['"]?([^'"]+?)['"]?$`)

	rowHintRE = regexp.MustCompile(`(?i)(?:verify|check|ensure|assert).*table\s+contains`)

	actionVerbRE = regexp.MustCompile(`(?i)^\s*(?:click|press|select|choose|fill|enter|type|input|scroll)\b`)
	visitVerbRE  = regexp.MustCompile(`(?i)^\s*(?:open|visit|navigate|go)\b`)
	clickVerbRE  = regexp.MustCompile(`(?i)^\s*(?:click|press|select|choose)\b`)
)

// Parse converts the scenario into a pending run. Rule-based parsing wins
// when it covers the whole scenario; otherwise the LLM fallback is used.
func (p *Parser) Parse(ctx context.Context, scenario string) (*run.Run, error) {
	actions, covered := p.ruleParse(scenario)
	if covered && len(actions) > 0 {
		p.log.Info("rule-based parsing extracted actions", "count", len(actions))
		return run.New("Parsed Test", strings.TrimSpace(scenario), actions), nil
	}

	if p.completer == nil {
		if len(actions) > 0 {
			p.log.Warn("scenario partially parsed and no LLM available; using rule-based actions",
				"count", len(actions))
			return run.New("Parsed Test", strings.TrimSpace(scenario), actions), nil
		}
		return nil, fmt.Errorf("scenario could not be parsed by rules and no LLM parser is configured")
	}

	p.log.Info("rule-based parsing insufficient, using LLM")
	return p.llmParse(ctx, scenario)
}

// ruleParse extracts actions sentence by sentence. covered is false when
// some sentence looked actionable but no rule could express it, which
// signals the caller to prefer the LLM for the whole scenario.
func (p *Parser) ruleParse(scenario string) (actions []action.Action, covered bool) {
	covered = true
	for _, sentence := range splitSentences(scenario) {
		act, ok := parseSentence(sentence)
		if ok {
			if err := act.Validate(); err != nil {
				p.log.Warn("dropping invalid parsed action", "sentence", sentence, "error", err)
				covered = false
				continue
			}
			actions = append(actions, act)
			continue
		}
		if rowHintRE.MatchString(sentence) || actionVerbRE.MatchString(sentence) {
			covered = false
		}
	}
	return actions, covered
}

func parseSentence(s string) (action.Action, bool) {
	switch {
	case visitVerbRE.MatchString(s) && visitRE.MatchString(s):
		m := visitRE.FindStringSubmatch(s)
		return action.Visit(strings.Trim(m[1], `"'`)), true

	case fillRE.MatchString(s):
		m := fillRE.FindStringSubmatch(s)
		return action.Fill(strings.TrimSpace(m[1]), strings.TrimSpace(m[2])), true

	case visibleHintRE.MatchString(s):
		m := visibleRE.FindStringSubmatch(s)
		if m == nil {
			return action.Action{}, false
		}
		return action.AssertVisible(strings.TrimSpace(m[1])), true

	case textHintRE.MatchString(s):
		m := textRE.FindStringSubmatch(s)
		if m == nil {
			return action.Action{}, false
		}
		return action.AssertText(strings.TrimSpace(m[1]), strings.TrimSpace(m[2])), true

	case rowHintRE.MatchString(s):
		return action.Action{}, false

	case scrollRE.MatchString(s):
		m := scrollRE.FindStringSubmatch(s)
		return action.Scroll(strings.TrimSpace(m[1])), true

	case clickVerbRE.MatchString(s):
		m := clickRE.FindStringSubmatch(s)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			return action.Action{}, false
		}
		return action.Click(strings.TrimSpace(m[1])), true
	}
	return action.Action{}, false
}

// splitSentences splits on '.' / ';' / newlines, but keeps periods that are
// part of URLs or quoted strings intact: a '.' only ends a sentence when
// followed by whitespace or end of input, outside quotes.
func splitSentences(scenario string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	runes := []rune(scenario)

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for i, r := range runes {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == '\n' && !inQuote:
			flush()
		case (r == '.' || r == ';') && !inQuote:
			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == 0 || next == ' ' || next == '\t' || next == '\n' {
				flush()
			} else {
				cur.WriteRune(r)
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

const llmTemplate = `You are an expert test automation engineer. Convert the following test
scenario into a structured sequence of actions. The available action types
are:

1. visit - Navigate to a URL
2. click - Click on an element
3. fill - Enter text in a form field
4. scroll - Scroll to make an element visible
5. assert_visible - Verify an element is visible
6. assert_text - Verify an element contains specific text
7. assert_row - Verify a table row or list item contains specific data

TEST SCENARIO:
%s

Return ONLY a JSON object shaped like:
{
  "name": "Brief descriptive name for the test",
  "description": "The original test scenario",
  "actions": [
    {"type": "visit", "url": "http://example.com"},
    {"type": "click", "element_description": "Sign in button"},
    {"type": "fill", "element_description": "username field", "text": "user"},
    {"type": "assert_text", "element_description": "welcome banner", "expected_text": "Welcome"},
    {"type": "assert_row", "expected_data": {"column_name": "cell value"}}
  ]
}

Use descriptive element_description values that will work well with a
vision model that can see the page.`

type rawAction struct {
	Type         string            `json:"type"`
	URL          string            `json:"url"`
	Element      string            `json:"element_description"`
	Text         string            `json:"text"`
	ExpectedText string            `json:"expected_text"`
	ExpectedData map[string]string `json:"expected_data"`
}

func (p *Parser) llmParse(ctx context.Context, scenario string) (*run.Run, error) {
	resp, err := p.completer.Complete(ctx, fmt.Sprintf(llmTemplate, scenario))
	if err != nil {
		return nil, fmt.Errorf("LLM parse: %w", err)
	}

	cleaned, err := oracle.Repair(resp)
	if err != nil {
		return nil, fmt.Errorf("LLM parse: %w", err)
	}

	var payload struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Actions     []rawAction `json:"actions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("LLM parse: decode: %w", err)
	}

	var actions []action.Action
	for _, raw := range payload.Actions {
		act, err := typedAction(raw)
		if err != nil {
			p.log.Warn("dropping unparseable action", "type", raw.Type, "error", err)
			continue
		}
		actions = append(actions, act)
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("LLM parse: no usable actions in response")
	}

	name := payload.Name
	if name == "" {
		name = "Parsed Test"
	}
	desc := payload.Description
	if desc == "" {
		desc = strings.TrimSpace(scenario)
	}
	return run.New(name, desc, actions), nil
}

func typedAction(raw rawAction) (action.Action, error) {
	var act action.Action
	switch action.Kind(strings.ToLower(raw.Type)) {
	case action.KindVisit:
		act = action.Visit(raw.URL)
	case action.KindClick:
		act = action.Click(raw.Element)
	case action.KindFill:
		act = action.Fill(raw.Element, raw.Text)
	case action.KindScroll:
		act = action.Scroll(raw.Element)
	case action.KindAssertVisible:
		act = action.AssertVisible(raw.Element)
	case action.KindAssertText:
		act = action.AssertText(raw.Element, raw.ExpectedText)
	case action.KindAssertRow:
		act = action.AssertRow(raw.ExpectedData)
	default:
		return action.Action{}, fmt.Errorf("unknown action type %q", raw.Type)
	}
	return act, act.Validate()
}
