// Package locator resolves a natural-language element description to an
// actionable screen target and acts on it. Grounding is visual: the oracle
// is asked for a bounding box and a selector against a viewport screenshot,
// the selector is preferred when it resolves, and raw coordinates are only
// used behind a DOM guard so a drifted box never clicks the wrong element.
package locator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/v0xg/vistest/internal/browser"
	"github.com/v0xg/vistest/internal/fault"
	"github.com/v0xg/vistest/internal/oracle"
)

// Resolution methods reported in action messages.
const (
	MethodSelector    = "resolved-via-selector"
	MethodCoordinates = "resolved-via-coordinates"
	MethodFilled      = "vision-filled"
)

// noneSentinel is what the oracle is told to answer when it cannot produce
// a selector.
const noneSentinel = "none found"

// Box is a bounding box in viewport pixel space.
type Box struct {
	X, Y, W, H int
}

// Center returns the box's center point.
func (b Box) Center() (int, int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Target is an ephemeral resolution: a box, plus a selector when the
// oracle could produce one. Recomputed per attempt, never persisted.
type Target struct {
	Box      Box
	Selector string
}

// Locator drives the locate-and-act protocol against one browser session
// and one oracle.
type Locator struct {
	surf            browser.Surface
	oracle          oracle.Oracle
	selectorTimeout time.Duration
	log             *slog.Logger
}

// New creates a Locator. The selector attempt is bounded by a short
// timeout; the coordinate path is the fallback, not the default.
func New(surf browser.Surface, o oracle.Oracle, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{
		surf:            surf,
		oracle:          o,
		selectorTimeout: 1500 * time.Millisecond,
		log:             log,
	}
}

func boxPrompt(description string) string {
	return fmt.Sprintf(`You see a PNG screenshot of a web page. Return ONLY JSON:
{ "x": <int>, "y": <int>, "w": <int>, "h": <int> }
Coordinates correspond to the UI element described as:
%q
Use CSS pixel space relative to the top-left of the screenshot.`, description)
}

func fillBoxPrompt(description string) string {
	return fmt.Sprintf(`Return ONLY JSON { "x": <int>, "y": <int>, "w": <int>, "h": <int> }
locating the input field whose label or placeholder matches:
%q
Use CSS pixel space relative to the top-left of the screenshot.`, description)
}

func selectorPrompt(description string) string {
	return fmt.Sprintf(`Return a single CSS or ARIA selector (plain text, no JSON) uniquely
locating the element described as %q.
If no stable selector exists, return exactly %q.`, description, noneSentinel)
}

func rowPrompt(expectedJSON string) string {
	return fmt.Sprintf(`Does any table row in this screenshot contain every key/value pair
below? Answer only YES or NO.

%s`, expectedJSON)
}

// mustContainToken derives the guard token from a description: its first
// whitespace-separated word.
func mustContainToken(description string) string {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (l *Locator) screenshot(ctx context.Context) ([]byte, error) {
	img, err := l.surf.Screenshot(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Targeting, err, "viewport screenshot failed")
	}
	return img, nil
}

// resolve asks the oracle for a bounding box and, when askSelector is set,
// an independent structural selector for the same element.
func (l *Locator) resolve(ctx context.Context, img []byte, description, prompt string, askSelector bool) (Target, error) {
	obj, err := l.oracle.AskJSON(ctx, img, prompt)
	if err != nil {
		return Target{}, err
	}
	box, err := boxFromObject(obj)
	if err != nil {
		return Target{}, err
	}

	var selector string
	if askSelector {
		raw, err := l.oracle.AskText(ctx, img, selectorPrompt(description))
		if err != nil {
			return Target{}, err
		}
		selector = cleanSelector(raw)
	}

	return Target{Box: box, Selector: selector}, nil
}

func cleanSelector(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "`\"'")
	if s == "" || strings.EqualFold(s, noneSentinel) || strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

func boxFromObject(obj map[string]any) (Box, error) {
	box := Box{}
	for key, dst := range map[string]*int{"x": &box.X, "y": &box.Y, "w": &box.W, "h": &box.H} {
		v, ok := obj[key]
		if !ok {
			return Box{}, fault.New(fault.Targeting, "oracle box is missing %q: %v", key, obj)
		}
		f, ok := v.(float64)
		if !ok {
			return Box{}, fault.New(fault.Targeting, "oracle box field %q is not a number: %v", key, v)
		}
		*dst = int(f)
	}
	if box.W <= 0 || box.H <= 0 {
		return Box{}, fault.New(fault.Targeting, "oracle box has no area: %+v", box)
	}
	cx, cy := box.Center()
	if cx < 0 || cy < 0 || cx >= browser.ViewportWidth || cy >= browser.ViewportHeight {
		return Box{}, fault.New(fault.Targeting, "oracle box center (%d,%d) is outside the viewport", cx, cy)
	}
	return box, nil
}

// guard verifies that an element actually sits at (x, y) and, when
// mustContain is non-empty, that its text or accessible label contains the
// token (case-insensitive). Failing the guard is a targeting fault; the
// click never happens.
func (l *Locator) guard(ctx context.Context, x, y int, mustContain string) error {
	info, err := l.surf.ElementAtPoint(ctx, x, y)
	if err != nil {
		if errors.Is(err, browser.ErrNoElement) {
			return fault.Wrap(fault.Targeting, err, "no element at (%d,%d)", x, y)
		}
		return fault.Wrap(fault.Targeting, err, "element lookup at (%d,%d) failed", x, y)
	}
	if mustContain != "" {
		haystack := strings.ToLower(info.Text + " " + info.Label)
		if !strings.Contains(haystack, strings.ToLower(mustContain)) {
			return fault.New(fault.Targeting,
				"%q not found in element text %q at (%d,%d)", mustContain, strings.TrimSpace(info.Text), x, y)
		}
	}
	return nil
}

// Click locates the described element and clicks it. Selector first; on
// fallback the coordinate click only happens after the guard passes.
func (l *Locator) Click(ctx context.Context, description string) (string, error) {
	img, err := l.screenshot(ctx)
	if err != nil {
		return "", err
	}
	target, err := l.resolve(ctx, img, description, boxPrompt(description), true)
	if err != nil {
		return "", err
	}

	if target.Selector != "" {
		if err := l.surf.ClickSelector(ctx, target.Selector, l.selectorTimeout); err == nil {
			return MethodSelector, nil
		} else {
			l.log.Debug("selector click failed, falling back to coordinates",
				"selector", target.Selector, "error", err)
		}
	}

	cx, cy := target.Box.Center()
	if err := l.guard(ctx, cx, cy, mustContainToken(description)); err != nil {
		return "", err
	}
	if err := l.surf.ClickAt(ctx, cx, cy); err != nil {
		return "", fault.Wrap(fault.Interaction, err, "click at (%d,%d)", cx, cy)
	}
	return MethodCoordinates, nil
}

// Fill locates the described input, clicks it to focus and dispatches the
// text as literal keystrokes.
func (l *Locator) Fill(ctx context.Context, description, text string) (string, error) {
	img, err := l.screenshot(ctx)
	if err != nil {
		return "", err
	}
	target, err := l.resolve(ctx, img, description, fillBoxPrompt(description), false)
	if err != nil {
		return "", err
	}

	cx, cy := target.Box.Center()
	if err := l.guard(ctx, cx, cy, ""); err != nil {
		return "", err
	}
	if err := l.surf.ClickAt(ctx, cx, cy); err != nil {
		return "", fault.Wrap(fault.Interaction, err, "focus click at (%d,%d)", cx, cy)
	}
	if err := l.surf.TypeText(ctx, text); err != nil {
		return "", fault.Wrap(fault.Interaction, err, "type into %s", description)
	}
	return MethodFilled, nil
}

// ScrollTo brings the described element into view.
func (l *Locator) ScrollTo(ctx context.Context, description string) (string, error) {
	img, err := l.screenshot(ctx)
	if err != nil {
		return "", err
	}
	target, err := l.resolve(ctx, img, description, boxPrompt(description), true)
	if err != nil {
		return "", err
	}

	if target.Selector != "" {
		if err := l.surf.ScrollToSelector(ctx, target.Selector, l.selectorTimeout); err == nil {
			return MethodSelector, nil
		} else {
			l.log.Debug("selector scroll failed, falling back to coordinates",
				"selector", target.Selector, "error", err)
		}
	}

	_, cy := target.Box.Center()
	if err := l.surf.ScrollBy(ctx, 0, cy-browser.ViewportHeight/2); err != nil {
		return "", fault.Wrap(fault.Interaction, err, "scroll to %s", description)
	}
	return MethodCoordinates, nil
}

// AssertVisible verifies the described element is present without any
// pointer action: a click or scroll would mutate the page the assertion is
// supposed to observe. Resolution is the assertion.
func (l *Locator) AssertVisible(ctx context.Context, description string) (string, error) {
	img, err := l.screenshot(ctx)
	if err != nil {
		return "", err
	}
	target, err := l.resolve(ctx, img, description, boxPrompt(description), true)
	if err != nil {
		return "", err
	}

	if target.Selector != "" {
		if err := l.surf.ElementVisible(ctx, target.Selector, l.selectorTimeout); err == nil {
			return MethodSelector, nil
		} else {
			l.log.Debug("selector visibility check failed, falling back to coordinates",
				"selector", target.Selector, "error", err)
		}
	}

	cx, cy := target.Box.Center()
	if err := l.guard(ctx, cx, cy, mustContainToken(description)); err != nil {
		return "", err
	}
	return MethodCoordinates, nil
}

// ExtractText locates the described element and returns its rendered text.
func (l *Locator) ExtractText(ctx context.Context, description string) (string, error) {
	img, err := l.screenshot(ctx)
	if err != nil {
		return "", err
	}
	target, err := l.resolve(ctx, img, description, boxPrompt(description), true)
	if err != nil {
		return "", err
	}

	if target.Selector != "" {
		if text, err := l.surf.TextContent(ctx, target.Selector, l.selectorTimeout); err == nil {
			return text, nil
		} else {
			l.log.Debug("selector text extraction failed, falling back to coordinates",
				"selector", target.Selector, "error", err)
		}
	}

	cx, cy := target.Box.Center()
	info, err := l.surf.ElementAtPoint(ctx, cx, cy)
	if err != nil {
		if errors.Is(err, browser.ErrNoElement) {
			return "", fault.Wrap(fault.Targeting, err, "no element at (%d,%d)", cx, cy)
		}
		return "", fault.Wrap(fault.Targeting, err, "element lookup at (%d,%d) failed", cx, cy)
	}
	if info.Text != "" {
		return info.Text, nil
	}
	return info.Label, nil
}

// ExpectRow asks the oracle whether any table row in the current viewport
// contains every expected key/value pair. The answer is accepted only when
// it begins with the affirmative token; anything else means the row is not
// there, which is an assertion failure, not an oracle fault.
func (l *Locator) ExpectRow(ctx context.Context, expected map[string]string) error {
	img, err := l.screenshot(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(expected)
	if err != nil {
		return fault.Wrap(fault.Assertion, err, "encode expected row")
	}
	answer, err := l.oracle.AskText(ctx, img, rowPrompt(string(payload)))
	if err != nil {
		return err
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "YES") {
		return nil
	}
	return fault.New(fault.Assertion, "expected row not found: %s", payload)
}
