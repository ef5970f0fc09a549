// Package executor runs one action at a time against a browser session.
// Every handler returns exactly one Result; no fault, anticipated or not,
// escapes past the Execute boundary.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/v0xg/vistest/internal/action"
	"github.com/v0xg/vistest/internal/browser"
	"github.com/v0xg/vistest/internal/fault"
	"github.com/v0xg/vistest/internal/locator"
	"github.com/v0xg/vistest/internal/oracle"
)

// Options configures execution behavior.
type Options struct {
	// Retries is how many extra attempts a flaky (targeting, oracle,
	// interaction) failure gets. Assertion mismatches are never retried.
	Retries int
	// Backoff is the base pause before a retry; attempt n waits n*Backoff.
	Backoff time.Duration
	// ArtifactDir, when set, receives a post-action screenshot per step.
	ArtifactDir string
	Logger      *slog.Logger
}

// Executor executes actions via the locator protocol.
type Executor struct {
	surf      browser.Surface
	loc       *locator.Locator
	retries   int
	backoff   time.Duration
	artifacts *artifactStore
	log       *slog.Logger
}

// New creates an Executor bound to one session and one oracle.
func New(surf browser.Surface, o oracle.Oracle, opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	var store *artifactStore
	if opts.ArtifactDir != "" {
		store = &artifactStore{dir: opts.ArtifactDir, log: opts.Logger}
	}
	return &Executor{
		surf:      surf,
		loc:       locator.New(surf, o, opts.Logger),
		retries:   opts.Retries,
		backoff:   opts.Backoff,
		artifacts: store,
		log:       opts.Logger,
	}
}

// Execute runs the action and converts any outcome into a single Result.
// A post-action screenshot is captured for audit on success and failure.
func (x *Executor) Execute(ctx context.Context, index int, act action.Action) (res action.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = action.Result{
				Message: failMessage(act),
				Error:   fmt.Sprintf("panic: %v", p),
			}
		}
	}()

	x.log.Info("executing action", "index", index, "kind", act.Kind, "description", act.Description)

	msg, err := x.dispatch(ctx, act)
	shot := x.capture(ctx, index, act)

	if err != nil {
		x.log.Error("action failed", "index", index, "kind", act.Kind, "error", err)
		return action.Result{
			Message:    failMessage(act),
			Error:      err.Error(),
			Screenshot: shot,
		}
	}
	return action.Result{
		Success:    true,
		Message:    msg,
		Screenshot: shot,
	}
}

func (x *Executor) dispatch(ctx context.Context, act action.Action) (string, error) {
	switch act.Kind {
	case action.KindVisit:
		return x.visit(ctx, act)
	case action.KindClick:
		return x.withRetry(ctx, func(ctx context.Context) (string, error) {
			method, err := x.loc.Click(ctx, act.Element)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Successfully clicked on %s. Method: %s", act.Element, method), nil
		})
	case action.KindFill:
		return x.withRetry(ctx, func(ctx context.Context) (string, error) {
			method, err := x.loc.Fill(ctx, act.Element, act.Text)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Successfully filled %s with %q. Method: %s", act.Element, act.Text, method), nil
		})
	case action.KindScroll:
		return x.withRetry(ctx, func(ctx context.Context) (string, error) {
			method, err := x.loc.ScrollTo(ctx, act.Element)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Successfully scrolled to %s. Method: %s", act.Element, method), nil
		})
	case action.KindAssertVisible:
		return x.withRetry(ctx, func(ctx context.Context) (string, error) {
			method, err := x.loc.AssertVisible(ctx, act.Element)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Successfully verified %s is visible. Method: %s", act.Element, method), nil
		})
	case action.KindAssertText:
		return x.withRetry(ctx, func(ctx context.Context) (string, error) {
			text, err := x.loc.ExtractText(ctx, act.Element)
			if err != nil {
				return "", err
			}
			if !strings.Contains(strings.ToLower(text), strings.ToLower(act.ExpectedText)) {
				return "", fault.New(fault.Assertion,
					"expected %q in %s, got %q", act.ExpectedText, act.Element, strings.TrimSpace(text))
			}
			return fmt.Sprintf("Successfully verified %s contains %q", act.Element, act.ExpectedText), nil
		})
	case action.KindAssertRow:
		return x.withRetry(ctx, func(ctx context.Context) (string, error) {
			if err := x.loc.ExpectRow(ctx, act.ExpectedRow); err != nil {
				return "", err
			}
			return "Successfully verified table row contains expected data", nil
		})
	default:
		return "", fmt.Errorf("unknown action kind %q", act.Kind)
	}
}

func (x *Executor) visit(ctx context.Context, act action.Action) (string, error) {
	title, err := x.surf.Visit(ctx, act.URL)
	if err != nil {
		return "", fault.Wrap(fault.Navigation, err, "visit %s", act.URL)
	}
	return fmt.Sprintf("Successfully visited %s. Page title: %s", act.URL, title), nil
}

// withRetry re-runs the whole locate-and-act sequence on flaky failures.
// A non-retryable fault (assertion mismatch, navigation) returns
// immediately.
func (x *Executor) withRetry(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= x.retries; attempt++ {
		if attempt > 0 {
			x.log.Debug("retrying action", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", lastErr
			case <-time.After(time.Duration(attempt) * x.backoff):
			}
		}
		msg, err := fn(ctx)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !fault.Retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (x *Executor) capture(ctx context.Context, index int, act action.Action) string {
	if x.artifacts == nil {
		return ""
	}
	img, err := x.surf.Screenshot(ctx)
	if err != nil {
		x.log.Warn("post-action screenshot failed", "index", index, "error", err)
		return ""
	}
	return x.artifacts.save(index, act.Kind, img)
}

func failMessage(act action.Action) string {
	switch act.Kind {
	case action.KindVisit:
		return fmt.Sprintf("Failed to visit %s", act.URL)
	case action.KindClick:
		return fmt.Sprintf("Failed to click on %s", act.Element)
	case action.KindFill:
		return fmt.Sprintf("Failed to fill %s with %q", act.Element, act.Text)
	case action.KindScroll:
		return fmt.Sprintf("Failed to scroll to %s", act.Element)
	case action.KindAssertVisible:
		return fmt.Sprintf("Failed to verify %s is visible", act.Element)
	case action.KindAssertText:
		return fmt.Sprintf("Failed to verify %s contains %q", act.Element, act.ExpectedText)
	case action.KindAssertRow:
		return "Failed to verify table row contains expected data"
	default:
		return fmt.Sprintf("Failed to execute %s action", act.Kind)
	}
}
