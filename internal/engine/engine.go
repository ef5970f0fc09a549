// Package engine sequences a test run: it pulls the next action from the
// run state, dispatches it to the executor, and decides continue / stop /
// finalize. The control flow is the explicit loop below rather than a
// generic graph: initialize, then routeNext until a failure is recorded or
// every action has a result, then finalize.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/v0xg/vistest/internal/browser"
	"github.com/v0xg/vistest/internal/executor"
	"github.com/v0xg/vistest/internal/oracle"
	"github.com/v0xg/vistest/internal/run"
)

// Options configures an Engine.
type Options struct {
	// Sessions opens the browser session for a run. One session per run,
	// acquired before the first action, released once after finalize.
	Sessions browser.Factory
	// Oracle answers vision queries. Safe for concurrent runs.
	Oracle oracle.Oracle
	// Retries per action on flaky failures.
	Retries int
	// Backoff between retry attempts.
	Backoff time.Duration
	// ArtifactDir receives per-step screenshots when set.
	ArtifactDir string
	Logger      *slog.Logger
}

// Engine executes test runs. Engines hold no per-run state; one Engine may
// serve many runs, each with its own session and run state.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Retries == 0 {
		opts.Retries = 2
	}
	return &Engine{opts: opts, log: opts.Logger}
}

// Run executes the test run to a terminal status. Actions run strictly
// sequentially; after the first failing result no further action is
// attempted. Cancellation is honored between actions only; an in-flight
// oracle call or click is allowed to complete first.
func (e *Engine) Run(ctx context.Context, r *run.Run) error {
	e.log.Info("initializing test", "id", r.ID, "name", r.Name, "actions", len(r.Actions))
	r.Status = run.StatusRunning

	surf, err := e.opts.Sessions(ctx)
	if err != nil {
		r.Status = run.StatusFailed
		r.Error = err.Error()
		e.log.Error("session acquisition failed", "id", r.ID, "error", err)
		return err
	}
	defer func() {
		if cerr := surf.Close(); cerr != nil {
			e.log.Warn("session close", "id", r.ID, "error", cerr)
		}
	}()

	exec := executor.New(surf, e.opts.Oracle, executor.Options{
		Retries:     e.opts.Retries,
		Backoff:     e.opts.Backoff,
		ArtifactDir: e.opts.ArtifactDir,
		Logger:      e.log,
	})

	for e.routeNext(ctx, r) {
		act, ok := r.CurrentAction()
		if !ok {
			// Unreachable given the completeness check, but an advance past
			// the end must not be read as a valid action.
			r.Status = run.StatusFailed
			r.Error = "action cursor out of range"
			break
		}
		res := exec.Execute(ctx, r.Cursor(), act)
		r.RecordResult(res)
		e.log.Info("action recorded",
			"id", r.ID, "index", r.Cursor(), "success", !res.IsFailure(), "message", res.Message)
	}

	e.finalize(r)
	return nil
}

// routeNext decides whether another action should run, advancing the
// cursor when it should. Failure short-circuits: later steps in a UI test
// depend on earlier ones, so continuing after a failure produces noise.
func (e *Engine) routeNext(ctx context.Context, r *run.Run) bool {
	if err := ctx.Err(); err != nil {
		if !r.HasFailed() {
			r.Status = run.StatusFailed
			r.Error = "run aborted: " + err.Error()
		}
		return false
	}
	if r.HasFailed() {
		return false
	}
	if r.IsComplete() {
		return false
	}
	r.Advance()
	return true
}

// finalize decides the overall outcome. This is the only place a run is
// marked passed; an already-failed run keeps its first error untouched.
func (e *Engine) finalize(r *run.Run) {
	if r.Status == run.StatusRunning {
		r.Status = run.StatusPassed
	}
	e.log.Info("test finished", "id", r.ID, "status", r.Status, "error", r.Error)
}
