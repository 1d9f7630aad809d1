package flow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RunContext is handed to every Source, Transform, and Sink invocation
// for the duration of one Runner.Run call (spec.md §3: "a context bag
// of arbitrary keyed values for user code", plus run identity and the
// run's own cancellation). It is safe for concurrent use by the worker
// pools of multiple nodes running in the same pipeline.
type RunContext struct {
	// RunID uniquely identifies this execution of the pipeline.
	RunID string

	ctx      context.Context
	cancel   context.CancelCauseFunc
	observer ExecutionObserver

	mu     sync.RWMutex
	values map[string]any
}

// newRunContext derives a cancellable RunContext from parent, tagging it
// with a fresh RunID and the observer that will receive this run's
// lifecycle events.
func newRunContext(parent context.Context, observer ExecutionObserver) (*RunContext, context.Context) {
	ctx, cancel := context.WithCancelCause(parent)
	rc := &RunContext{
		RunID:    uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
		observer: observer,
		values:   make(map[string]any),
	}
	return rc, ctx
}

// Context returns the run's own context, cancelled when the run
// terminates for any reason (success, failure, or external
// cancellation).
func (rc *RunContext) Context() context.Context {
	return rc.ctx
}

// Cancel requests early termination of the run with the given reason.
// It is safe to call from any node's goroutine, including concurrently
// from several at once; only the first reason is recorded as the
// context's cancellation cause.
func (rc *RunContext) Cancel(reason error) {
	rc.cancel(reason)
}

// Set stores a value in the run's context bag under key, visible to
// every node in the pipeline for the remainder of the run.
func (rc *RunContext) Set(key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.values[key] = value
}

// Value retrieves a value previously stored with Set. ok is false if no
// value was ever set under key.
func (rc *RunContext) Value(key string) (any, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	v, ok := rc.values[key]
	return v, ok
}

// Observer returns the ExecutionObserver attached to this run, never
// nil: Runner.Run defaults to a no-op observer when the caller supplies
// none.
func (rc *RunContext) Observer() ExecutionObserver {
	return rc.observer
}
