package flow

import "time"

// EdgeOption configures a single Connect call on the Builder. Options
// are applied in order, so a later option overrides an earlier one for
// the same field.
type EdgeOption func(*edgeAnnotation)

// WithConcurrency sets the edge's ConcurrencyPolicy (spec.md §4.5).
func WithConcurrency(policy ConcurrencyPolicy) EdgeOption {
	return func(a *edgeAnnotation) { a.concurrency = policy }
}

// WithRetry sets the edge's RetryPolicy (spec.md §4.6).
func WithRetry(policy RetryPolicy) EdgeOption {
	return func(a *edgeAnnotation) { a.retry = policy }
}

// WithObservability sets the edge's ObservabilityOptions (spec.md §4.9).
func WithObservability(opts ObservabilityOptions) EdgeOption {
	return func(a *edgeAnnotation) { a.observability = opts }
}

// WithTimeout sets a per-item execution timeout for the consuming node
// (spec.md §6 supplement).
func WithTimeout(d time.Duration) EdgeOption {
	return func(a *edgeAnnotation) { a.timeout = d }
}
