package flow

import "time"

// ExecutionObserver receives lifecycle events for every node in a run
// (spec.md §4.8). Implementations must not block: the scheduler invokes
// most observer methods synchronously on the node's own goroutine, so a
// slow or blocking observer throttles the pipeline itself. OnQueueMetrics
// is the exception, delivered from a single run-scoped poller goroutine
// on a fixed cadence rather than from any node's goroutine. The metrics
// package's CollectingObserver is the reference implementation; tracing
// provides its own.
type ExecutionObserver interface {
	// OnNodeStarted fires once, before a node's first item (or, for a
	// Source, before initialize) runs.
	OnNodeStarted(NodeStartedEvent)

	// OnNodeCompleted fires exactly once per node, whether the node
	// finished successfully, failed, or was cancelled.
	OnNodeCompleted(NodeCompletedEvent)

	// OnRetry fires once per retry attempt, before the delay preceding
	// that attempt.
	OnRetry(RetryEvent)

	// OnDrop fires once per item dropped by a DropOldest/DropNewest
	// backpressure policy.
	OnDrop(DropEvent)

	// OnQueueMetrics fires periodically (scheduler-determined cadence)
	// with a snapshot of an edge's queue depth.
	OnQueueMetrics(QueueMetricsEvent)
}

// NodeStartedEvent is delivered by OnNodeStarted.
type NodeStartedEvent struct {
	RunID     string
	NodeID    string
	Kind      Kind
	StartedAt time.Time
}

// NodeCompletedEvent is delivered by OnNodeCompleted.
type NodeCompletedEvent struct {
	RunID     string
	NodeID    string
	Kind      Kind
	StartedAt time.Time
	Duration  time.Duration
	ItemsIn   int64
	ItemsOut  int64
	Err       error
	Cancelled bool
	// MemoryDeltaBytes is the change in process heap size observed across
	// the node's execution, sampled only when the edge's
	// ObservabilityOptions.RecordMemoryUsage is set (spec.md §5, "Memory
	// accounting"). Zero when that flag is off.
	MemoryDeltaBytes int64
	// Observability is the edge's resolved ObservabilityOptions, carried
	// so an observer can decide which optional recordings (performance,
	// memory) it is allowed to make for this node (spec.md §4.9).
	Observability ObservabilityOptions
}

// RetryEvent is delivered by OnRetry.
type RetryEvent struct {
	RunID   string
	NodeID  string
	Attempt int
	Delay   time.Duration
	Err     error
}

// DropEvent is delivered by OnDrop.
type DropEvent struct {
	RunID  string
	NodeID string
	Policy QueuePolicy
}

// QueueMetricsEvent is delivered by OnQueueMetrics.
type QueueMetricsEvent struct {
	RunID     string
	NodeID    string
	Depth     int
	Capacity  int
	Timestamp time.Time
}

// NopObserver implements ExecutionObserver with no-ops. Runner.Run uses
// it when the caller supplies no observer.
type NopObserver struct{}

func (NopObserver) OnNodeStarted(NodeStartedEvent)     {}
func (NopObserver) OnNodeCompleted(NodeCompletedEvent) {}
func (NopObserver) OnRetry(RetryEvent)                 {}
func (NopObserver) OnDrop(DropEvent)                   {}
func (NopObserver) OnQueueMetrics(QueueMetricsEvent)   {}

// MultiObserver fans out every event to each observer in order. Panics
// from an individual observer are not recovered: a misbehaving observer
// is a programming error in the caller's own code, not a pipeline fault.
type MultiObserver []ExecutionObserver

func (m MultiObserver) OnNodeStarted(e NodeStartedEvent) {
	for _, o := range m {
		o.OnNodeStarted(e)
	}
}

func (m MultiObserver) OnNodeCompleted(e NodeCompletedEvent) {
	for _, o := range m {
		o.OnNodeCompleted(e)
	}
}

func (m MultiObserver) OnRetry(e RetryEvent) {
	for _, o := range m {
		o.OnRetry(e)
	}
}

func (m MultiObserver) OnDrop(e DropEvent) {
	for _, o := range m {
		o.OnDrop(e)
	}
}

func (m MultiObserver) OnQueueMetrics(e QueueMetricsEvent) {
	for _, o := range m {
		o.OnQueueMetrics(e)
	}
}
