package flow

import "time"

// AnnotationKey names a well-known annotation slot understood by the
// builder's own layers (spec.md §4.2). User code may also attach
// arbitrary annotations under other keys; the core simply ignores them.
type AnnotationKey string

const (
	// AnnotationConcurrency selects the ConcurrencyPolicy applied when
	// draining items on the edge feeding a node.
	AnnotationConcurrency AnnotationKey = "concurrency.policy"
	// AnnotationRetry selects the RetryPolicy applied to a transform's
	// per-item execution.
	AnnotationRetry AnnotationKey = "retry.policy"
	// AnnotationObservability selects the ObservabilityOptions recorded
	// for a node.
	AnnotationObservability AnnotationKey = "observability.options"
	// AnnotationTimeout selects a time.Duration bounding each single item's
	// execution in a Transform or Sink node (spec.md §5, "Timeouts"). The
	// node as a whole has no deadline, and Batcher and Unbatcher nodes
	// ignore it.
	AnnotationTimeout AnnotationKey = "timeout"
)

// QueuePolicy is one of the three backpressure behaviors from spec.md
// §4.5.
type QueuePolicy int

const (
	// Blocking suspends the producer until queue capacity exists or the
	// run is cancelled.
	Blocking QueuePolicy = iota
	// DropOldest evicts the head of the queue and enqueues the new item
	// at the tail.
	DropOldest
	// DropNewest rejects the incoming item.
	DropNewest
)

func (p QueuePolicy) String() string {
	switch p {
	case Blocking:
		return "blocking"
	case DropOldest:
		return "drop-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// ConcurrencyPolicy configures the per-edge worker pool that wraps a
// Transform (spec.md §4.5).
type ConcurrencyPolicy struct {
	Policy                 QueuePolicy
	MaxDegreeOfParallelism int
	MaxQueueLength         int
	// PreserveOrder re-orders worker outputs back into input order using
	// a small pending-output window. Optional extension (spec.md §4.5,
	// §9 Open Questions).
	PreserveOrder bool
}

// DefaultConcurrencyPolicy runs a transform single-threaded with a
// blocking queue of 64 items, which trivially preserves FIFO
// (spec.md §8, property 3).
func DefaultConcurrencyPolicy() ConcurrencyPolicy {
	return ConcurrencyPolicy{
		Policy:                 Blocking,
		MaxDegreeOfParallelism: 1,
		MaxQueueLength:         64,
	}
}

// RetryPolicy configures ItemRetry (spec.md §4.6).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
	// ContinueOnError drops an item whose retries are exhausted instead
	// of failing the node.
	ContinueOnError bool
}

// NoRetry disables retries: a single attempt, failures propagate
// immediately.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// ObservabilityOptions gates which scope recordings are performed
// (spec.md §4.9).
type ObservabilityOptions struct {
	RecordTiming             bool
	RecordItemCounts         bool
	RecordMemoryUsage        bool
	RecordThreadInfo         bool
	RecordPerformanceMetrics bool
}

// DefaultObservability is the "Default" preset: Timing, ItemCounts,
// ThreadInfo, PerformanceMetrics.
func DefaultObservability() ObservabilityOptions {
	return ObservabilityOptions{
		RecordTiming:             true,
		RecordItemCounts:         true,
		RecordThreadInfo:         true,
		RecordPerformanceMetrics: true,
	}
}

// FullObservability turns every flag on.
func FullObservability() ObservabilityOptions {
	return ObservabilityOptions{
		RecordTiming:             true,
		RecordItemCounts:         true,
		RecordMemoryUsage:        true,
		RecordThreadInfo:         true,
		RecordPerformanceMetrics: true,
	}
}

// MinimalObservability records only timing.
func MinimalObservability() ObservabilityOptions {
	return ObservabilityOptions{RecordTiming: true}
}

// DisabledObservability turns every flag off.
func DisabledObservability() ObservabilityOptions {
	return ObservabilityOptions{}
}

// edgeAnnotation is the resolved, typed bundle of annotations attached
// to a single edge, assembled by the builder from whatever the user
// passed to Annotate or a With* EdgeOption. extra holds any annotation
// keyed outside the four well-known slots, preserved but otherwise
// unread by the core (spec.md §4.2: "user code may also attach
// arbitrary annotations under other keys").
type edgeAnnotation struct {
	concurrency   ConcurrencyPolicy
	retry         RetryPolicy
	observability ObservabilityOptions
	timeout       time.Duration // zero means no timeout
	extra         map[AnnotationKey]any
}

func defaultEdgeAnnotation() edgeAnnotation {
	return edgeAnnotation{
		concurrency:   DefaultConcurrencyPolicy(),
		retry:         NoRetry(),
		observability: DefaultObservability(),
	}
}
