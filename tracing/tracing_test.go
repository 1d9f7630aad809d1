package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"github.com/stretchr/testify/assert"

	"github.com/flowcore-go/flowcore/flow"
)

// These tests exercise the Observer against the global otel no-op
// tracer (no SDK/exporter registered): they verify the bridge drives
// the right span lifecycle calls without panicking, not span content,
// since the no-op implementation records nothing observable.
func TestObserver_NodeLifecycleDoesNotPanic(t *testing.T) {
	tracer := otel.Tracer("flowcore-test")
	obs := NewObserver(context.Background(), tracer, "test-run")

	started := time.Now()
	assert.NotPanics(t, func() {
		obs.OnNodeStarted(flow.NodeStartedEvent{RunID: "run-1", NodeID: "a", Kind: flow.KindTransform, StartedAt: started})
		obs.OnRetry(flow.RetryEvent{RunID: "run-1", NodeID: "a", Attempt: 1, Delay: time.Millisecond})
		obs.OnDrop(flow.DropEvent{RunID: "run-1", NodeID: "a", Policy: flow.DropNewest})
		obs.OnQueueMetrics(flow.QueueMetricsEvent{RunID: "run-1", NodeID: "a", Depth: 2, Capacity: 10})
		obs.OnNodeCompleted(flow.NodeCompletedEvent{RunID: "run-1", NodeID: "a", StartedAt: started, Duration: time.Millisecond})
	})

	obs.End(nil)
}

func TestObserver_EndRecordsErrorWithoutPanicking(t *testing.T) {
	tracer := otel.Tracer("flowcore-test")
	obs := NewObserver(context.Background(), tracer, "test-run")
	obs.OnNodeStarted(flow.NodeStartedEvent{RunID: "run-1", NodeID: "a", Kind: flow.KindSink, StartedAt: time.Now()})
	obs.OnNodeCompleted(flow.NodeCompletedEvent{RunID: "run-1", NodeID: "a", Err: errors.New("boom")})

	assert.NotPanics(t, func() { obs.End(errors.New("run failed")) })
}

func TestObserver_EventForUnknownNodeIsIgnored(t *testing.T) {
	tracer := otel.Tracer("flowcore-test")
	obs := NewObserver(context.Background(), tracer, "test-run")

	assert.NotPanics(t, func() {
		obs.OnRetry(flow.RetryEvent{RunID: "run-1", NodeID: "never-started"})
		obs.OnNodeCompleted(flow.NodeCompletedEvent{RunID: "run-1", NodeID: "never-started"})
	})
	obs.End(nil)
}
