// Package tracing bridges flow.ExecutionObserver events to OpenTelemetry
// spans: one span per run, one child span per node (spec.md §4.8
// supplement, "a tracing-backed observer").
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcore-go/flowcore/flow"
)

// Observer implements flow.ExecutionObserver by opening one root span
// per run and one child span per node, using an otel Tracer supplied by
// the host application's SDK setup. Observer itself never touches an
// SDK TracerProvider: the caller decides how spans are exported.
type Observer struct {
	tracer trace.Tracer
	ctx    context.Context

	mu        sync.Mutex
	runSpan   trace.Span
	nodeSpans map[string]nodeSpan
}

type nodeSpan struct {
	span trace.Span
	ctx  context.Context
}

var _ flow.ExecutionObserver = (*Observer)(nil)

// NewObserver starts a root span named runName under tracer, rooted in
// ctx, and returns an Observer that attaches every subsequent node span
// as its child. The caller is responsible for ending the root span via
// Observer.End once Runner.Run returns.
func NewObserver(ctx context.Context, tracer trace.Tracer, runName string) *Observer {
	rootCtx, rootSpan := tracer.Start(ctx, runName)
	return &Observer{
		tracer:    tracer,
		ctx:       rootCtx,
		runSpan:   rootSpan,
		nodeSpans: make(map[string]nodeSpan),
	}
}

// End closes the run's root span, recording err as its final status if
// non-nil.
func (o *Observer) End(err error) {
	if err != nil {
		o.runSpan.RecordError(err)
		o.runSpan.SetStatus(codes.Error, err.Error())
	}
	o.runSpan.End()
}

func (o *Observer) OnNodeStarted(e flow.NodeStartedEvent) {
	nodeCtx, span := o.tracer.Start(o.ctx, e.NodeID,
		trace.WithAttributes(
			attribute.String("flow.run_id", e.RunID),
			attribute.String("flow.node_kind", e.Kind.String()),
		),
	)
	o.mu.Lock()
	o.nodeSpans[e.NodeID] = nodeSpan{span: span, ctx: nodeCtx}
	o.mu.Unlock()
}

func (o *Observer) OnNodeCompleted(e flow.NodeCompletedEvent) {
	o.mu.Lock()
	ns, ok := o.nodeSpans[e.NodeID]
	delete(o.nodeSpans, e.NodeID)
	o.mu.Unlock()
	if !ok {
		return
	}

	ns.span.SetAttributes(
		attribute.Int64("flow.items_in", e.ItemsIn),
		attribute.Int64("flow.items_out", e.ItemsOut),
	)
	if e.Err != nil {
		ns.span.RecordError(e.Err)
		ns.span.SetStatus(codes.Error, e.Err.Error())
	} else if e.Cancelled {
		ns.span.SetStatus(codes.Error, "cancelled")
	} else {
		ns.span.SetStatus(codes.Ok, "")
	}
	ns.span.End()
}

func (o *Observer) OnRetry(e flow.RetryEvent) {
	o.mu.Lock()
	ns, ok := o.nodeSpans[e.NodeID]
	o.mu.Unlock()
	if !ok {
		return
	}
	ns.span.AddEvent("retry", trace.WithAttributes(
		attribute.Int("flow.attempt", e.Attempt),
		attribute.String("flow.delay", e.Delay.String()),
	))
}

func (o *Observer) OnDrop(e flow.DropEvent) {
	o.mu.Lock()
	ns, ok := o.nodeSpans[e.NodeID]
	o.mu.Unlock()
	if !ok {
		return
	}
	ns.span.AddEvent("drop", trace.WithAttributes(
		attribute.String("flow.policy", e.Policy.String()),
	))
}

func (o *Observer) OnQueueMetrics(e flow.QueueMetricsEvent) {
	o.mu.Lock()
	ns, ok := o.nodeSpans[e.NodeID]
	o.mu.Unlock()
	if !ok {
		return
	}
	ns.span.SetAttributes(
		attribute.Int("flow.queue_depth", e.Depth),
		attribute.Int("flow.queue_capacity", e.Capacity),
	)
}
