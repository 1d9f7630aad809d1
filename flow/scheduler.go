package flow

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultQueueCapacity backs an edge whose ConcurrencyPolicy never set
// MaxQueueLength explicitly.
const defaultQueueCapacity = 64

// queueMetricsInterval is the scheduler-determined cadence at which
// OnQueueMetrics fires (spec.md §4.9 leaves the cadence to the runtime).
const queueMetricsInterval = 250 * time.Millisecond

// depthReporter is implemented by Pipe backends that can report their
// current buffered length and capacity. staticPipe does not implement
// it: a pre-materialized source has no meaningful backpressure depth to
// report, so it is simply skipped by the poller below.
type depthReporter interface {
	depth() (int, int)
}

// Runner executes a Graph (spec.md §4.4). A Runner is stateless and may
// drive the same Graph through any number of concurrent Run calls.
type Runner struct {
	graph *Graph
}

// NewRunner returns a Runner bound to graph.
func NewRunner(graph *Graph) *Runner {
	return &Runner{graph: graph}
}

// RunOptions configures a single Runner.Run invocation.
type RunOptions struct {
	// Observer receives lifecycle events for this run. Defaults to
	// NopObserver.
	Observer ExecutionObserver
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Duration time.Duration
	Err      error
}

// Run drives every node in the graph to completion (spec.md §4.4). It
// returns once every node has terminated: a graph terminates
// successfully when every Sink has observed end-of-stream with no
// error; it terminates with the first NodeExecutionError encountered,
// at which point every other node's context is cancelled so in-flight
// work winds down instead of running to its own natural end.
func (r *Runner) Run(ctx context.Context, opts RunOptions) Result {
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	rc, runCtx := newRunContext(ctx, observer)
	start := time.Now()

	grp, gctx := errgroup.WithContext(runCtx)

	// taps[e] is the boxed Pipe feeding the consumer side of edge e,
	// resolved from the producer's newOutputPipes before any node
	// starts running.
	taps := make(map[*edge]any, len(r.graph.inEdge))

	for _, id := range r.graph.topological {
		n := r.graph.nodes[id]
		outEdges := r.graph.outEdges[id]

		specs := make([]edgeQueueSpec, len(outEdges))
		for i, e := range outEdges {
			queueCap := e.annotation.concurrency.MaxQueueLength
			if queueCap <= 0 {
				queueCap = defaultQueueCapacity
			}
			specs[i] = edgeQueueSpec{
				capacity: queueCap,
				policy:   e.annotation.concurrency.Policy,
				onDrop: func() {
					observer.OnDrop(DropEvent{RunID: rc.RunID, NodeID: e.to, Policy: e.annotation.concurrency.Policy})
				},
			}
		}

		outs := n.newOutputPipes(specs)
		for i, e := range outEdges {
			taps[e] = outs[i]
		}
	}

	queueMetricsDone := make(chan struct{})
	go r.pollQueueMetrics(gctx, rc, observer, taps, queueMetricsDone)

	for _, id := range r.graph.topological {
		id := id
		n := r.graph.nodes[id]

		var in any
		ann := defaultEdgeAnnotation()
		if e, ok := r.graph.inEdge[id]; ok {
			in = taps[e]
			ann = e.annotation
		}

		outs := make([]any, 0, len(r.graph.outEdges[id]))
		for _, e := range r.graph.outEdges[id] {
			outs = append(outs, taps[e])
		}

		grp.Go(func() error {
			observer.OnNodeStarted(NodeStartedEvent{RunID: rc.RunID, NodeID: id, Kind: n.kind(), StartedAt: time.Now()})
			nodeStart := time.Now()

			var memBefore runtime.MemStats
			if ann.observability.RecordMemoryUsage {
				runtime.ReadMemStats(&memBefore)
			}

			itemsIn, itemsOut, err := n.run(gctx, rc, in, outs, ann)

			var memDelta int64
			if ann.observability.RecordMemoryUsage {
				var memAfter runtime.MemStats
				runtime.ReadMemStats(&memAfter)
				memDelta = int64(memAfter.HeapAlloc) - int64(memBefore.HeapAlloc)
			}

			observer.OnNodeCompleted(NodeCompletedEvent{
				RunID:            rc.RunID,
				NodeID:           id,
				Kind:             n.kind(),
				StartedAt:        nodeStart,
				Duration:         time.Since(nodeStart),
				ItemsIn:          itemsIn,
				ItemsOut:         itemsOut,
				Err:              err,
				Cancelled:        gctx.Err() != nil && err == nil,
				MemoryDeltaBytes: memDelta,
				Observability:    ann.observability,
			})
			return err
		})
	}

	err := grp.Wait()
	close(queueMetricsDone)
	if err == nil {
		// Every node wound down cleanly on its own terms, but if that was
		// only because the caller's own ctx was cancelled (a timeout or an
		// explicit Cancel from outside this Run call), report that instead
		// of a false success: source, transform, sink, and unbatcher nodes
		// observing ctx.Done() return nil errors by design (see
		// outputSet.Cancel), since from their perspective nothing failed.
		// The batcher returns a NodeExecutionError instead.
		err = context.Cause(ctx)
	}
	rc.Cancel(err)

	return Result{RunID: rc.RunID, Duration: time.Since(start), Err: err}
}

// pollQueueMetrics reports each edge's buffered depth and capacity to
// observer on a fixed cadence until done is closed or ctx is cancelled
// (spec.md §4.9). Edges whose Pipe does not implement depthReporter
// (e.g. a materialized source's staticPipe) are skipped.
func (r *Runner) pollQueueMetrics(ctx context.Context, rc *RunContext, observer ExecutionObserver, taps map[*edge]any, done chan struct{}) {
	ticker := time.NewTicker(queueMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for e, tap := range taps {
				dr, ok := tap.(depthReporter)
				if !ok {
					continue
				}
				depth, capacity := dr.depth()
				observer.OnQueueMetrics(QueueMetricsEvent{
					RunID:     rc.RunID,
					NodeID:    e.from,
					Depth:     depth,
					Capacity:  capacity,
					Timestamp: time.Now(),
				})
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
