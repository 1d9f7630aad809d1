package metrics

import (
	"sync"
	"time"

	"github.com/flowcore-go/flowcore/flow"
)

// CollectingObserver implements flow.ExecutionObserver, feeding every
// event into a Collector via a per-node Scope and, once complete,
// fanning the resulting records out to a set of sinks (spec.md §4.8-4.9,
// "observer-to-collector bridge").
type CollectingObserver struct {
	collector    *Collector
	nodeSinks    []NodeMetricsSink
	pipelineSink []PipelineMetricsSink

	mu     sync.Mutex
	scopes map[string]*Scope
}

var _ flow.ExecutionObserver = (*CollectingObserver)(nil)

// NewCollectingObserver creates a bridge observer for one run, backed
// by a fresh Collector.
func NewCollectingObserver(runID string, nodeSinks []NodeMetricsSink, pipelineSinks []PipelineMetricsSink) *CollectingObserver {
	return &CollectingObserver{
		collector:    NewCollector(runID),
		nodeSinks:    nodeSinks,
		pipelineSink: pipelineSinks,
		scopes:       make(map[string]*Scope),
	}
}

// Collector exposes the live Collector backing this observer, useful
// for polling intermediate snapshots while the run is still in flight.
func (o *CollectingObserver) Collector() *Collector { return o.collector }

// OnNodeStarted opens the node's Scope, the sole per-node recording
// seam from here on (spec.md §4.8, "Scope is a scoped acquisition over
// a node").
func (o *CollectingObserver) OnNodeStarted(e flow.NodeStartedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scopes[e.NodeID] = beginScope(o.collector, e.NodeID, e.StartedAt)
}

// OnNodeCompleted closes the node's Scope. A completion without a prior
// start is silently ignored, guarding against stray events (spec.md
// §4.8).
func (o *CollectingObserver) OnNodeCompleted(e flow.NodeCompletedEvent) {
	o.mu.Lock()
	s, ok := o.scopes[e.NodeID]
	if ok {
		delete(o.scopes, e.NodeID)
	}
	o.mu.Unlock()
	if !ok {
		return
	}

	s.AddItemsIn(e.ItemsIn)
	s.AddItemsOut(e.ItemsOut)
	if e.Observability.RecordPerformanceMetrics && e.ItemsIn > 0 && e.Duration > 0 {
		throughput := float64(e.ItemsIn) / e.Duration.Seconds()
		avgItem := e.Duration / time.Duration(e.ItemsIn)
		s.RecordPerformance(throughput, avgItem)
	}
	if e.Observability.RecordMemoryUsage {
		s.RecordMemoryDelta(e.MemoryDeltaBytes)
	}
	s.Close(e.Err)

	record := o.nodeRecord(e.NodeID)
	for _, sink := range o.nodeSinks {
		sink.PublishNode(e.RunID, record)
	}
}

func (o *CollectingObserver) OnRetry(e flow.RetryEvent) {
	o.collector.recordRetry(e.NodeID, e.Attempt)
}

func (o *CollectingObserver) OnDrop(e flow.DropEvent) {
	o.collector.recordDrop(e.NodeID)
}

func (o *CollectingObserver) OnQueueMetrics(e flow.QueueMetricsEvent) {
	o.collector.recordQueueDepth(e.NodeID, int64(e.Depth), int64(e.Capacity))
}

// Finish publishes the final PipelineMetricsRecord to every pipeline
// sink. Call it once after Runner.Run returns.
func (o *CollectingObserver) Finish(runID string, duration time.Duration, err error) {
	nodes := o.collector.Snapshot()
	var totalItemsProcessed int64
	for _, n := range nodes {
		totalItemsProcessed += n.ItemsIn
	}
	record := PipelineMetricsRecord{
		RunID:               runID,
		Nodes:               nodes,
		TotalItemsProcessed: totalItemsProcessed,
		StartedAt:           time.Now().Add(-duration),
		Duration:            duration,
		Err:                 err,
	}
	for _, sink := range o.pipelineSink {
		sink.PublishPipeline(record)
	}
}

func (o *CollectingObserver) nodeRecord(nodeID string) NodeMetricsRecord {
	for _, r := range o.collector.Snapshot() {
		if r.NodeID == nodeID {
			return r
		}
	}
	return NodeMetricsRecord{NodeID: nodeID}
}
