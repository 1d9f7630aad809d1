// Package metrics collects and publishes per-node and per-run
// statistics for a flow.Graph execution, bridged from the flow
// package's ExecutionObserver events (spec.md §4.8-4.9).
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// NodeMetricsRecord is a point-in-time snapshot of one node's counters
// (spec.md §4.8).
type NodeMetricsRecord struct {
	NodeID       string
	ItemsIn      int64
	ItemsOut     int64
	Errors       int64
	Retries      int64
	Drops        int64
	QueueDepth   int64
	QueueCap     int64
	TotalLatency time.Duration
	LastStarted  time.Time
	LastFinished time.Time
	// Throughput and AvgItemDuration are last-writer-wins scalars
	// (spec.md §5, "Shared resources"), overwritten by recordPerformance
	// on every completion that carries items and a nonzero duration.
	Throughput      float64
	AvgItemDuration time.Duration
	// PeakMemoryDelta is the most recently observed per-node heap delta
	// (spec.md §5, "Memory accounting"). Last-writer-wins, zero unless
	// ObservabilityOptions.RecordMemoryUsage is set for the node's edge.
	PeakMemoryDelta int64
}

// PipelineMetricsRecord is a point-in-time snapshot of an entire run.
type PipelineMetricsRecord struct {
	RunID string
	Nodes []NodeMetricsRecord
	// TotalItemsProcessed is the sum of ItemsIn across every node
	// (spec.md §4.8, createPipelineMetrics).
	TotalItemsProcessed int64
	StartedAt           time.Time
	Duration            time.Duration
	Err                 error
}

// nodeCounters holds the live, concurrently-updated state for one node.
// All fields are written with atomics except LastStarted/LastFinished,
// which are last-writer-wins under mu since time.Time isn't
// atomic-friendly.
type nodeCounters struct {
	itemsIn         atomic.Int64
	itemsOut        atomic.Int64
	errors          atomic.Int64
	retries         atomic.Int64
	drops           atomic.Int64
	queueDepth      atomic.Int64
	queueCap        atomic.Int64
	latencyNs       atomic.Int64
	throughputBits  atomic.Uint64
	avgItemNs       atomic.Int64
	peakMemoryDelta atomic.Int64

	mu           sync.Mutex
	lastStarted  time.Time
	lastFinished time.Time
}

func (c *nodeCounters) snapshot(nodeID string) NodeMetricsRecord {
	c.mu.Lock()
	started, finished := c.lastStarted, c.lastFinished
	c.mu.Unlock()
	return NodeMetricsRecord{
		NodeID:          nodeID,
		ItemsIn:         c.itemsIn.Load(),
		ItemsOut:        c.itemsOut.Load(),
		Errors:          c.errors.Load(),
		Retries:         c.retries.Load(),
		Drops:           c.drops.Load(),
		QueueDepth:      c.queueDepth.Load(),
		QueueCap:        c.queueCap.Load(),
		TotalLatency:    time.Duration(c.latencyNs.Load()),
		LastStarted:     started,
		LastFinished:    finished,
		Throughput:      math.Float64frombits(c.throughputBits.Load()),
		AvgItemDuration: time.Duration(c.avgItemNs.Load()),
		PeakMemoryDelta: c.peakMemoryDelta.Load(),
	}
}

// Collector is a thread-safe, per-run accumulator of node counters. It
// shards state by node id so that unrelated nodes never contend on the
// same lock; only within a single node's counters is there any shared
// mutable state, and that state is either atomic or protected by a
// per-node mutex (spec.md §4.8, "thread-safe collector").
type Collector struct {
	runID string

	mu     sync.RWMutex
	byNode map[string]*nodeCounters
}

// NewCollector creates an empty Collector for one run.
func NewCollector(runID string) *Collector {
	return &Collector{runID: runID, byNode: make(map[string]*nodeCounters)}
}

func (c *Collector) counters(nodeID string) *nodeCounters {
	c.mu.RLock()
	nc, ok := c.byNode[nodeID]
	c.mu.RUnlock()
	if ok {
		return nc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if nc, ok := c.byNode[nodeID]; ok {
		return nc
	}
	nc = &nodeCounters{}
	c.byNode[nodeID] = nc
	return nc
}

func (c *Collector) recordStart(nodeID string, at time.Time) {
	nc := c.counters(nodeID)
	nc.mu.Lock()
	nc.lastStarted = at
	nc.mu.Unlock()
}

func (c *Collector) recordCompletion(nodeID string, at time.Time, duration time.Duration, itemsIn, itemsOut int64, err error) {
	nc := c.counters(nodeID)
	nc.mu.Lock()
	nc.lastFinished = at
	nc.mu.Unlock()
	nc.itemsIn.Add(itemsIn)
	nc.itemsOut.Add(itemsOut)
	nc.latencyNs.Add(int64(duration))
	if err != nil {
		nc.errors.Add(1)
	}
}

// recordRetry updates the node's retry counter to max(current, attempt)
// (spec.md §4.8). Attempts can be delivered out of order across retrying
// goroutines, so this is a compare-and-swap loop rather than a plain
// store.
func (c *Collector) recordRetry(nodeID string, attempt int) {
	nc := c.counters(nodeID)
	for {
		cur := nc.retries.Load()
		if int64(attempt) <= cur {
			return
		}
		if nc.retries.CompareAndSwap(cur, int64(attempt)) {
			return
		}
	}
}

// recordPerformance overwrites the node's throughput and average
// per-item duration (spec.md §4.8, "overwrite both").
func (c *Collector) recordPerformance(nodeID string, throughput float64, avgItemDuration time.Duration) {
	nc := c.counters(nodeID)
	nc.throughputBits.Store(math.Float64bits(throughput))
	nc.avgItemNs.Store(int64(avgItemDuration))
}

// recordMemoryDelta overwrites the node's peak-memory-delta scalar
// (spec.md §5, "Memory accounting").
func (c *Collector) recordMemoryDelta(nodeID string, delta int64) {
	c.counters(nodeID).peakMemoryDelta.Store(delta)
}

func (c *Collector) recordDrop(nodeID string) {
	c.counters(nodeID).drops.Add(1)
}

func (c *Collector) recordQueueDepth(nodeID string, depth, capacity int64) {
	nc := c.counters(nodeID)
	nc.queueDepth.Store(depth)
	nc.queueCap.Store(capacity)
}

// Snapshot returns a consistent-enough point-in-time view of every node
// this Collector has seen so far. Individual node snapshots are each
// internally consistent; there is no cross-node lock, so two nodes'
// records may reflect slightly different instants under concurrent
// load, which is acceptable for diagnostic metrics (spec.md §4.8).
func (c *Collector) Snapshot() []NodeMetricsRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]NodeMetricsRecord, 0, len(c.byNode))
	for id, nc := range c.byNode {
		out = append(out, nc.snapshot(id))
	}
	return out
}

// RunID returns the run this Collector is accumulating for.
func (c *Collector) RunID() string { return c.runID }
