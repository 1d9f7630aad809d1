package metrics

import (
	"sync"
	"time"
)

// Scope is a single acquisition of a node's metrics recording, opened
// at OnNodeStarted and closed exactly once at OnNodeCompleted (spec.md
// §4.8, "scoped acquisition"). Closing a Scope more than once is a
// no-op: the first Close wins, matching the idempotent-disposal
// contract the rest of this module follows (flow.Pipe.Complete/Fail,
// flow.RunContext.Cancel).
type Scope struct {
	collector *Collector
	nodeID    string
	startedAt time.Time
	itemsIn   int64
	itemsOut  int64

	hasPerformance  bool
	throughput      float64
	avgItemDuration time.Duration

	hasMemory   bool
	memoryDelta int64

	once sync.Once
}

// beginScope opens a Scope for nodeID against collector, recording the
// start time immediately.
func beginScope(collector *Collector, nodeID string, startedAt time.Time) *Scope {
	collector.recordStart(nodeID, startedAt)
	return &Scope{collector: collector, nodeID: nodeID, startedAt: startedAt}
}

// AddItemsIn increments the scope's observed input item count. Safe to
// call repeatedly before Close.
func (s *Scope) AddItemsIn(n int64) { s.itemsIn += n }

// AddItemsOut increments the scope's observed output item count. Safe
// to call repeatedly before Close.
func (s *Scope) AddItemsOut(n int64) { s.itemsOut += n }

// RecordPerformance marks the scope to overwrite the node's throughput
// and average per-item duration on Close (spec.md §4.8, "disposal
// records end and optionally throughput and duration").
func (s *Scope) RecordPerformance(throughput float64, avgItemDuration time.Duration) {
	s.throughput = throughput
	s.avgItemDuration = avgItemDuration
	s.hasPerformance = true
}

// RecordMemoryDelta marks the scope to overwrite the node's
// peak-memory-delta scalar on Close (spec.md §5, "Memory accounting").
func (s *Scope) RecordMemoryDelta(delta int64) {
	s.memoryDelta = delta
	s.hasMemory = true
}

// Close finalizes the scope, recording its duration, item counts, and
// any marked optional recordings into the owning Collector.
func (s *Scope) Close(err error) {
	s.once.Do(func() {
		now := time.Now()
		s.collector.recordCompletion(s.nodeID, now, now.Sub(s.startedAt), s.itemsIn, s.itemsOut, err)
		if s.hasPerformance {
			s.collector.recordPerformance(s.nodeID, s.throughput, s.avgItemDuration)
		}
		if s.hasMemory {
			s.collector.recordMemoryDelta(s.nodeID, s.memoryDelta)
		}
	})
}
