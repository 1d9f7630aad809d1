package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordCompletionAccumulates(t *testing.T) {
	c := NewCollector("run-1")
	c.recordStart("node-a", time.Now())
	c.recordCompletion("node-a", time.Now(), 5*time.Millisecond, 10, 9, nil)
	c.recordCompletion("node-a", time.Now(), 5*time.Millisecond, 3, 3, errors.New("boom"))

	snap := c.Snapshot()
	require := assert.New(t)
	require.Len(snap, 1)
	require.Equal("node-a", snap[0].NodeID)
	require.EqualValues(13, snap[0].ItemsIn)
	require.EqualValues(12, snap[0].ItemsOut)
	require.EqualValues(1, snap[0].Errors)
}

func TestCollector_RetriesAndDropsAreIndependentPerNode(t *testing.T) {
	c := NewCollector("run-1")
	c.recordRetry("a", 1)
	c.recordRetry("a", 2)
	c.recordDrop("b")

	byID := map[string]NodeMetricsRecord{}
	for _, r := range c.Snapshot() {
		byID[r.NodeID] = r
	}
	assert.EqualValues(t, 2, byID["a"].Retries)
	assert.EqualValues(t, 0, byID["a"].Drops)
	assert.EqualValues(t, 1, byID["b"].Drops)
}

// TestCollector_RecordRetryTracksMaxAttempt exercises spec.md §4.8's
// "updates the retry counter to max(current, attempt)" and testable
// property 7: the stored value is the maximum attempt delivered, not a
// running count of events, even when attempts arrive out of order.
func TestCollector_RecordRetryTracksMaxAttempt(t *testing.T) {
	c := NewCollector("run-1")
	c.recordRetry("flaky", 1)
	c.recordRetry("flaky", 2)
	c.recordRetry("flaky", 1)

	snap := c.Snapshot()
	assert.Len(t, snap, 1)
	assert.EqualValues(t, 2, snap[0].Retries)
}

func TestCollector_RecordPerformanceOverwrites(t *testing.T) {
	c := NewCollector("run-1")
	c.recordPerformance("node-a", 10.0, 100*time.Millisecond)
	c.recordPerformance("node-a", 20.0, 50*time.Millisecond)

	snap := c.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, 20.0, snap[0].Throughput)
	assert.Equal(t, 50*time.Millisecond, snap[0].AvgItemDuration)
}

func TestCollector_RecordMemoryDeltaOverwrites(t *testing.T) {
	c := NewCollector("run-1")
	c.recordMemoryDelta("node-a", 1024)
	c.recordMemoryDelta("node-a", 2048)

	snap := c.Snapshot()
	assert.Len(t, snap, 1)
	assert.EqualValues(t, 2048, snap[0].PeakMemoryDelta)
}

func TestScope_CloseIsIdempotent(t *testing.T) {
	c := NewCollector("run-1")
	s := beginScope(c, "node-a", time.Now())
	s.AddItemsIn(5)
	s.AddItemsOut(5)
	s.Close(nil)
	s.Close(errors.New("ignored, already closed"))

	snap := c.Snapshot()
	assert := assert.New(t)
	assert.Len(snap, 1)
	assert.EqualValues(5, snap[0].ItemsIn)
	assert.EqualValues(0, snap[0].Errors)
}

func TestScope_RecordPerformanceAndMemoryDeltaAreOptional(t *testing.T) {
	c := NewCollector("run-1")
	s := beginScope(c, "node-a", time.Now())
	s.AddItemsIn(10)
	s.AddItemsOut(10)
	s.RecordPerformance(100.0, time.Millisecond)
	s.RecordMemoryDelta(4096)
	s.Close(nil)

	snap := c.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, 100.0, snap[0].Throughput)
	assert.Equal(t, time.Millisecond, snap[0].AvgItemDuration)
	assert.EqualValues(t, 4096, snap[0].PeakMemoryDelta)
}
