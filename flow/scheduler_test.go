package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_LinearPipeline(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", numbersSource([]int{1, 2, 3, 4, 5}))
	AddTransform(b, "double", func(ctx context.Context, rc *RunContext, n int) (int, error) { return n * 2, nil })

	var mu sync.Mutex
	var got []int
	AddSink(b, "sink", func(ctx context.Context, rc *RunContext, n int) error {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		return nil
	})
	b.Connect("src", "double")
	b.Connect("double", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	result := NewRunner(g).Run(context.Background(), RunOptions{})
	require.NoError(t, result.Err)
	assert.NotEmpty(t, result.RunID)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{2, 4, 6, 8, 10}, got)
}

func TestRunner_FanOutDeliversToEveryConsumer(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", numbersSource([]int{1, 2, 3}))

	var sumA, sumB atomic.Int64
	AddSink(b, "sinkA", func(ctx context.Context, rc *RunContext, n int) error {
		sumA.Add(int64(n))
		return nil
	})
	AddSink(b, "sinkB", func(ctx context.Context, rc *RunContext, n int) error {
		sumB.Add(int64(n))
		return nil
	})
	b.Connect("src", "sinkA")
	b.Connect("src", "sinkB")

	g, err := b.Build()
	require.NoError(t, err)

	result := NewRunner(g).Run(context.Background(), RunOptions{})
	require.NoError(t, result.Err)
	assert.EqualValues(t, 6, sumA.Load())
	assert.EqualValues(t, 6, sumB.Load())
}

func TestRunner_TransformErrorPropagatesAndCancelsRun(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", numbersSource([]int{1, 2, 3}))
	boom := errors.New("boom")
	AddTransform(b, "fail", func(ctx context.Context, rc *RunContext, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	AddSink(b, "sink", func(ctx context.Context, rc *RunContext, n int) error { return nil })
	b.Connect("src", "fail")
	b.Connect("fail", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	result := NewRunner(g).Run(context.Background(), RunOptions{})
	require.Error(t, result.Err)
	var execErr *NodeExecutionError
	assert.ErrorAs(t, result.Err, &execErr)
	assert.Equal(t, "fail", execErr.NodeID)
}

func TestRunner_RetryRecoversTransientFailure(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", numbersSource([]int{1}))

	var attempts atomic.Int64
	AddTransform(b, "flaky", func(ctx context.Context, rc *RunContext, n int) (int, error) {
		if attempts.Add(1) < 3 {
			return 0, errors.New("transient")
		}
		return n, nil
	})
	AddSink(b, "sink", func(ctx context.Context, rc *RunContext, n int) error { return nil })

	b.Connect("src", "flaky", WithRetry(RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}))
	b.Connect("flaky", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	result := NewRunner(g).Run(context.Background(), RunOptions{})
	require.NoError(t, result.Err)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestRunner_ContinueOnErrorDropsFailedItem(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", numbersSource([]int{1, 2, 3}))
	AddTransform(b, "fail", func(ctx context.Context, rc *RunContext, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("bad item")
		}
		return n, nil
	})

	var mu sync.Mutex
	var got []int
	AddSink(b, "sink", func(ctx context.Context, rc *RunContext, n int) error {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		return nil
	})

	b.Connect("src", "fail", WithRetry(RetryPolicy{MaxAttempts: 1, ContinueOnError: true}))
	b.Connect("fail", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	result := NewRunner(g).Run(context.Background(), RunOptions{})
	require.NoError(t, result.Err)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{1, 3}, got)
}

type observerSpy struct {
	NopObserver
	mu        sync.Mutex
	started   []string
	completed []string
}

func (o *observerSpy) OnNodeStarted(e NodeStartedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, e.NodeID)
}

func (o *observerSpy) OnNodeCompleted(e NodeCompletedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, e.NodeID)
}

type queueMetricsSpy struct {
	NopObserver
	mu     sync.Mutex
	events []QueueMetricsEvent
}

func (o *queueMetricsSpy) OnQueueMetrics(e QueueMetricsEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func TestRunner_QueueMetricsReportedForSlowConsumer(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", func(ctx context.Context, rc *RunContext) (Pipe[int], error) {
		return FromSlice("src", []int{0, 1, 2, 3}), nil
	})
	AddSink(b, "sink", func(ctx context.Context, rc *RunContext, n int) error {
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	b.Connect("src", "sink", WithConcurrency(ConcurrencyPolicy{MaxQueueLength: 8}))

	g, err := b.Build()
	require.NoError(t, err)

	obs := &queueMetricsSpy{}
	result := NewRunner(g).Run(context.Background(), RunOptions{Observer: obs})
	require.NoError(t, result.Err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.NotEmpty(t, obs.events)
	for _, e := range obs.events {
		assert.Equal(t, "src", e.NodeID)
		assert.Equal(t, 8, e.Capacity)
	}
}

func TestRunner_ObserverSeesEveryNode(t *testing.T) {
	b := NewBuilder()
	AddSource(b, "src", numbersSource([]int{1, 2}))
	AddSink(b, "sink", func(ctx context.Context, rc *RunContext, n int) error { return nil })
	b.Connect("src", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	obs := &observerSpy{}
	result := NewRunner(g).Run(context.Background(), RunOptions{Observer: obs})
	require.NoError(t, result.Err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.ElementsMatch(t, []string{"src", "sink"}, obs.started)
	assert.ElementsMatch(t, []string{"src", "sink"}, obs.completed)
}
