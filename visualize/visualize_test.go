package visualize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore-go/flowcore/flow"
	"github.com/flowcore-go/flowcore/metrics"
)

func buildFanOutGraph(t *testing.T) *flow.Graph {
	t.Helper()
	b := flow.NewBuilder()
	flow.AddSource(b, "src", func(ctx context.Context, rc *flow.RunContext) (flow.Pipe[int], error) {
		return flow.FromSlice("numbers", []int{1}), nil
	})
	flow.AddSink(b, "sinkA", func(ctx context.Context, rc *flow.RunContext, n int) error { return nil })
	flow.AddSink(b, "sinkB", func(ctx context.Context, rc *flow.RunContext, n int) error { return nil })
	b.Connect("src", "sinkA")
	b.Connect("src", "sinkB")
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestTree_RendersEveryNodeOnce(t *testing.T) {
	tree := Tree(buildFanOutGraph(t))
	assert.Contains(t, tree, "src (source)")
	assert.Contains(t, tree, "sinkA (sink)")
	assert.Contains(t, tree, "sinkB (sink)")
}

func TestSummary_RendersStatusAndNodeRows(t *testing.T) {
	result := flow.Result{RunID: "run-1", Duration: 2 * time.Second}
	record := metrics.PipelineMetricsRecord{
		RunID: "run-1",
		Nodes: []metrics.NodeMetricsRecord{
			{NodeID: "src", ItemsOut: 3},
			{NodeID: "sink", ItemsIn: 3, Errors: 1},
		},
	}

	out := Summary(result, record)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "src")
	assert.Contains(t, out, "sink")
}
