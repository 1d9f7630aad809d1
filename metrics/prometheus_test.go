package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := &dto.Metric{}
	require.NoError(t, (<-ch).Write(m))
	return m.GetCounter().GetValue()
}

func TestPrometheusMetricsSink_PublishNodeIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusMetricsSink(reg)

	sink.PublishNode("run-1", NodeMetricsRecord{
		NodeID:   "a",
		ItemsIn:  10,
		ItemsOut: 8,
		Errors:   2,
		Retries:  3,
		Drops:    1,
	})

	require.Equal(t, float64(10), counterValue(t, sink.itemsIn.WithLabelValues("a")))
	require.Equal(t, float64(8), counterValue(t, sink.itemsOut.WithLabelValues("a")))
	require.Equal(t, float64(2), counterValue(t, sink.errors.WithLabelValues("a")))
	require.Equal(t, float64(3), counterValue(t, sink.retries.WithLabelValues("a")))
	require.Equal(t, float64(1), counterValue(t, sink.drops.WithLabelValues("a")))
}

func TestPrometheusMetricsSink_PublishPipelineLabelsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusMetricsSink(reg)

	sink.PublishPipeline(PipelineMetricsRecord{Duration: time.Second})
	sink.PublishPipeline(PipelineMetricsRecord{Duration: time.Second, Err: errors.New("boom")})

	require.Equal(t, float64(1), counterValue(t, sink.runsTotal.WithLabelValues("success")))
	require.Equal(t, float64(1), counterValue(t, sink.runsTotal.WithLabelValues("failure")))
}
