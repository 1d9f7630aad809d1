package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsSink publishes node and run records as Prometheus
// metrics (spec.md §4.9 domain-stack sink). Register it with an
// existing *prometheus.Registry, or pass nil to use the default global
// registry.
type PrometheusMetricsSink struct {
	itemsIn      *prometheus.CounterVec
	itemsOut     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	retries      *prometheus.CounterVec
	drops        *prometheus.CounterVec
	nodeLatency  *prometheus.HistogramVec
	runDuration  prometheus.Histogram
	runsTotal    *prometheus.CounterVec
}

var _ NodeMetricsSink = (*PrometheusMetricsSink)(nil)
var _ PipelineMetricsSink = (*PrometheusMetricsSink)(nil)

// NewPrometheusMetricsSink creates and registers the sink's collectors
// against registerer. A nil registerer registers against
// prometheus.DefaultRegisterer.
func NewPrometheusMetricsSink(registerer prometheus.Registerer) *PrometheusMetricsSink {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	s := &PrometheusMetricsSink{
		itemsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "node_items_in_total",
			Help:      "Items consumed by a node.",
		}, []string{"node"}),
		itemsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "node_items_out_total",
			Help:      "Items produced by a node.",
		}, []string{"node"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "node_errors_total",
			Help:      "Unrecovered item failures observed by a node.",
		}, []string{"node"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "node_retries_total",
			Help:      "Retry attempts taken by a node.",
		}, []string{"node"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "node_drops_total",
			Help:      "Items dropped by a node's backpressure policy.",
		}, []string{"node"}),
		nodeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowcore",
			Name:      "node_latency_seconds",
			Help:      "Cumulative processing latency recorded per node completion.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowcore",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a full pipeline run.",
			Buckets:   prometheus.DefBuckets,
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "runs_total",
			Help:      "Completed pipeline runs, partitioned by outcome.",
		}, []string{"outcome"}),
	}

	registerer.MustRegister(s.itemsIn, s.itemsOut, s.errors, s.retries, s.drops, s.nodeLatency, s.runDuration, s.runsTotal)
	return s
}

// PublishNode implements NodeMetricsSink.
func (s *PrometheusMetricsSink) PublishNode(_ string, record NodeMetricsRecord) {
	s.itemsIn.WithLabelValues(record.NodeID).Add(float64(record.ItemsIn))
	s.itemsOut.WithLabelValues(record.NodeID).Add(float64(record.ItemsOut))
	s.errors.WithLabelValues(record.NodeID).Add(float64(record.Errors))
	s.retries.WithLabelValues(record.NodeID).Add(float64(record.Retries))
	s.drops.WithLabelValues(record.NodeID).Add(float64(record.Drops))
	s.nodeLatency.WithLabelValues(record.NodeID).Observe(record.TotalLatency.Seconds())
}

// PublishPipeline implements PipelineMetricsSink.
func (s *PrometheusMetricsSink) PublishPipeline(record PipelineMetricsRecord) {
	s.runDuration.Observe(record.Duration.Seconds())
	outcome := "success"
	if record.Err != nil {
		outcome = "failure"
	}
	s.runsTotal.WithLabelValues(outcome).Inc()
}
