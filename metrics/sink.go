package metrics

// NodeMetricsSink receives a NodeMetricsRecord each time a node
// finishes (spec.md §4.9, pluggable metrics sinks).
type NodeMetricsSink interface {
	PublishNode(runID string, record NodeMetricsRecord)
}

// PipelineMetricsSink receives a PipelineMetricsRecord once a run
// finishes.
type PipelineMetricsSink interface {
	PublishPipeline(record PipelineMetricsRecord)
}

// NodeMetricsSinkFunc adapts a function to NodeMetricsSink.
type NodeMetricsSinkFunc func(runID string, record NodeMetricsRecord)

// PublishNode implements NodeMetricsSink.
func (f NodeMetricsSinkFunc) PublishNode(runID string, record NodeMetricsRecord) {
	f(runID, record)
}

// PipelineMetricsSinkFunc adapts a function to PipelineMetricsSink.
type PipelineMetricsSinkFunc func(record PipelineMetricsRecord)

// PublishPipeline implements PipelineMetricsSink.
func (f PipelineMetricsSinkFunc) PublishPipeline(record PipelineMetricsRecord) {
	f(record)
}
