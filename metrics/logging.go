package metrics

import (
	"github.com/flowcore-go/flowcore/log"
)

// LoggingMetricsSink writes every published record through a
// log.Logger, one line per node completion and one summary line per
// run (spec.md §4.9 default sink).
type LoggingMetricsSink struct {
	logger log.Logger
}

var (
	_ NodeMetricsSink     = (*LoggingMetricsSink)(nil)
	_ PipelineMetricsSink = (*LoggingMetricsSink)(nil)
)

// NewLoggingMetricsSink wraps logger as a metrics sink. A nil logger
// falls back to log.NewDefaultLogger(log.LogLevelInfo).
func NewLoggingMetricsSink(logger log.Logger) *LoggingMetricsSink {
	if logger == nil {
		logger = log.NewDefaultLogger(log.LogLevelInfo)
	}
	return &LoggingMetricsSink{logger: logger}
}

// PublishNode implements NodeMetricsSink.
func (s *LoggingMetricsSink) PublishNode(runID string, record NodeMetricsRecord) {
	if record.Errors > 0 {
		s.logger.Warn("run=%s node=%s in=%d out=%d errors=%d retries=%d drops=%d latency=%s",
			runID, record.NodeID, record.ItemsIn, record.ItemsOut, record.Errors, record.Retries, record.Drops, record.TotalLatency)
		return
	}
	s.logger.Info("run=%s node=%s in=%d out=%d retries=%d drops=%d latency=%s",
		runID, record.NodeID, record.ItemsIn, record.ItemsOut, record.Retries, record.Drops, record.TotalLatency)
}

// PublishPipeline implements PipelineMetricsSink.
func (s *LoggingMetricsSink) PublishPipeline(record PipelineMetricsRecord) {
	if record.Err != nil {
		s.logger.Error("run=%s duration=%s nodes=%d failed: %v", record.RunID, record.Duration, len(record.Nodes), record.Err)
		return
	}
	s.logger.Info("run=%s duration=%s nodes=%d completed", record.RunID, record.Duration, len(record.Nodes))
}
