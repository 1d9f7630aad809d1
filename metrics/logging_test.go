package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type capturingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *capturingLogger) record(level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, v...))
}

func (l *capturingLogger) Debug(format string, v ...any) { l.record("DEBUG", format, v...) }
func (l *capturingLogger) Info(format string, v ...any)  { l.record("INFO", format, v...) }
func (l *capturingLogger) Warn(format string, v ...any)  { l.record("WARN", format, v...) }
func (l *capturingLogger) Error(format string, v ...any) { l.record("ERROR", format, v...) }

func (l *capturingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func TestLoggingMetricsSink_PublishNodeLevelDependsOnErrors(t *testing.T) {
	logger := &capturingLogger{}
	sink := NewLoggingMetricsSink(logger)

	sink.PublishNode("run-1", NodeMetricsRecord{NodeID: "a", ItemsIn: 2, ItemsOut: 2})
	sink.PublishNode("run-1", NodeMetricsRecord{NodeID: "b", Errors: 1})

	lines := logger.snapshot()
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[1], "WARN")
}

func TestLoggingMetricsSink_PublishPipelineReflectsOutcome(t *testing.T) {
	logger := &capturingLogger{}
	sink := NewLoggingMetricsSink(logger)

	sink.PublishPipeline(PipelineMetricsRecord{RunID: "run-1", Duration: time.Second})
	sink.PublishPipeline(PipelineMetricsRecord{RunID: "run-1", Duration: time.Second, Err: fmt.Errorf("boom")})

	lines := logger.snapshot()
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[1], "ERROR")
}

func TestNewLoggingMetricsSink_NilLoggerFallsBackToDefault(t *testing.T) {
	sink := NewLoggingMetricsSink(nil)
	assert.NotPanics(t, func() {
		sink.PublishNode("run-1", NodeMetricsRecord{NodeID: "a"})
	})
}
