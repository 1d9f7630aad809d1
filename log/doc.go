// Package log provides a simple, leveled logging interface used
// internally by the metrics package's LoggingMetricsSink.
//
// # Log Levels
//
// The package supports five log levels, in order of increasing severity:
//
//   - LogLevelDebug: Detailed debugging information for development
//   - LogLevelInfo: General informational messages about normal operation
//   - LogLevelWarn: Warning messages for potentially problematic situations
//   - LogLevelError: Error messages for failures that need attention
//   - LogLevelNone: Disables all logging output
//
// # Logger Interface
//
// The Logger interface provides four main logging methods:
//
//   - Debug: For detailed troubleshooting information
//   - Info: For general application flow information
//   - Warn: For issues that don't stop execution but need attention
//   - Error: For failures and exceptions
//
// # Example Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("pipeline starting")
//	logger.Debug("processing item: %v", item)
//	logger.Warn("queue depth approaching capacity: %d", depth)
//	logger.Error("node failed: %v", err)
//
// ## golog Integration
//
// metrics.LoggingMetricsSink accepts any Logger (a nil Logger falls back
// to DefaultLogger); pass this package's GologLogger to route its output
// through github.com/kataras/golog:
//
//	glogger := golog.New()
//	logger := log.NewGologLogger(glogger)
//	sink := metrics.NewLoggingMetricsSink(logger)
//
// # Thread Safety
//
// DefaultLogger and GologLogger are both safe for concurrent use from
// multiple goroutines, since every node in a running pipeline may log
// at once.
package log
