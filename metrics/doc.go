// Package metrics turns flow.ExecutionObserver events into per-node and
// per-run metrics records, and publishes them to pluggable sinks
// (logging, Prometheus) via CollectingObserver.
package metrics
