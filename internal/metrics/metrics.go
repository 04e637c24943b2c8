// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the pipeline.
//
// It exposes a narrow interface (Backend) for counters and durations, with a
// global, pluggable backend defaulting to a no-op implementation, so metric
// calls are always safe even when nothing is configured. Concrete systems
// (Prometheus Pushgateway) live in subpackages, mirroring the storage
// registry pattern: the core stages depend only on this package.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface implemented by metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records an elapsed time for a named stage.
	ObserveDuration(name string, d time.Duration, labels Labels)
	// Flush pushes buffered metrics if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)            {}
func (nopBackend) ObserveDuration(string, time.Duration, Labels) {}
func (nopBackend) Flush() error                                  { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// IncCounter increments a counter on the active backend.
func IncCounter(name string, delta float64, labels Labels) {
	backend.IncCounter(name, delta, labels)
}

// ObserveDuration records a stage duration on the active backend.
func ObserveDuration(name string, d time.Duration, labels Labels) {
	backend.ObserveDuration(name, d, labels)
}

// Flush flushes the active backend.
func Flush() error { return backend.Flush() }

// Metric names emitted by the pipeline.
const (
	RecordsRead   = "etl_records_read_total"     // labels: source
	RowsWritten   = "etl_rows_written_total"     // labels: table
	StageDuration = "etl_stage_duration_seconds" // labels: stage
)
