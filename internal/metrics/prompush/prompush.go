// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A batch job has nothing to scrape once it exits, so metrics are collected
// in a private registry and pushed to a Pushgateway on Flush. All
// Prometheus-specific dependencies stay inside this package; the rest of the
// project only sees metrics.Backend.
package prompush

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/jrwils/sparkify-datalake/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	jobName    string
	gatewayURL string
	reg        *prometheus.Registry

	records  *prometheus.CounterVec // etl_records_read_total
	rows     *prometheus.CounterVec // etl_rows_written_total
	duration *prometheus.SummaryVec // etl_stage_duration_seconds
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sparkify_etl"
	}

	reg := prometheus.NewRegistry()

	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.RecordsRead,
		Help: "Raw records read per input source.",
	}, []string{"source"})

	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.RowsWritten,
		Help: "Rows written per output table.",
	}, []string{"table"})

	duration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       metrics.StageDuration,
		Help:       "Duration of pipeline stages in seconds.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"stage"})

	for _, c := range []prometheus.Collector{records, rows, duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register: %w", err)
		}
	}

	return &Backend{
		jobName:    jobName,
		gatewayURL: gatewayURL,
		reg:        reg,
		records:    records,
		rows:       rows,
		duration:   duration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.RecordsRead:
		b.records.WithLabelValues(labels["source"]).Add(delta)
	case metrics.RowsWritten:
		b.rows.WithLabelValues(labels["table"]).Add(delta)
	}
}

func (b *Backend) ObserveDuration(name string, d time.Duration, labels metrics.Labels) {
	if name == metrics.StageDuration {
		b.duration.WithLabelValues(labels["stage"]).Observe(d.Seconds())
	}
}

// Flush pushes the collected metrics to the Pushgateway, replacing any
// previous push for the same job.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
