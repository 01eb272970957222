package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records query latency and failures. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics registers the query collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "placehub",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Database query latency by statement type.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"type"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "placehub",
				Subsystem: "db",
				Name:      "query_errors_total",
				Help:      "Failed database statements by statement type.",
			},
			[]string{"type"},
		),
	}
	reg.MustRegister(m.duration, m.errors)
	return m
}

// RecordQuery records one statement.
func (m *Metrics) RecordQuery(queryType string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(queryType).Observe(duration.Seconds())
	if err != nil {
		m.errors.WithLabelValues(queryType).Inc()
	}
}
