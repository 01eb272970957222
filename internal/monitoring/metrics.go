package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BadgeMetrics tracks badge evaluation and awards. A nil *BadgeMetrics is
// valid and records nothing.
type BadgeMetrics struct {
	awards      *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewBadgeMetrics registers the badge collectors with reg.
func NewBadgeMetrics(reg prometheus.Registerer) *BadgeMetrics {
	m := &BadgeMetrics{
		awards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "placehub",
			Subsystem: "badges",
			Name:      "awards_total",
			Help:      "Badges newly awarded, by badge.",
		}, []string{"badge"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "placehub",
			Subsystem: "badges",
			Name:      "evaluations_total",
			Help:      "Badge evaluations run, by trigger.",
		}, []string{"trigger"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "placehub",
			Subsystem: "badges",
			Name:      "evaluation_failures_total",
			Help:      "Badge evaluations that returned an error, by trigger.",
		}, []string{"trigger"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "placehub",
			Subsystem: "badges",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating badge rules, by trigger.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
	}
	reg.MustRegister(m.awards, m.evaluations, m.failures, m.duration)
	return m
}

// RecordAward counts a badge that was newly granted.
func (m *BadgeMetrics) RecordAward(badgeID string) {
	if m == nil {
		return
	}
	m.awards.WithLabelValues(badgeID).Inc()
}

// ObserveEvaluation records one trigger run.
func (m *BadgeMetrics) ObserveEvaluation(trigger string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(trigger).Inc()
	m.duration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	if err != nil {
		m.failures.WithLabelValues(trigger).Inc()
	}
}
