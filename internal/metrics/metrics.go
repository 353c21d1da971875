// Package metrics exposes Prometheus instruments for recurrence scheduling.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a scheduling call.
const (
	ResultScheduled    = "scheduled"
	ResultDuplicate    = "duplicate"
	ResultLimitReached = "limit_reached"
	ResultNoNext       = "no_next"
)

type Metrics struct {
	occurrencesTotal   *prometheus.CounterVec
	cancellationsTotal prometheus.Counter
	scheduleDelay      prometheus.Histogram
	backendErrors      *prometheus.CounterVec
}

func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		occurrencesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "occurrences_total",
				Help:      "Scheduling calls by outcome",
			},
			[]string{"result"},
		),
		cancellationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cancellations_total",
				Help:      "Recurrences removed from the index",
			},
		),
		scheduleDelay: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "schedule_delay_seconds",
				Help:      "Delay between scheduling an occurrence and its fire time",
				Buckets:   []float64{1, 10, 60, 300, 900, 3600, 21600, 86400, 604800},
			},
		),
		backendErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_errors_total",
				Help:      "Failed index or job store calls by operation",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(
		m.occurrencesTotal,
		m.cancellationsTotal,
		m.scheduleDelay,
		m.backendErrors,
	)

	return m
}

func (m *Metrics) RecordOutcome(result string) {
	if m == nil {
		return
	}
	m.occurrencesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordScheduled(delay time.Duration, duplicate bool) {
	if m == nil {
		return
	}
	if duplicate {
		m.occurrencesTotal.WithLabelValues(ResultDuplicate).Inc()
	} else {
		m.occurrencesTotal.WithLabelValues(ResultScheduled).Inc()
	}
	m.scheduleDelay.Observe(delay.Seconds())
}

func (m *Metrics) RecordCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *Metrics) RecordBackendError(op string) {
	if m == nil {
		return
	}
	m.backendErrors.WithLabelValues(op).Inc()
}
