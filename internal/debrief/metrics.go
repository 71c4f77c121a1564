package debrief

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Outcome labels for validator calls.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Metrics holds Prometheus metrics for evaluations.
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	ItemFailuresTotal  *prometheus.CounterVec
	EvaluationsTotal   *prometheus.CounterVec
	SectionVerdicts    *prometheus.CounterVec
}

// NewMetrics registers the evaluation metrics with the default registry.
//
// Registration happens once per process; later calls return the same
// instance so that several orchestrators can share it.
//
// Metrics:
//   - debrief_validations_total{category,outcome} - validator calls
//   - debrief_validation_duration_seconds{category} - validator call latency
//   - debrief_item_failures_total{kind} - item checks recorded as negative after a failure
//   - debrief_evaluations_total{status} - finished evaluations
//   - debrief_section_verdicts_total{section,verdict} - section results of completed reports
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ValidationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "debrief_validations_total",
					Help: "Total number of validator calls",
				},
				[]string{"category", "outcome"},
			),

			ValidationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "debrief_validation_duration_seconds",
					Help:    "Duration of validator calls in seconds",
					Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 250ms to ~64s
				},
				[]string{"category"},
			),

			ItemFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "debrief_item_failures_total",
					Help: "Total number of item checks that failed and were recorded as negative",
				},
				[]string{"kind"}, // "question", "prearrival", "protocol"
			),

			EvaluationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "debrief_evaluations_total",
					Help: "Total number of evaluations",
				},
				[]string{"status"}, // "completed" or "failed"
			),

			SectionVerdicts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "debrief_section_verdicts_total",
					Help: "Total number of section verdicts in completed reports",
				},
				[]string{"section", "verdict"},
			),
		}
	})

	return globalMetrics
}

// RecordValidation records one validator call.
func (m *Metrics) RecordValidation(category, outcome string, d time.Duration) {
	m.ValidationsTotal.WithLabelValues(category, outcome).Inc()
	m.ValidationDuration.WithLabelValues(category).Observe(d.Seconds())
}

// RecordItemFailure records an item check that was counted as negative
// because the call failed.
func (m *Metrics) RecordItemFailure(kind string) {
	m.ItemFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordEvaluation records a finished evaluation.
func (m *Metrics) RecordEvaluation(status string) {
	m.EvaluationsTotal.WithLabelValues(status).Inc()
}

// RecordReport records the verdict of every section in r.
func (m *Metrics) RecordReport(r *Report) {
	for key, s := range r.Sections {
		m.SectionVerdicts.WithLabelValues(key, string(s.Result)).Inc()
	}
}
