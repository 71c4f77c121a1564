package mcp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/condition"
	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

// Metrics holds the MCP tool metrics.
type Metrics struct {
	invocations    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	activeRequests *prometheus.GaugeVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide MCP metrics.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			invocations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "debrief_mcp_tool_invocations_total",
				Help: "Total number of MCP tool invocations.",
			}, []string{"tool"}),
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "debrief_mcp_tool_duration_seconds",
				Help:    "Duration of MCP tool invocations.",
				Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
			}, []string{"tool"}),
			errors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "debrief_mcp_tool_errors_total",
				Help: "Total number of MCP tool errors by reason.",
			}, []string{"tool", "reason"}),
			activeRequests: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "debrief_mcp_tool_active_requests",
				Help: "Number of currently active MCP tool requests.",
			}, []string{"tool"}),
		}
	})
	return metrics
}

// RecordInvocation records a tool invocation.
func (m *Metrics) RecordInvocation(tool string, duration time.Duration, err error) {
	m.invocations.WithLabelValues(tool).Inc()
	m.duration.WithLabelValues(tool).Observe(duration.Seconds())
	if err != nil {
		m.errors.WithLabelValues(tool, categorizeError(err)).Inc()
	}
}

// IncrementActive increments the active requests gauge.
func (m *Metrics) IncrementActive(tool string) {
	m.activeRequests.WithLabelValues(tool).Inc()
}

// DecrementActive decrements the active requests gauge.
func (m *Metrics) DecrementActive(tool string) {
	m.activeRequests.WithLabelValues(tool).Dec()
}

// categorizeError maps an evaluation error to a reason label.
func categorizeError(err error) string {
	var (
		cfgErr   *catalog.ConfigurationError
		parseErr *condition.ParseError
		svcErr   *validator.ServiceError
		aggErr   *debrief.AggregationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, debrief.ErrInvalidRequest):
		return "invalid_request"
	case errors.As(err, &cfgErr), errors.As(err, &parseErr):
		return "catalog_error"
	case errors.Is(err, validator.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &svcErr):
		return "validator_error"
	case errors.As(err, &aggErr):
		return "aggregation_error"
	default:
		return "internal_error"
	}
}
