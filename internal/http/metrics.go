package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP request metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide HTTP metrics, registering them on
// first use.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "debrief_http_requests_total",
				Help: "HTTP requests by method, route and status code.",
			}, []string{"method", "route", "status"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "debrief_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds. Debrief requests span every validator call.",
				Buckets: []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
			}, []string{"method", "route"}),
			ActiveRequests: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "debrief_http_active_requests",
				Help: "Number of in-flight HTTP requests.",
			}),
		}
	})
	return metrics
}

// Middleware records request count, latency and concurrency. Routes are
// labeled by their registered path so label cardinality stays fixed.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.ActiveRequests.Inc()
			defer m.ActiveRequests.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
