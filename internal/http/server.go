// Package http provides the debrief HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/condition"
	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"github.com/fyrsmithlabs/debrief/internal/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HeaderSessionID carries the evaluation session ID on debrief responses.
const HeaderSessionID = "X-Debrief-Session"

// maxBodyBytes bounds request bodies; transcripts are plain text.
const maxBodyBytes = "4M"

// Evaluator produces a report for one request.
type Evaluator interface {
	Evaluate(ctx context.Context, req debrief.Request) (*debrief.Report, error)
}

// Server provides HTTP endpoints for debrief.
type Server struct {
	echo      *echo.Echo
	evaluator Evaluator
	logger    *logging.Logger
	metrics   *Metrics
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(evaluator Evaluator, logger *logging.Logger, cfg *Config) (*Server, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		evaluator: evaluator,
		logger:    logger,
		metrics:   NewMetrics(),
		config:    cfg,
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(s.metrics.Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			// Client-supplied IDs are echoed back as-is; only well-formed
			// ones reach the logs.
			if requestID := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidID(requestID) {
				ctx = logging.WithRequestID(ctx, requestID)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			err := next(c)
			if err != nil {
				// Resolve the status before logging it.
				c.Error(err)
			}

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	})

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/debriefs", s.handleDebrief)
}

// DebriefRequest is the request body for POST /api/v1/debriefs.
type DebriefRequest struct {
	Transcript   string                `json:"transcript"`
	IncidentSpec *debrief.IncidentSpec `json:"incident_spec"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleDebrief evaluates one transcript and returns the report.
func (s *Server) handleDebrief(c echo.Context) error {
	ctx := c.Request().Context()

	var body DebriefRequest
	if err := c.Bind(&body); err != nil {
		s.logger.Warn(ctx, "invalid debrief request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.IncidentSpec == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "incident_spec field is required")
	}

	report, err := s.evaluator.Evaluate(ctx, debrief.Request{
		Transcript: validator.Transcript(body.Transcript),
		Incident:   *body.IncidentSpec,
	})
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error()).SetInternal(err)
	}

	c.Response().Header().Set(HeaderSessionID, report.SessionID)
	return c.JSON(http.StatusOK, report)
}

// statusFor maps evaluation errors to response codes.
func statusFor(err error) int {
	var (
		cfgErr   *catalog.ConfigurationError
		parseErr *condition.ParseError
		svcErr   *validator.ServiceError
		aggErr   *debrief.AggregationError
	)
	switch {
	case errors.Is(err, debrief.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr), errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &svcErr):
		return http.StatusBadGateway
	case errors.As(err, &aggErr):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
