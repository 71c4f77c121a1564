package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/logging"
)

// Evaluator produces a report for one request.
type Evaluator interface {
	Evaluate(ctx context.Context, req debrief.Request) (*debrief.Report, error)
}

// Server is an MCP server backed by an Evaluator.
type Server struct {
	mcp       *mcp.Server
	evaluator Evaluator
	metrics   *Metrics
	logger    *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "debrief")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// Logger for structured logging. Must not write to stdout.
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "debrief",
		Version: "dev",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates a new MCP server.
func NewServer(cfg *Config, evaluator Evaluator) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	s := &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    cfg.Name,
				Version: cfg.Version,
			},
			nil,
		),
		evaluator: evaluator,
		metrics:   NewMetrics(),
		logger:    cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP on the stdio transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves MCP on t.
func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info(ctx, "starting MCP server", zap.String("transport", fmt.Sprintf("%T", t)))
	if err := s.mcp.Run(ctx, t); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
