package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/config"
	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/events"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"github.com/fyrsmithlabs/debrief/internal/telemetry"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

// app holds the wired dependencies of one process.
type app struct {
	cfg          *config.Config
	logger       *logging.Logger
	telemetry    *telemetry.Telemetry
	store        *catalog.FSStore
	orchestrator *debrief.Orchestrator
	publisher    *events.Publisher
}

// appOptions selects the optional long-running pieces.
type appOptions struct {
	// events connects the NATS publisher when events.nats_url is set.
	events bool
}

// newLogger maps the logging section onto a zap logger writing to stderr.
// Stdout is reserved for reports and the MCP protocol.
func newLogger(cfg config.LoggingConfig, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lc := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}
	lc.Level = level
	lc.Format = cfg.Format
	lc.Output.OTEL = tel.LoggerProvider() != nil
	return logging.NewLogger(lc, tel.LoggerProvider())
}

// newApp wires every dependency from an already validated cfg.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry, version))
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Logging, tel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded, spans will not be exported", zap.Error(h.Error))
	}

	a := &app{cfg: cfg, logger: logger, telemetry: tel}

	store, err := catalog.OpenDir(cfg.Catalog.Root, logger)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.store = store

	v, err := newValidator(cfg.Validator, logger)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	var observer debrief.Observer
	if opts.events && cfg.Events.NATSURL != "" {
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.publisher = pub
		observer = pub
	}

	a.orchestrator, err = debrief.New(debrief.Options{
		Validator:   v,
		Store:       store,
		Logger:      logger,
		Metrics:     debrief.NewMetrics(),
		Observer:    observer,
		Tolerance:   cfg.Evaluation.Tolerance,
		BranchCodes: cfg.Catalog.BranchCodes,
		CallTimeout: cfg.Validator.CallTimeout.Duration(),
		Concurrency: cfg.Evaluation.Concurrency,
	})
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

func newValidator(cfg config.ValidatorConfig, logger *logging.Logger) (*validator.LLMValidator, error) {
	completer, err := validator.NewCompleter(validator.Options{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey.Value(),
		MaxRetries: cfg.MaxRetries,
		RateLimit:  cfg.RateLimit,
		Burst:      cfg.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s completer: %w", cfg.Provider, err)
	}

	prompts, err := validator.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	return validator.NewLLMValidator(completer, prompts, logger), nil
}

// close releases everything newApp opened. Errors are reported on stderr;
// they never change the command's result.
func (a *app) close(ctx context.Context) {
	// Flush spans even when ctx was canceled by a signal.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Sync())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "debrief: shutdown: %v\n", err)
	}
}
