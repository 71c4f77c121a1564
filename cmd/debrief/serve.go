package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/config"
	debriefhttp "github.com/fyrsmithlabs/debrief/internal/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the debrief HTTP API",
		Long: `Serve POST /api/v1/debriefs, GET /health and GET /metrics.

Lifecycle events are published to NATS when events.nats_url is set, and the
catalog cache is dropped on file changes when catalog.watch is true.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// serve runs the HTTP API until ctx is canceled, then shuts down gracefully.
func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, appOptions{events: true})
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if cfg.Catalog.Watch {
		w, err := catalog.NewWatcher(cfg.Catalog.Root, a.store, a.logger)
		if err != nil {
			return err
		}
		go w.Run(ctx)
	}

	srv, err := debriefhttp.NewServer(a.orchestrator, a.logger, &debriefhttp.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info(ctx, "shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout.Duration()))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
