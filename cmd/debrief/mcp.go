package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/debrief/internal/config"
	"github.com/fyrsmithlabs/debrief/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the debrief_evaluate tool over MCP stdio",
		Long: `Serve an MCP server on stdin/stdout exposing debrief_evaluate.

Logs go to stderr; stdout carries only the MCP protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, appOptions{events: true})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			srv, err := mcp.NewServer(&mcp.Config{
				Name:    "debrief",
				Version: version,
				Logger:  a.logger,
			}, a.orchestrator)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			fmt.Fprintln(os.Stderr, "debrief MCP stdio server started")
			return srv.Run(ctx)
		},
	}
}
