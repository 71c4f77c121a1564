package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debrief/internal/config"
	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

// Sample inputs shipped under the catalog root.
const (
	exampleConversation = "examples/sample_conversation.txt"
	exampleTask         = "examples/sample_task.json"
)

type runOptions struct {
	conversation string
	task         string
	output       string
	example      bool
	metricsFile  string
	noSummary    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate one call transcript and write the report",
		Long: `Evaluate one call transcript against its incident's guidecard and the
reported critical protocol, then write the JSON report.

Examples:
  # Evaluate a call
  debrief run -c call.txt -t task.json -o report.json

  # Evaluate the bundled sample
  debrief run --example`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.conversation, "conversation", "c", "", "path to the call transcript")
	f.StringVarP(&opts.task, "task", "t", "", "path to the task JSON naming the incident type")
	f.StringVarP(&opts.output, "output", "o", "out.json", "path of the report to write")
	f.BoolVar(&opts.example, "example", false, "evaluate the sample call under the catalog root")
	f.StringVar(&opts.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	f.BoolVar(&opts.noSummary, "quiet", false, "do not print the checklist summary")
	cmd.MarkFlagsMutuallyExclusive("example", "conversation")
	cmd.MarkFlagsMutuallyExclusive("example", "task")
	return cmd
}

func runEvaluate(cmd *cobra.Command, opts runOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	convPath, taskPath, err := inputPaths(opts, cfg.Catalog.Root)
	if err != nil {
		return err
	}
	req, err := loadRequest(convPath, taskPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.close(ctx)

	report, evalErr := a.orchestrator.Evaluate(ctx, req)

	// Metrics are worth keeping for failed runs too.
	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, prometheus.DefaultGatherer); err != nil {
			a.logger.Warn(ctx, "failed to write metrics textfile",
				zap.String("path", opts.metricsFile), zap.Error(err))
		}
	}
	if evalErr != nil {
		return evalErr
	}

	if err := writeReport(opts.output, report); err != nil {
		return err
	}
	a.logger.Info(ctx, "report written", zap.String("path", opts.output))

	if !opts.noSummary {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(report, opts.output))
	}
	return nil
}

// inputPaths resolves the transcript and task paths from flags.
func inputPaths(opts runOptions, catalogRoot string) (conversation, task string, err error) {
	if opts.example {
		return filepath.Join(catalogRoot, exampleConversation), filepath.Join(catalogRoot, exampleTask), nil
	}
	if opts.conversation == "" || opts.task == "" {
		return "", "", errors.New("both --conversation and --task are required (or use --example)")
	}
	return opts.conversation, opts.task, nil
}

// loadRequest reads and validates the inputs before any validator call.
func loadRequest(conversationPath, taskPath string) (debrief.Request, error) {
	transcript, err := os.ReadFile(conversationPath)
	if err != nil {
		return debrief.Request{}, fmt.Errorf("failed to read conversation %s: %w", conversationPath, err)
	}
	taskData, err := os.ReadFile(taskPath)
	if err != nil {
		return debrief.Request{}, fmt.Errorf("failed to read task %s: %w", taskPath, err)
	}

	spec, err := debrief.ParseTask(taskData)
	if err != nil {
		return debrief.Request{}, fmt.Errorf("%s: %w", taskPath, err)
	}

	req := debrief.Request{
		Transcript: validator.Transcript(transcript),
		Incident:   spec,
	}
	if err := req.Validate(); err != nil {
		return debrief.Request{}, err
	}
	return req, nil
}

// writeReport writes the indented report to path.
func writeReport(path string, report *debrief.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

