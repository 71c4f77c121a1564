package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

const toolEvaluate = "debrief_evaluate"

type evaluateInput struct {
	Transcript   string `json:"transcript" jsonschema:"Full call transcript, one utterance per line"`
	IncidentType string `json:"incident_type" jsonschema:"Incident type naming the guidecard, e.g. cardiac_arrest"`
}

type evaluateOutput struct {
	SessionID string            `json:"session_id"`
	Verdicts  map[string]string `json:"verdicts"`
	// Report is the full report document.
	Report string `json:"report"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolEvaluate,
		Description: "Evaluate an emergency call transcript against the dispatch protocol checklist and return per-section YES/NO/N/A verdicts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args evaluateInput) (*mcp.CallToolResult, evaluateOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(toolEvaluate)
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(toolEvaluate)
			s.metrics.RecordInvocation(toolEvaluate, time.Since(start), toolErr)
		}()

		report, err := s.evaluator.Evaluate(ctx, debrief.Request{
			Transcript: validator.Transcript(args.Transcript),
			Incident:   debrief.IncidentSpec{IncidentType: args.IncidentType},
		})
		if err != nil {
			toolErr = err
			s.logger.Warn(ctx, "debrief_evaluate failed", zap.Error(err))
			return nil, evaluateOutput{}, fmt.Errorf("evaluation failed: %w", err)
		}

		doc, err := json.Marshal(report)
		if err != nil {
			toolErr = err
			return nil, evaluateOutput{}, fmt.Errorf("encoding report: %w", err)
		}

		verdicts := make(map[string]string, len(debrief.SectionKeys))
		for key, v := range report.Verdicts() {
			verdicts[key] = string(v)
		}

		output := evaluateOutput{
			SessionID: report.SessionID,
			Verdicts:  verdicts,
			Report:    string(doc),
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: summarize(report)},
			},
		}, output, nil
	})
}

// summarize renders one line per section in report order.
func summarize(r *debrief.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debrief %s (%s)\n", r.SessionID, r.IncidentType)
	for _, key := range debrief.SectionKeys {
		sec, ok := r.Section(key)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, sec.Result)
	}
	return b.String()
}
