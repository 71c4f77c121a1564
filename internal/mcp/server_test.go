package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debrief/internal/catalog"
	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

type evaluatorFunc func(ctx context.Context, req debrief.Request) (*debrief.Report, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, req debrief.Request) (*debrief.Report, error) {
	return f(ctx, req)
}

func sampleReport() *debrief.Report {
	r := &debrief.Report{
		SessionID:    "sess-7",
		IncidentType: "cardiac_arrest",
		Sections:     make(map[string]debrief.Section),
	}
	for _, key := range debrief.SectionKeys {
		r.Sections[key] = debrief.Section{Result: validator.VerdictYes}
	}
	r.Sections[debrief.SectionCritical] = debrief.Section{Result: validator.VerdictNA}
	return r
}

// connect starts s on an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	go func() { _ = s.RunTransport(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.ErrorContains(t, err, "evaluator is required")

	s, err := NewServer(&Config{Name: "debrief"}, evaluatorFunc(nil))
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
}

func TestEvaluateTool(t *testing.T) {
	var got debrief.Request
	s, err := NewServer(nil, evaluatorFunc(func(ctx context.Context, req debrief.Request) (*debrief.Report, error) {
		got = req
		return sampleReport(), nil
	}))
	require.NoError(t, err)
	session := connect(t, s)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, toolEvaluate, tools.Tools[0].Name)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: toolEvaluate,
		Arguments: map[string]any{
			"transcript":    "Caller: he's not breathing",
			"incident_type": "cardiac_arrest",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, "cardiac_arrest", got.Incident.IncidentType)
	assert.Equal(t, validator.Transcript("Caller: he's not breathing"), got.Transcript)

	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, debrief.SectionCritical+": N/A")

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out evaluateOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "sess-7", out.SessionID)
	assert.Equal(t, "N/A", out.Verdicts[debrief.SectionCritical])
	assert.Equal(t, "YES", out.Verdicts[debrief.SectionAddress])

	var report map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out.Report), &report))
	assert.Contains(t, report, "not_applied_protocols")
}

func TestEvaluateTool_Error(t *testing.T) {
	s, err := NewServer(nil, evaluatorFunc(func(context.Context, debrief.Request) (*debrief.Report, error) {
		return nil, &catalog.ConfigurationError{Path: "guidecards/flood", Err: catalog.ErrNotFound}
	}))
	require.NoError(t, err)
	session := connect(t, s)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      toolEvaluate,
		Arguments: map[string]any{"transcript": "hi", "incident_type": "flood"},
	})
	// Tool failures come back as error results, not protocol errors.
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: transcript is empty", debrief.ErrInvalidRequest), "invalid_request"},
		{&catalog.ConfigurationError{Path: "x", Err: catalog.ErrInvalid}, "catalog_error"},
		{&validator.ServiceError{Category: validator.CategoryPhone, Err: validator.ErrTimeout}, "timeout"},
		{&validator.ServiceError{Category: validator.CategoryPhone, Err: validator.ErrTransport}, "validator_error"},
		{&debrief.AggregationError{Section: debrief.SectionQuestions, Reason: "x"}, "aggregation_error"},
		{context.Canceled, "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorizeError(tt.err), "%v", tt.err)
	}
}
