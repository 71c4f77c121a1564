// Package logging provides structured logging for debrief.
//
// It wraps Zap with:
//   - a Trace level (-2, below Debug)
//   - stdout/stderr output plus an optional OpenTelemetry log bridge
//   - context field injection (trace_id, session.id, incident.type, request.id)
//   - redaction of secrets and caller phone numbers, since transcripts and
//     validator explanations routinely quote them
//
// Create a logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithSessionID(ctx, sessionID)
//	ctx = logging.WithIncidentType(ctx, "cardiac_arrest")
//	logger.Info(ctx, "debrief completed", zap.Duration("duration", d))
//
// The MCP server speaks JSON-RPC over stdout, so it must log to stderr
// (Output.Stream = "stderr").
package logging
