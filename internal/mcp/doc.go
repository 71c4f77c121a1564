// Package mcp exposes debrief evaluations as an MCP tool.
//
// The server uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// over the stdio transport and calls the orchestrator directly. Stdout is
// owned by the protocol; log to stderr.
package mcp
