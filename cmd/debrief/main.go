// Debrief audits emergency call transcripts against dispatch protocol
// checklists and writes a per-section YES/NO/N/A report.
//
// Usage:
//
//	# Evaluate one call
//	debrief run -c conversation.txt -t task.json -o out.json
//
//	# Evaluate the bundled sample under the catalog root
//	debrief run --example
//
//	# Serve the HTTP API or an MCP stdio server
//	debrief serve
//	debrief mcp
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the optional YAML config file shared by every command.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "debrief",
		Short: "Audit emergency call transcripts against dispatch protocols",
		Long: `debrief checks a 911 call transcript against the address, phone, name,
general and protocol-specific steps a call-taker is expected to follow, and
reports YES, NO or N/A for every checklist section.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (env DEBRIEF_* overrides)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckConfigCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newMCPCmd())
	return root
}
