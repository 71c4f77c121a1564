package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	yesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	noStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// verdictBadge renders v with a status symbol.
func verdictBadge(v validator.Verdict) string {
	switch v {
	case validator.VerdictYes:
		return yesStyle.Render("✓ YES")
	case validator.VerdictNo:
		return noStyle.Render("✗ NO")
	default:
		return dimStyle.Render("– " + string(v))
	}
}

// renderSummary renders the report as a checklist.
func renderSummary(r *debrief.Report, outputPath string) string {
	width := 0
	for _, key := range debrief.SectionKeys {
		if len(key) > width {
			width = len(key)
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("debrief " + r.IncidentType))
	b.WriteString("\n\n")
	for _, key := range debrief.SectionKeys {
		sec, ok := r.Section(key)
		if !ok {
			continue
		}
		label := labelStyle.Render(fmt.Sprintf("%-*s", width, key))
		fmt.Fprintf(&b, "%s  %s\n", label, verdictBadge(sec.Result))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", dimStyle.Render(fmt.Sprintf("questions %d/%d given · prearrivals %d/%d given",
		len(r.AppliedQuestions), len(r.AppliedQuestions)+len(r.NotAppliedQuestions),
		len(r.AppliedPrearrivals), len(r.AppliedPrearrivals)+len(r.NotAppliedPrearrivals))))
	if len(r.AppliedProtocols) > 0 {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render("critical protocol "+strings.Join(r.AppliedProtocols, ", ")))
	}
	fmt.Fprintf(&b, "%s", dimStyle.Render("session "+r.SessionID+" · report "+outputPath))

	return containerStyle.Render(b.String())
}
