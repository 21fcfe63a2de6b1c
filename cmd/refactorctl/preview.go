package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// Styles: a muted ocean-teal accent for structure, amber for warnings,
// red for destructive edit kinds.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
	destructive  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#16858E")).
			Padding(0, 1)
)

// renderPlan builds a human-readable preview of an EditPlan: the
// intent, one line per edit/dependency-update/manifest-update, and any
// warnings the builder already attached.
func renderPlan(plan *editplan.EditPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("intent:"), plan.Metadata.Intent)
	if plan.SourceFile != "" {
		fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("source:"), plan.SourceFile)
	}

	for _, e := range plan.Edits {
		style := addedStyle
		if e.EditType == editplan.EditDelete {
			style = destructive
		}
		line := fmt.Sprintf("  %s %s", style.Render(string(e.EditType)), e.FilePath)
		if e.EditType == editplan.EditMove {
			line += fmt.Sprintf(" -> %s", e.NewText)
		}
		if e.Description != "" {
			line += mutedStyle.Render(" # " + e.Description)
		}
		b.WriteString(line + "\n")
	}
	for _, du := range plan.DependencyUpdates {
		fmt.Fprintf(&b, "  %s %s: %q -> %q\n", addedStyle.Render("DependencyUpdate"), du.TargetFile, du.OldReference, du.NewReference)
	}
	for _, mu := range plan.ManifestUpdates {
		fmt.Fprintf(&b, "  %s %s\n", addedStyle.Render("ManifestUpdate"), mu.TargetFile)
	}
	for _, w := range plan.Metadata.Warnings {
		fmt.Fprintf(&b, "%s %s\n", warningStyle.Render("warning:"), w)
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
