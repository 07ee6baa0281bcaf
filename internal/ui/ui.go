// Package ui renders tracker output for the terminal: per-editor colors,
// the suburb status table, and progress summaries.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sjvdm/roadprog/internal/reconcile"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	grayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// colorEnabled is resolved once from the environment.
var colorEnabled = termenv.EnvColorProfile() != termenv.Ascii && !termenv.EnvNoColor()

// RenderAccent styles s as an accent (headings, banners).
func RenderAccent(s string) string {
	if !colorEnabled {
		return s
	}
	return accentStyle.Render(s)
}

// RenderPass styles s as a success marker.
func RenderPass(s string) string {
	if !colorEnabled {
		return s
	}
	return passStyle.Render(s)
}

// RenderWarn styles s as a warning marker.
func RenderWarn(s string) string {
	if !colorEnabled {
		return s
	}
	return warnStyle.Render(s)
}

// RenderStatusTable renders the per-suburb status table, coloring each
// Complete row with the completing editor's palette color and Not Started
// rows gray, the same scheme the map view uses.
func RenderStatusTable(rows []reconcile.StatusRow, palette Palette) string {
	var b strings.Builder

	header := fmt.Sprintf("%-28s %-16s %-12s %s", "SUBURB", "ASSIGNED", "STATUS", "COMPLETED BY")
	if colorEnabled {
		header = headerStyle.Render(header)
	}
	b.WriteString(header)
	b.WriteByte('\n')

	for _, row := range rows {
		line := fmt.Sprintf("%-28s %-16s %-12s %s", row.Suburb, row.AssignedEditor, row.State, row.CompletedBy)
		if !colorEnabled {
			b.WriteString(line)
		} else if row.State == reconcile.Complete {
			b.WriteString(lipgloss.NewStyle().Foreground(palette.Color(row.CompletedBy)).Render(line))
		} else {
			b.WriteString(grayStyle.Render(line))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// RenderSummary renders the per-editor progress summary.
func RenderSummary(summaries []reconcile.EditorSummary, palette Palette) string {
	var b strings.Builder

	header := fmt.Sprintf("%-16s %10s %8s %10s", "EDITOR", "COMPLETED", "TOTAL", "PROGRESS")
	if colorEnabled {
		header = headerStyle.Render(header)
	}
	b.WriteString(header)
	b.WriteByte('\n')

	for _, s := range summaries {
		line := fmt.Sprintf("%-16s %10d %8d %9.1f%%", s.Editor, s.Completed, s.Total, s.Percent)
		if colorEnabled {
			line = lipgloss.NewStyle().Foreground(palette.Color(s.Editor)).Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}

// RenderProgress renders the overall progress line with a simple bar.
func RenderProgress(p reconcile.Progress) string {
	const width = 30
	filled := 0
	if p.Total > 0 {
		filled = p.Completed * width / p.Total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if colorEnabled {
		bar = passStyle.Render(strings.Repeat("█", filled)) + grayStyle.Render(strings.Repeat("░", width-filled))
	}
	return fmt.Sprintf("%s %d / %d suburbs completed (%.1f%%)", bar, p.Completed, p.Total, p.Percent)
}
