package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := current.Success.Render(strings.Repeat("█", filled)) + current.Muted.Render(strings.Repeat("░", width-filled))
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// RenderPanel frames lines with the current theme's border.
func RenderPanel(lines []string) string {
	return lipgloss.NewStyle().
		Border(current.Border).
		BorderForeground(current.BorderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Panel prints a framed box to stdout.
func Panel(lines []string) {
	fmt.Fprintln(stdout, RenderPanel(lines))
}
