package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/tui/styles"
)

// RenderHeader renders the top header bar with app name, dashboard name,
// overall live/stale status and how many panels are ready.
func RenderHeader(theme styles.Theme, dashName string, readyCount, totalCount, width int, ver string) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Base0D).
		Background(theme.Base01).
		Bold(true).
		Render("sol")

	center := lipgloss.NewStyle().
		Foreground(theme.Base05).
		Background(theme.Base01).
		Render(dashName)

	status := "LIVE"
	statusColor := theme.Base0B
	switch {
	case totalCount == 0:
		status, statusColor = "IDLE", theme.Base04
	case readyCount == 0:
		status, statusColor = "WAITING", theme.Base0A
	case readyCount < totalCount:
		status, statusColor = "DEGRADED", theme.Base0A
	}
	right := lipgloss.NewStyle().
		Foreground(statusColor).
		Background(theme.Base01).
		Render(status)

	panels := lipgloss.NewStyle().
		Foreground(theme.Base04).
		Background(theme.Base01).
		Render(fmt.Sprintf("%d/%d panels", readyCount, totalCount))

	versionSeg := lipgloss.NewStyle().
		Foreground(theme.Base04).
		Background(theme.Base01).
		Render("v" + ver)

	content := fmt.Sprintf(" %s  |  %s  |  %s  |  %s  |  %s ", left, center, right, panels, versionSeg)

	return lipgloss.NewStyle().
		Background(theme.Base01).
		Width(width).
		Render(content)
}
