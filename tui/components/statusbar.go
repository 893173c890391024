package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/tui/styles"
)

// StatusInfo is what the status bar reports about the board.
type StatusInfo struct {
	LastUpdate  time.Time
	Ready       int
	Stale       int
	Loading     int
	HistoryDays int
}

// RenderStatusBar renders the two-line status/footer bar showing panel
// health, the history range and key bindings.
func RenderStatusBar(theme styles.Theme, info StatusInfo, width int) string {
	bg := theme.Base01
	bgStyle := lipgloss.NewStyle().Background(bg)
	sep := lipgloss.NewStyle().Foreground(theme.Base03).Background(bg).Render(" | ")

	lastStr := "never"
	if !info.LastUpdate.IsZero() {
		lastStr = info.LastUpdate.Format("15:04:05")
	}
	lastSeg := lipgloss.NewStyle().Foreground(theme.Base05).Background(bg).Render(fmt.Sprintf("last: %s", lastStr))

	healthColor := theme.Base0B
	if info.Stale > 0 || info.Loading > 0 {
		healthColor = theme.Base0A
	}
	healthSeg := lipgloss.NewStyle().Foreground(healthColor).Background(bg).
		Render(fmt.Sprintf("%d ready, %d stale, %d loading", info.Ready, info.Stale, info.Loading))

	rangeSeg := lipgloss.NewStyle().Foreground(theme.Base05).Background(bg).
		Render(fmt.Sprintf("history: %dd", info.HistoryDays))

	topContent := bgStyle.Render(" ") + lastSeg + sep + healthSeg + sep + rangeSeg
	topWidth := lipgloss.Width(topContent)
	if topWidth < width {
		topContent += bgStyle.Render(strings.Repeat(" ", width-topWidth))
	}

	keyStyle := lipgloss.NewStyle().Foreground(theme.Base0D).Background(bg).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.Base04).Background(bg)
	spacer := bgStyle.Render("  ")

	keys := bgStyle.Render(" ") +
		keyStyle.Render("enter") + descStyle.Render(":history") + spacer +
		keyStyle.Render("r") + descStyle.Render(":5d/30d") + spacer +
		keyStyle.Render("p") + descStyle.Render(":predict") + spacer +
		keyStyle.Render("t") + descStyle.Render(":theme") + spacer +
		keyStyle.Render("e") + descStyle.Render(":pollers") + spacer +
		keyStyle.Render("s") + descStyle.Render(":settings") + spacer +
		keyStyle.Render("?") + descStyle.Render(":help") + spacer +
		keyStyle.Render("q") + descStyle.Render(":quit")

	keysWidth := lipgloss.Width(keys)
	if keysWidth < width {
		keys += bgStyle.Render(strings.Repeat(" ", width-keysWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, topContent, keys)
}
