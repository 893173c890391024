package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/internal/panel"
	"github.com/tonhe/sol/tui/components"
	"github.com/tonhe/sol/tui/keys"
	"github.com/tonhe/sol/tui/styles"
)

// HistoryAction tells the app what a key press in the history view asked for.
type HistoryAction int

const (
	HistoryNone HistoryAction = iota
	HistoryBack
	HistoryToggleRange
)

// HistoryView is the full-size chart of one history panel. Tab cycles the
// plotted column.
type HistoryView struct {
	theme  styles.Theme
	sty    *styles.Styles
	name   string
	snap   panel.Snapshot[panel.History]
	days   int
	series panel.Series
	width  int
	height int
}

// NewHistoryView creates a new HistoryView with the given theme.
func NewHistoryView(theme styles.Theme) HistoryView {
	return HistoryView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// SetTheme restyles the view.
func (v *HistoryView) SetTheme(theme styles.Theme) {
	v.theme = theme
	v.sty = styles.NewStyles(theme)
}

// SetPanel updates the view from a history panel.
func (v *HistoryView) SetPanel(p *panel.HistoryPanel) {
	if p == nil {
		v.name = ""
		v.snap = panel.Snapshot[panel.History]{}
		return
	}
	v.name = p.Name()
	v.snap = p.Snapshot()
	v.days = p.Range()
}

// Series returns the plotted column.
func (v HistoryView) Series() panel.Series { return v.series }

// SetSize updates the available dimensions for the view.
func (v *HistoryView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update handles key messages for the history view.
func (v HistoryView) Update(msg tea.Msg) (HistoryView, HistoryAction) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Escape):
			return v, HistoryBack
		case key.Matches(msg, keys.DefaultKeyMap.Tab):
			v.series = v.series.Next()
		case key.Matches(msg, keys.DefaultKeyMap.Range):
			return v, HistoryToggleRange
		}
	}
	return v, HistoryNone
}

// View renders the chart with a summary line above it.
func (v HistoryView) View() string {
	if v.name == "" {
		msg := lipgloss.NewStyle().
			Foreground(v.theme.Base04).
			Render("This dashboard has no history panel")
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
	}

	labelStyle := lipgloss.NewStyle().Foreground(v.theme.Base04)
	valueStyle := lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true)

	info := fmt.Sprintf("  %s %s   %s %s   %s %s",
		labelStyle.Render("Range:"), valueStyle.Render(fmt.Sprintf("%d days", v.days)),
		labelStyle.Render("Series:"), valueStyle.Render(v.series.String()),
		labelStyle.Render("State:"), v.renderState(),
	)

	chartHeight := v.height - 4
	if chartHeight < 6 {
		chartHeight = 6
	}

	var body string
	if v.snap.State == panel.StateLoading {
		body = lipgloss.Place(v.width, chartHeight, lipgloss.Center, lipgloss.Center,
			labelStyle.Render(fmt.Sprintf("Loading the last %d days...", v.days)))
	} else {
		h := v.snap.Data
		var axis components.ChartAxis
		if n := len(h.Points); n > 0 {
			axis = components.ChartAxis{From: h.Points[0].DateTime, To: h.Points[n-1].DateTime}
		}
		chart := components.RenderChart(h.Values(v.series), v.width-2, chartHeight, v.series.String(), axis)
		body = lipgloss.NewStyle().Foreground(v.seriesColor()).Render(chart)
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", info, "", body, v.renderHelp())
}

func (v HistoryView) renderState() string {
	switch v.snap.State {
	case panel.StateReady:
		return v.sty.StatusOK.Render("ready")
	case panel.StateStale:
		return v.sty.StaleBadge.Render("STALE") + " " + v.sty.StatusWarn.Render(truncate(errText(v.snap.Err), 40))
	default:
		return v.sty.StatusWarn.Render("loading")
	}
}

func (v HistoryView) seriesColor() lipgloss.Color {
	switch v.series {
	case panel.SeriesAmbient:
		return v.theme.Base0A
	case panel.SeriesModule:
		return v.theme.Base09
	default:
		return v.theme.Base0B
	}
}

func (v HistoryView) renderHelp() string {
	helpStyle := lipgloss.NewStyle().Foreground(v.theme.Base04)
	keyStyle := lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true)
	parts := []string{
		keyStyle.Render("[tab]") + helpStyle.Render(" series"),
		keyStyle.Render("[r]") + helpStyle.Render(" 5d/30d"),
		keyStyle.Render("[esc]") + helpStyle.Render(" back"),
	}
	return "  " + strings.Join(parts, "   ")
}
