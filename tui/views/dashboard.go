package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/panel"
	"github.com/tonhe/sol/internal/threshold"
	"github.com/tonhe/sol/tui/components"
	"github.com/tonhe/sol/tui/keys"
	"github.com/tonhe/sol/tui/styles"
)

const (
	minCardWidth  = 34
	maxForecasts  = 7
	maxAlertLines = 5
)

// card is the render-ready copy of one panel.
type card struct {
	name      string
	kind      dashboard.Kind
	state     panel.State
	err       error
	hasData   bool
	stopped   bool
	updatedAt time.Time
	failures  int

	readings  panel.Readings
	power     panel.Power
	trend     []float64
	alerts    []string
	forecasts []client.Prediction
	history   panel.History
}

func fill[T any](c *card, s panel.Snapshot[T]) {
	c.name = s.Name
	c.kind = s.Kind
	c.state = s.State
	c.err = s.Err
	c.hasData = s.HasData
	c.stopped = s.Stopped
	c.updatedAt = s.UpdatedAt
	c.failures = s.Failures
}

// DashboardView is the card grid: one card per panel, in dashboard order.
type DashboardView struct {
	theme   styles.Theme
	sty     *styles.Styles
	eval    *threshold.Evaluator
	spinner spinner.Model
	cards   []card
	cursor  int
	width   int
	height  int
}

// NewDashboardView creates a new DashboardView with the given theme.
func NewDashboardView(theme styles.Theme, eval *threshold.Evaluator) DashboardView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Base0C)
	return DashboardView{
		theme:   theme,
		sty:     styles.NewStyles(theme),
		eval:    eval,
		spinner: sp,
	}
}

// Init starts the loading spinner.
func (v DashboardView) Init() tea.Cmd {
	return v.spinner.Tick
}

// SetTheme restyles the view.
func (v *DashboardView) SetTheme(theme styles.Theme) {
	v.theme = theme
	v.sty = styles.NewStyles(theme)
	v.spinner.Style = lipgloss.NewStyle().Foreground(theme.Base0C)
}

// Refresh copies the current state of every panel on b.
func (v *DashboardView) Refresh(b *panel.Board) {
	views := b.Panels()
	cards := make([]card, 0, len(views))
	for _, pv := range views {
		var c card
		switch p := pv.(type) {
		case *panel.Panel[panel.Readings]:
			s := p.Snapshot()
			fill(&c, s)
			c.readings = s.Data
		case *panel.PowerPanel:
			s := p.Snapshot()
			fill(&c, s)
			c.power = s.Data
			c.trend = p.Trend()
		case *panel.Panel[[]string]:
			s := p.Snapshot()
			fill(&c, s)
			c.alerts = s.Data
		case *panel.Panel[[]client.Prediction]:
			s := p.Snapshot()
			fill(&c, s)
			c.forecasts = s.Data
		case *panel.HistoryPanel:
			s := p.Snapshot()
			fill(&c, s)
			c.history = s.Data
		default:
			sum := pv.Summary()
			c.name, c.kind, c.state = sum.Name, sum.Kind, sum.State
		}
		cards = append(cards, c)
	}
	v.cards = cards
	if v.cursor >= len(v.cards) {
		v.cursor = len(v.cards) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// SetSize updates the available dimensions for the view.
func (v *DashboardView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Selected returns the name and kind of the card under the cursor.
func (v DashboardView) Selected() (string, dashboard.Kind, bool) {
	if v.cursor < 0 || v.cursor >= len(v.cards) {
		return "", "", false
	}
	c := v.cards[v.cursor]
	return c.name, c.kind, true
}

func (v DashboardView) columns() int {
	cols := v.width / minCardWidth
	if cols > 3 {
		cols = 3
	}
	if cols < 1 {
		cols = 1
	}
	return cols
}

// Update handles cursor movement and spinner ticks.
func (v DashboardView) Update(msg tea.Msg) (DashboardView, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.KeyMsg:
		cols := v.columns()
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Left):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, keys.DefaultKeyMap.Right), key.Matches(msg, keys.DefaultKeyMap.Tab):
			if v.cursor < len(v.cards)-1 {
				v.cursor++
			}
		case key.Matches(msg, keys.DefaultKeyMap.Up):
			if v.cursor-cols >= 0 {
				v.cursor -= cols
			}
		case key.Matches(msg, keys.DefaultKeyMap.Down):
			if v.cursor+cols < len(v.cards) {
				v.cursor += cols
			}
		}
	}
	return v, nil
}

// View renders the card grid.
func (v DashboardView) View() string {
	if len(v.cards) == 0 {
		msg := lipgloss.NewStyle().
			Foreground(v.theme.Base04).
			Render("This dashboard has no panels")
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
	}

	cols := v.columns()
	cardWidth := v.width / cols
	inner := cardWidth - 4 // border + padding

	var rows []string
	selectedRow := 0
	for start := 0; start < len(v.cards); start += cols {
		end := start + cols
		if end > len(v.cards) {
			end = len(v.cards)
		}

		bodies := make([][]string, 0, end-start)
		tallest := 0
		for _, c := range v.cards[start:end] {
			lines := v.renderCard(c, inner)
			if len(lines) > tallest {
				tallest = len(lines)
			}
			bodies = append(bodies, lines)
		}

		rendered := make([]string, 0, len(bodies))
		for i, lines := range bodies {
			st := v.sty.Card
			if start+i == v.cursor {
				st = v.sty.CardSelected
				selectedRow = len(rows)
			}
			rendered = append(rendered, st.Width(cardWidth-2).Height(tallest).Render(strings.Join(lines, "\n")))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	// Scroll by whole rows so the selected card stays on screen.
	first := 0
	for first < selectedRow {
		h := 0
		for _, r := range rows[first : selectedRow+1] {
			h += lipgloss.Height(r)
		}
		if h <= v.height {
			break
		}
		first++
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows[first:]...)
}

func (v DashboardView) renderCard(c card, width int) []string {
	title := v.sty.CardTitle.Render(truncate(c.name, width))
	lines := []string{title}

	switch {
	case c.stopped:
		lines = append(lines, v.sty.TableCellDim.Render("stopped"))
		return lines
	case c.state == panel.StateLoading:
		lines = append(lines, v.spinner.View()+" loading...")
		if c.err != nil {
			lines = append(lines, v.sty.StatusWarn.Render(truncate(fmt.Sprintf("retrying: %v", c.err), width)))
		}
		return lines
	case c.state == panel.StateStale:
		badge := v.sty.StaleBadge.Render("STALE")
		lines = append(lines, badge+" "+v.sty.StatusWarn.Render(truncate(errText(c.err), width-8)))
	}

	switch c.kind {
	case dashboard.KindReadings:
		lines = append(lines, v.renderReadings(c.readings, width)...)
	case dashboard.KindPower:
		lines = append(lines, v.renderPower(c, width)...)
	case dashboard.KindAlerts:
		lines = append(lines, v.renderAlerts(c.alerts, width)...)
	case dashboard.KindPredictions:
		lines = append(lines, v.renderForecasts(c.forecasts, width)...)
	case dashboard.KindHistory:
		lines = append(lines, v.renderHistory(c.history, width)...)
	}

	if !c.updatedAt.IsZero() {
		lines = append(lines, v.sty.TableCellDim.Render("updated "+c.updatedAt.Format("15:04:05")))
	}
	return lines
}

func (v DashboardView) renderReadings(r panel.Readings, width int) []string {
	labelW := 14
	var lines []string
	for _, m := range r.Metrics {
		label, unit := string(m), ""
		if t, ok := v.eval.Lookup(m); ok {
			label, unit = t.Label, t.Unit
		}

		value := "n/a"
		if p := r.Value(m); p != nil {
			value = fmt.Sprintf("%.2f %s", *p, unit)
		}

		status := v.sty.StatusOK.Render("OK")
		if r.Statuses[m] == threshold.OutOfRange {
			status = v.sty.StatusOut.Render("OUT")
		}

		valueW := width - labelW - 4
		if valueW < 6 {
			valueW = 6
		}
		lines = append(lines, v.sty.FormLabel.Render(padRight(label, labelW))+
			v.sty.TableRow.Render(padLeft(value, valueW))+" "+status)
	}
	return lines
}

func (v DashboardView) renderPower(c card, width int) []string {
	st := v.sty.BandLow
	switch c.power.Band {
	case threshold.BandMedium:
		st = v.sty.BandMedium
	case threshold.BandHigh:
		st = v.sty.BandHigh
	}
	headline := st.Bold(true).Render(fmt.Sprintf("%.2f kW", c.power.KW)) +
		v.sty.TableCellDim.Render(fmt.Sprintf("  (%s)", c.power.Band))
	return []string{
		headline,
		v.sty.SparklineStyle.Render(components.Sparkline(c.trend, width)),
	}
}

func (v DashboardView) renderAlerts(alerts []string, width int) []string {
	if len(alerts) == 0 {
		return []string{v.sty.StatusOK.Render("No active alerts")}
	}
	lines := []string{v.sty.StatusOut.Render(truncate(alerts[0], width))}
	for i, a := range alerts[1:] {
		if i >= maxAlertLines-1 {
			lines = append(lines, v.sty.TableCellDim.Render(fmt.Sprintf("+%d more", len(alerts)-maxAlertLines)))
			break
		}
		lines = append(lines, v.sty.StatusWarn.Render(truncate("• "+a, width)))
	}
	return lines
}

func (v DashboardView) renderForecasts(preds []client.Prediction, width int) []string {
	if len(preds) == 0 {
		return []string{v.sty.TableCellDim.Render("No forecast")}
	}
	var lines []string
	for i, p := range preds {
		if i >= maxForecasts {
			break
		}
		lines = append(lines, v.sty.FormLabel.Render(padRight(truncate(p.Date, 12), 13))+
			v.sty.TableRow.Render(padLeft(fmt.Sprintf("%.2f kW", p.Prediction), width-13)))
	}
	return lines
}

func (v DashboardView) renderHistory(h panel.History, width int) []string {
	values := h.Values(panel.SeriesACPower)
	peak := 0.0
	for _, x := range values {
		if x > peak {
			peak = x
		}
	}
	return []string{
		v.sty.TableRow.Render(fmt.Sprintf("Last %d days, %d points", h.Days, len(h.Points))),
		v.sty.SparklineStyle.Render(components.Sparkline(values, width)),
		v.sty.TableCellDim.Render(fmt.Sprintf("peak %.1f kW  [enter] chart", peak)),
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// padRight pads s with spaces on the right to the given display width.
func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

// padLeft pads s with spaces on the left to the given display width.
func padLeft(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return ansi.Truncate(s, width, "")
	}
	return strings.Repeat(" ", width-w) + s
}

// truncate shortens s to maxLen columns, adding an ellipsis if needed.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return ansi.Truncate(s, maxLen, "")
	}
	return ansi.Truncate(s, maxLen, "...")
}
