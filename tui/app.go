package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/config"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/panel"
	"github.com/tonhe/sol/tui/components"
	"github.com/tonhe/sol/tui/keys"
	"github.com/tonhe/sol/tui/styles"
	"github.com/tonhe/sol/tui/views"
)

// AppState represents the current screen/view of the application.
type AppState int

const (
	StateDashboard AppState = iota
	StateHistory
	StatePredict
	StateSettings
	StateEngines
)

const predictTimeout = 30 * time.Second

// panelEventMsg carries one board event into the update loop.
type panelEventMsg panel.Event

// boardClosedMsg is sent once the board's event channel closes.
type boardClosedMsg struct{}

type predictResultMsg struct {
	kw  float64
	err error
}

type rangeChangedMsg struct {
	days int
	err  error
}

// AppModel is the root Bubble Tea model that manages all views and state.
type AppModel struct {
	state   AppState
	theme   styles.Theme
	config  *config.Config
	cfgPath string
	board   *panel.Board
	log     *slog.Logger
	version string

	dashboard views.DashboardView
	history   views.HistoryView
	predict   views.PredictView
	settings  views.SettingsView
	engines   views.EnginesView
	help      views.HelpView

	status components.StatusInfo
	width  int
	height int
}

// Options configures NewAppModel.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Theme      styles.Theme
	Logger     *slog.Logger
	Version    string
}

// NewAppModel creates the root model for a started board.
func NewAppModel(board *panel.Board, opts Options) AppModel {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	m := AppModel{
		state:     StateDashboard,
		theme:     opts.Theme,
		config:    opts.Config,
		cfgPath:   opts.ConfigPath,
		board:     board,
		log:       log,
		version:   opts.Version,
		dashboard: views.NewDashboardView(opts.Theme, board.Evaluator()),
		history:   views.NewHistoryView(opts.Theme),
		predict:   views.NewPredictView(opts.Theme),
		engines:   views.NewEnginesView(opts.Theme),
		help:      views.NewHelpView(opts.Theme),
	}
	m.refresh()
	return m
}

// Init starts listening for panel events and the loading spinner.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.board.Events()), m.dashboard.Init())
}

func waitForEvent(events <-chan panel.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return boardClosedMsg{}
		}
		return panelEventMsg(ev)
	}
}

func predictCmd(p *panel.Predictor, r client.SensorReading) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), predictTimeout)
		defer cancel()
		kw, err := p.Predict(ctx, r)
		return predictResultMsg{kw: kw, err: err}
	}
}

func setRangeCmd(b *panel.Board, days int) tea.Cmd {
	return func() tea.Msg {
		return rangeChangedMsg{days: days, err: b.SetHistoryRange(days)}
	}
}

// refresh pulls the latest panel state into every view.
func (m *AppModel) refresh() {
	m.dashboard.Refresh(m.board)
	if hs := m.board.History(); len(hs) > 0 {
		m.history.SetPanel(hs[0])
	} else {
		m.history.SetPanel(nil)
	}

	info := components.StatusInfo{HistoryDays: m.board.HistoryRange()}
	for _, s := range m.board.Summaries() {
		switch s.State {
		case panel.StateReady:
			info.Ready++
		case panel.StateStale:
			info.Stale++
		default:
			info.Loading++
		}
		if s.UpdatedAt != nil && s.UpdatedAt.After(info.LastUpdate) {
			info.LastUpdate = *s.UpdatedAt
		}
	}
	m.status = info
	m.engines.Refresh(m.board.Engines())
}

func (m *AppModel) setTheme(theme styles.Theme) {
	m.theme = theme
	m.dashboard.SetTheme(theme)
	m.history.SetTheme(theme)
	m.predict.SetTheme(theme)
	m.engines.SetTheme(theme)
	m.help.SetTheme(theme)
	m.log.Info("theme changed", slog.String("theme", theme.Slug))
}

func (m AppModel) toggleRange() tea.Cmd {
	days := 30
	if m.board.HistoryRange() == 30 {
		days = 5
	}
	return setRangeCmd(m.board, days)
}

// Update handles messages and dispatches to the active view.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Body height = total - 1 (header) - 2 (status bar lines)
		bodyHeight := msg.Height - 3
		m.dashboard.SetSize(msg.Width, bodyHeight)
		m.history.SetSize(msg.Width, bodyHeight)
		m.predict.SetSize(msg.Width, bodyHeight)
		m.settings.SetSize(msg.Width, bodyHeight)
		m.engines.SetSize(msg.Width, bodyHeight)
		m.help.SetSize(msg.Width, bodyHeight)
		return m, nil

	case panelEventMsg:
		m.refresh()
		return m, waitForEvent(m.board.Events())

	case boardClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd

	case predictResultMsg:
		m.predict.SetResult(msg.kw, msg.err)
		return m, nil

	case rangeChangedMsg:
		if msg.err != nil {
			m.log.Error("history range change failed", slog.Int("days", msg.days), logging.Err(msg.err))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.help.IsVisible() {
		if key.Matches(msg, keys.DefaultKeyMap.Help) || key.Matches(msg, keys.DefaultKeyMap.Escape) {
			m.help.Toggle()
		}
		return m, nil
	}

	// Forms own every key but ctrl+c.
	switch m.state {
	case StatePredict:
		var cmd tea.Cmd
		var action views.PredictAction
		m.predict, cmd, action = m.predict.Update(msg)
		switch action {
		case views.PredictClose:
			m.state = StateDashboard
		case views.PredictSubmit:
			reading, err := m.predict.Reading(time.Now())
			if err != nil {
				m.predict.SetResult(0, err)
				return m, nil
			}
			m.predict.SetPending()
			return m, predictCmd(m.board.Predictor(), reading)
		}
		return m, cmd

	case StateSettings:
		var cmd tea.Cmd
		var action views.SettingsAction
		m.settings, cmd, action = m.settings.Update(msg)
		switch action {
		case views.SettingsClose:
			m.state = StateDashboard
		case views.SettingsSaved:
			if t := styles.GetThemeByName(m.settings.SavedTheme); t != nil {
				m.setTheme(*t)
			}
			m.state = StateDashboard
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.DefaultKeyMap.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.DefaultKeyMap.Help):
		m.help.Toggle()
		return m, nil
	case key.Matches(msg, keys.DefaultKeyMap.Theme):
		if t := styles.GetThemeByName(styles.Toggle(m.theme.Slug)); t != nil {
			m.setTheme(*t)
		}
		return m, nil
	}

	switch m.state {
	case StateDashboard:
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Range):
			return m, m.toggleRange()
		case key.Matches(msg, keys.DefaultKeyMap.Predict):
			m.predict = views.NewPredictView(m.theme)
			m.predict.SetSize(m.width, m.height-3)
			m.state = StatePredict
			return m, textinput.Blink
		case key.Matches(msg, keys.DefaultKeyMap.Engines):
			m.engines.Refresh(m.board.Engines())
			m.state = StateEngines
			return m, nil
		case key.Matches(msg, keys.DefaultKeyMap.Settings):
			m.settings = views.NewSettingsView(m.theme, m.config, m.cfgPath)
			m.settings.SetSize(m.width, m.height-3)
			m.state = StateSettings
			return m, nil
		case key.Matches(msg, keys.DefaultKeyMap.History):
			if name, kind, ok := m.dashboard.Selected(); ok && kind == dashboard.KindHistory {
				if v, found := m.board.Panel(name); found {
					if hp, isHistory := v.(*panel.HistoryPanel); isHistory {
						m.history.SetPanel(hp)
					}
				}
			}
			m.state = StateHistory
			return m, nil
		}
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd

	case StateEngines:
		var closed bool
		m.engines, closed = m.engines.Update(msg)
		if closed {
			m.state = StateDashboard
		}

	case StateHistory:
		var action views.HistoryAction
		m.history, action = m.history.Update(msg)
		switch action {
		case views.HistoryBack:
			m.state = StateDashboard
		case views.HistoryToggleRange:
			return m, m.toggleRange()
		}
	}
	return m, nil
}

// View renders the full application UI by composing header, body, and status.
func (m AppModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	total := m.status.Ready + m.status.Stale + m.status.Loading
	header := components.RenderHeader(m.theme, m.board.Name(), m.status.Ready, total, m.width, m.version)

	var body string
	switch {
	case m.help.IsVisible():
		body = m.help.View()
	case m.state == StateHistory:
		body = m.history.View()
	case m.state == StatePredict:
		body = m.predict.View()
	case m.state == StateSettings:
		body = m.settings.View()
	case m.state == StateEngines:
		body = m.engines.View()
	default:
		body = m.dashboard.View()
	}

	statusBar := components.RenderStatusBar(m.theme, m.status, m.width)

	bodyHeight := m.height - 1 - 2 // 1 header line, 2 status bar lines
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	bodyStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Background(m.theme.Base00).
		Foreground(m.theme.Base05)

	return lipgloss.JoinVertical(lipgloss.Left, header, bodyStyle.Render(body), statusBar)
}
