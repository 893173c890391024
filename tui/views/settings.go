package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/internal/config"
	"github.com/tonhe/sol/tui/keys"
	"github.com/tonhe/sol/tui/styles"
)

// SettingsAction describes what the app should do after a settings update.
type SettingsAction int

const (
	// SettingsNone means continue in the settings view.
	SettingsNone SettingsAction = iota
	// SettingsClose means the user cancelled without saving.
	SettingsClose
	// SettingsSaved means the config was saved; the app should apply changes.
	SettingsSaved
)

// Settings field indices.
const (
	settingsFieldTheme   = 0
	settingsFieldBaseURL = 1
	settingsFieldHistory = 2
	settingsFieldRate    = 3
	settingsFieldCount   = 4
)

// SettingsView edits the persisted config with a live theme preview.
// Backend and rate changes apply on the next start; the theme applies
// immediately.
type SettingsView struct {
	theme  styles.Theme
	sty    *styles.Styles
	config *config.Config
	path   string

	themeIndex  int // index into styles.ListThemes()
	historyDays int
	cursor      int

	width  int
	height int

	baseURLInput textinput.Model
	rateInput    textinput.Model

	err        string
	SavedTheme string // theme slug after save, so the app can apply it
}

// NewSettingsView creates a SettingsView populated from cfg, saving to path.
func NewSettingsView(theme styles.Theme, cfg *config.Config, path string) SettingsView {
	themeIdx := styles.GetThemeIndex(cfg.Theme)
	if themeIdx < 0 {
		themeIdx = 0
	}

	baseURLInput := textinput.New()
	baseURLInput.Placeholder = "http://127.0.0.1:5000"
	baseURLInput.CharLimit = 200
	baseURLInput.Width = 40
	baseURLInput.SetValue(cfg.BaseURL)

	rateInput := textinput.New()
	rateInput.Placeholder = "6"
	rateInput.CharLimit = 6
	rateInput.Width = 8
	rateInput.SetValue(strconv.Itoa(cfg.PredictRate))

	return SettingsView{
		theme:        theme,
		sty:          styles.NewStyles(theme),
		config:       cfg,
		path:         path,
		themeIndex:   themeIdx,
		historyDays:  cfg.HistoryDays,
		baseURLInput: baseURLInput,
		rateInput:    rateInput,
	}
}

// SetSize updates the available dimensions for the settings view.
func (s *SettingsView) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s SettingsView) selectedThemeSlug() string {
	themes := styles.ListThemes()
	if s.themeIndex >= 0 && s.themeIndex < len(themes) {
		return themes[s.themeIndex]
	}
	return ""
}

func (s SettingsView) selectedTheme() styles.Theme {
	if t := styles.GetThemeByIndex(s.themeIndex); t != nil {
		return *t
	}
	return styles.DefaultTheme
}

func (s *SettingsView) focusInput() {
	s.baseURLInput.Blur()
	s.rateInput.Blur()
	switch s.cursor {
	case settingsFieldBaseURL:
		s.baseURLInput.Focus()
	case settingsFieldRate:
		s.rateInput.Focus()
	}
}

// cycle moves the value of a choice field by delta.
func (s *SettingsView) cycle(delta int) bool {
	switch s.cursor {
	case settingsFieldTheme:
		n := styles.GetThemeCount()
		s.themeIndex = (s.themeIndex + delta + n) % n
		s.theme = s.selectedTheme()
		s.sty = styles.NewStyles(s.theme)
		return true
	case settingsFieldHistory:
		if s.historyDays == 5 {
			s.historyDays = 30
		} else {
			s.historyDays = 5
		}
		return true
	}
	return false
}

// Update handles messages for the settings view.
func (s SettingsView) Update(msg tea.Msg) (SettingsView, tea.Cmd, SettingsAction) {
	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil, SettingsNone
	}
	switch {
	case key.Matches(msgKey, keys.DefaultKeyMap.Escape):
		return s, nil, SettingsClose

	case key.Matches(msgKey, keys.DefaultKeyMap.Enter):
		return s.save()

	case msgKey.String() == "up", msgKey.String() == "shift+tab":
		s.cursor = (s.cursor + settingsFieldCount - 1) % settingsFieldCount
		s.focusInput()
		return s, nil, SettingsNone

	case msgKey.String() == "down", msgKey.String() == "tab":
		s.cursor = (s.cursor + 1) % settingsFieldCount
		s.focusInput()
		return s, nil, SettingsNone

	case msgKey.String() == "left":
		if s.cycle(-1) {
			return s, nil, SettingsNone
		}
	case msgKey.String() == "right":
		if s.cycle(1) {
			return s, nil, SettingsNone
		}
	}

	var cmd tea.Cmd
	switch s.cursor {
	case settingsFieldBaseURL:
		s.baseURLInput, cmd = s.baseURLInput.Update(msg)
	case settingsFieldRate:
		s.rateInput, cmd = s.rateInput.Update(msg)
	}
	return s, cmd, SettingsNone
}

// save validates and persists the config.
func (s SettingsView) save() (SettingsView, tea.Cmd, SettingsAction) {
	rate, err := strconv.Atoi(strings.TrimSpace(s.rateInput.Value()))
	if err != nil {
		s.err = "Predict rate must be a whole number"
		return s, nil, SettingsNone
	}

	next := *s.config
	next.Theme = s.selectedThemeSlug()
	next.BaseURL = strings.TrimSpace(s.baseURLInput.Value())
	next.HistoryDays = s.historyDays
	next.PredictRate = rate
	if err := next.Validate(); err != nil {
		s.err = strings.ReplaceAll(err.Error(), "\n", "; ")
		return s, nil, SettingsNone
	}

	if err := config.SaveConfig(&next, s.path); err != nil {
		s.err = fmt.Sprintf("Failed to save config: %v", err)
		return s, nil, SettingsNone
	}

	*s.config = next
	s.SavedTheme = next.Theme
	s.err = ""
	return s, nil, SettingsSaved
}

// View renders the settings screen.
func (s SettingsView) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(s.theme.Base0D).
		Bold(true)
	activeLabelStyle := lipgloss.NewStyle().
		Foreground(s.theme.Base0D).
		Bold(true)
	valStyle := lipgloss.NewStyle().
		Foreground(s.theme.Base06)

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("Settings") + "\n\n")

	if s.err != "" {
		errStyle := lipgloss.NewStyle().Foreground(s.theme.Base08)
		b.WriteString("  " + errStyle.Render(s.err) + "\n\n")
	}

	themeSlug := s.selectedThemeSlug()
	themeName := themeSlug
	if t := styles.GetThemeByName(themeSlug); t != nil {
		themeName = t.Name
	}

	rows := []struct {
		label string
		value string
	}{
		{"Theme", valStyle.Render(fmt.Sprintf("< %s >  (%d/%d)", themeName, s.themeIndex+1, styles.GetThemeCount()))},
		{"Backend URL", s.baseURLInput.View()},
		{"History range", valStyle.Render(fmt.Sprintf("< %d days >", s.historyDays))},
		{"Predictions/min", s.rateInput.View()},
	}

	for i, row := range rows {
		indicator := "  "
		lbl := s.sty.FormLabel
		if i == s.cursor {
			indicator = activeLabelStyle.Render("> ")
			lbl = activeLabelStyle
		}
		b.WriteString(fmt.Sprintf("  %s%s%s\n", indicator, lbl.Render(padRight(row.label+":", 20)), row.value))
	}

	b.WriteString("\n" + s.renderThemePreview())
	b.WriteString("\n  " + s.renderHelp() + "\n")
	return b.String()
}

// renderThemePreview shows a sample readings card in the selected theme.
func (s SettingsView) renderThemePreview() string {
	t := s.selectedTheme()
	sty := styles.NewStyles(t)

	sample := []string{
		sty.CardTitle.Render("readings"),
		sty.FormLabel.Render(padRight("Ambient temp", 14)) + sty.TableRow.Render(padLeft("24.80 °C", 10)) + " " + sty.StatusOK.Render("OK"),
		sty.FormLabel.Render(padRight("Humidity", 14)) + sty.TableRow.Render(padLeft("91.00 %", 10)) + " " + sty.StatusOut.Render("OUT"),
		sty.BandHigh.Bold(true).Render("212.40 kW") + "  " + sty.SparklineStyle.Render("▂▃▅▆▇█▇▆"),
		sty.StaleBadge.Render("STALE") + " " + sty.StatusWarn.Render("connection refused"),
	}
	card := sty.CardSelected.Width(36).Render(strings.Join(sample, "\n"))

	swatches := []lipgloss.Color{t.Base08, t.Base09, t.Base0A, t.Base0B, t.Base0C, t.Base0D, t.Base0E}
	var sw strings.Builder
	for _, c := range swatches {
		sw.WriteString(lipgloss.NewStyle().Background(c).Render("   "))
	}

	return lipgloss.NewStyle().MarginLeft(4).Render(
		lipgloss.JoinVertical(lipgloss.Left, card, sw.String()),
	)
}

func (s SettingsView) renderHelp() string {
	helpStyle := lipgloss.NewStyle().Foreground(s.theme.Base04)
	keyStyle := lipgloss.NewStyle().Foreground(s.theme.Base0D).Bold(true)
	return helpStyle.Render(fmt.Sprintf(
		"%s/%s change  %s/%s navigate  %s save  %s cancel",
		keyStyle.Render("[left]"),
		keyStyle.Render("[right]"),
		keyStyle.Render("[up]"),
		keyStyle.Render("[down]"),
		keyStyle.Render("[enter]"),
		keyStyle.Render("[esc]"),
	))
}
