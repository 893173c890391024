package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/internal/engine"
	"github.com/tonhe/sol/tui/keys"
	"github.com/tonhe/sol/tui/styles"
)

// EnginesView is a modal overlay listing the poller behind every panel.
type EnginesView struct {
	theme  styles.Theme
	sty    *styles.Styles
	items  []engine.EngineInfo
	cursor int
	width  int
	height int
}

// NewEnginesView creates a new EnginesView with the given theme.
func NewEnginesView(theme styles.Theme) EnginesView {
	return EnginesView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// SetTheme restyles the overlay.
func (v *EnginesView) SetTheme(theme styles.Theme) {
	v.theme = theme
	v.sty = styles.NewStyles(theme)
}

// Refresh replaces the listed pollers.
func (v *EnginesView) Refresh(infos []engine.EngineInfo) {
	v.items = infos
	if v.cursor >= len(v.items) {
		v.cursor = len(v.items) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// SetSize updates the available dimensions for the overlay.
func (v *EnginesView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update handles key messages. The bool reports that the overlay should
// close.
func (v EnginesView) Update(msg tea.Msg) (EnginesView, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Escape), key.Matches(msg, keys.DefaultKeyMap.Engines):
			return v, true
		case key.Matches(msg, keys.DefaultKeyMap.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, keys.DefaultKeyMap.Down):
			if v.cursor < len(v.items)-1 {
				v.cursor++
			}
		}
	}
	return v, false
}

// View renders the overlay as a centered modal box.
func (v EnginesView) View() string {
	modalWidth := 64
	if v.width > 0 && v.width-4 < modalWidth {
		modalWidth = v.width - 4
	}
	if modalWidth < 40 {
		modalWidth = 40
	}
	innerWidth := modalWidth - 6

	var lines []string
	if len(v.items) == 0 {
		lines = append(lines, v.sty.TableCellDim.Render("No pollers running."))
	} else {
		lines = append(lines, v.sty.TableHeader.Render(
			padRight("Panel", 14)+padRight("State", 9)+padLeft("Polls", 7)+padLeft("Errors", 8)+padLeft("Last", 10),
		))
		for i, info := range v.items {
			lines = append(lines, v.renderItem(info, i == v.cursor))
		}
		if sel := v.items[v.cursor]; sel.LastError != nil {
			lines = append(lines, "", v.sty.StatusWarn.Render(truncate("last error: "+sel.LastError.Error(), innerWidth)))
		}
	}

	helpStyle := lipgloss.NewStyle().Foreground(v.theme.Base04)
	helpKeyStyle := lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true)
	help := fmt.Sprintf("%s:select  %s:close", helpKeyStyle.Render("up/down"), helpKeyStyle.Render("esc"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(lines, "\n"),
		"",
		helpStyle.Render(help),
	)

	noTopBorder := v.sty.ModalBorder.BorderTop(false)
	modalBody := noTopBorder.Width(innerWidth).Render(content)

	// Top border with the title embedded.
	borderFg := lipgloss.NewStyle().Foreground(v.theme.Base0D).Background(v.theme.Base00)
	titleText := " Pollers "
	fullWidth := lipgloss.Width(modalBody)
	rightDashes := fullWidth - 2 - 1 - len(titleText)
	if rightDashes < 0 {
		rightDashes = 0
	}
	topBorder := borderFg.Render("╭─") + v.sty.ModalTitle.Render(titleText) + borderFg.Render(strings.Repeat("─", rightDashes)+"╮")

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, topBorder+"\n"+modalBody)
}

func (v EnginesView) renderItem(info engine.EngineInfo, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	cursorStyle := lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true)

	stateStyle := v.sty.StatusOK
	switch info.State {
	case engine.EngineError:
		stateStyle = v.sty.StatusOut
	case engine.EngineStopped:
		stateStyle = v.sty.TableCellDim
	}

	last := "never"
	if !info.LastPoll.IsZero() {
		last = info.LastPoll.Format(time.TimeOnly)
	}

	nameStyle := v.sty.TableRow
	if selected {
		nameStyle = nameStyle.Bold(true)
	}
	return cursorStyle.Render(cursor) +
		nameStyle.Render(padRight(truncate(info.Name, 12), 12)) +
		stateStyle.Render(padRight(info.State.String(), 9)) +
		v.sty.TableRow.Render(padLeft(fmt.Sprint(info.PollCount), 7)) +
		v.sty.TableRow.Render(padLeft(fmt.Sprint(info.ErrorCount), 8)) +
		v.sty.TableCellDim.Render(padLeft(last, 10))
}
