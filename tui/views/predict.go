package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/tui/keys"
	"github.com/tonhe/sol/tui/styles"
)

// PredictAction describes what the app should do after a form update.
type PredictAction int

const (
	PredictNone PredictAction = iota
	PredictClose
	PredictSubmit
)

const (
	predictFieldAmbient = iota
	predictFieldModule
	predictFieldIrradiation
	predictFieldCount
)

var predictLabels = [predictFieldCount]string{
	"Ambient temp (°C)",
	"Module temp (°C)",
	"Irradiation (kW/m²)",
}

// PredictView is the on-demand prediction form.
type PredictView struct {
	theme  styles.Theme
	sty    *styles.Styles
	inputs [predictFieldCount]textinput.Model
	focus  int
	width  int
	height int

	pending bool
	err     string
	result  string
}

// NewPredictView creates an empty form with the first field focused.
func NewPredictView(theme styles.Theme) PredictView {
	v := PredictView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
	placeholders := [predictFieldCount]string{"25", "40", "0.8"}
	for i := range v.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 12
		in.Width = 16
		v.inputs[i] = in
	}
	v.inputs[0].Focus()
	return v
}

// SetTheme restyles the view.
func (v *PredictView) SetTheme(theme styles.Theme) {
	v.theme = theme
	v.sty = styles.NewStyles(theme)
}

// SetSize updates the available dimensions for the view.
func (v *PredictView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Reading parses the form into a request stamped with at.
func (v PredictView) Reading(at time.Time) (client.SensorReading, error) {
	var vals [predictFieldCount]float64
	for i, in := range v.inputs {
		s := strings.TrimSpace(in.Value())
		if s == "" {
			return client.SensorReading{}, fmt.Errorf("%s is required", predictLabels[i])
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return client.SensorReading{}, fmt.Errorf("%s: %q is not a number", predictLabels[i], s)
		}
		vals[i] = f
	}
	return client.NewSensorReading(vals[predictFieldAmbient], vals[predictFieldModule], vals[predictFieldIrradiation], at), nil
}

// SetPending marks a request in flight.
func (v *PredictView) SetPending() {
	v.pending = true
	v.err = ""
	v.result = ""
}

// SetResult records the outcome of the last request.
func (v *PredictView) SetResult(kw float64, err error) {
	v.pending = false
	if err != nil {
		v.err = err.Error()
		v.result = ""
		return
	}
	v.err = ""
	v.result = fmt.Sprintf("%.2f kW", kw)
}

// Update handles focus movement, editing and submission.
func (v PredictView) Update(msg tea.Msg) (PredictView, tea.Cmd, PredictAction) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Escape):
			return v, nil, PredictClose
		case key.Matches(msg, keys.DefaultKeyMap.Enter):
			if _, err := v.Reading(time.Now()); err != nil {
				v.err = err.Error()
				return v, nil, PredictNone
			}
			return v, nil, PredictSubmit
		case msg.String() == "tab" || msg.String() == "down":
			v.setFocus((v.focus + 1) % predictFieldCount)
			return v, nil, PredictNone
		case msg.String() == "shift+tab" || msg.String() == "up":
			v.setFocus((v.focus + predictFieldCount - 1) % predictFieldCount)
			return v, nil, PredictNone
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd, PredictNone
}

func (v *PredictView) setFocus(i int) {
	v.inputs[v.focus].Blur()
	v.focus = i
	v.inputs[v.focus].Focus()
}

// View renders the form as a centered modal.
func (v PredictView) View() string {
	var lines []string
	for i, in := range v.inputs {
		label := v.sty.FormLabel.Render(padRight(predictLabels[i], 22))
		field := v.sty.FormInput.Render(in.View())
		if i == v.focus {
			label = v.sty.FormCursor.Render("> ") + label
			field = v.sty.FormInputActive.Render(in.View())
		} else {
			label = "  " + label
		}
		lines = append(lines, label+field)
	}
	lines = append(lines, "")

	switch {
	case v.pending:
		lines = append(lines, v.sty.StatusWarn.Render("Requesting prediction..."))
	case v.err != "":
		lines = append(lines, v.sty.StatusOut.Render(truncate(v.err, 50)))
	case v.result != "":
		lines = append(lines, v.sty.FormLabel.Render("Predicted AC power: ")+v.sty.StatusOK.Bold(true).Render(v.result))
	default:
		lines = append(lines, v.sty.TableCellDim.Render("Hour, weekday and month are taken from now."))
	}
	lines = append(lines, "", v.sty.TableCellDim.Render("[tab] next  [enter] predict  [esc] close"))

	modal := v.sty.ModalBorder.Render(
		lipgloss.JoinVertical(lipgloss.Left, v.sty.ModalTitle.Render("Predict power"), "", strings.Join(lines, "\n")),
	)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, modal)
}
