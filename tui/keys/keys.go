package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Tab      key.Binding
	Enter    key.Binding
	Escape   key.Binding
	Quit     key.Binding
	Help     key.Binding
	Theme    key.Binding
	Range    key.Binding
	Predict  key.Binding
	History  key.Binding
	Settings key.Binding
	Engines  key.Binding
}

// DefaultKeyMap provides the default set of key bindings.
var DefaultKeyMap = KeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("left/h", "left")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("right/l", "right")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "dark/light")),
	Range:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "5d/30d")),
	Predict:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "predict")),
	History:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "history")),
	Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
	Engines:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "pollers")),
}
