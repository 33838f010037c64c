package party_tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Pause  key.Binding
	Stop   key.Binding
	Export key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func NewKeyMap() KeyMap {
	return KeyMap{
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// helpEntries feeds the footer; unrecognized keys are simply ignored by the
// update loop.
func (k KeyMap) helpEntries() []key.Binding {
	return []key.Binding{k.Pause, k.Stop, k.Export, k.Quit}
}
