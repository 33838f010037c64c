package party_tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grokparty/grokparty/pkg/conversation"
)

// Message types
type EventMsg struct{ Event conversation.Event }
type EngineDoneMsg struct{}
type TickMsg time.Time

// waitForEvent blocks on the engine's event channel and converts the next
// event into a bubbletea message. A closed channel means the engine's Run
// has returned.
func waitForEvent(events <-chan conversation.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EngineDoneMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// tick animates the "thinking" indicator.
func tick() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
