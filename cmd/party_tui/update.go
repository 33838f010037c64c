package party_tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grokparty/grokparty/pkg/conversation"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.KeyMap.Quit):
			// Immediate termination, no export.
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.KeyMap.Pause):
			m.Signals.Send(conversation.SignalPauseToggle)
			return m, nil
		case key.Matches(msg, m.KeyMap.Stop):
			m.Signals.Send(conversation.SignalStop)
			m.Notice = "Stopping after the current turn..."
			return m, nil
		case key.Matches(msg, m.KeyMap.Export):
			m.Signals.Send(conversation.SignalExport)
			return m, nil
		case key.Matches(msg, m.KeyMap.Up), key.Matches(msg, m.KeyMap.Down):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		// All other keys are ignored.
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resizeViewport()
		return m, nil

	case TickMsg:
		m.dots = (m.dots + 1) % 4
		return m, tick()

	case EventMsg:
		m.applyEvent(msg.Event)
		return m, waitForEvent(m.events)

	case EngineDoneMsg:
		m.Status = conversation.StatusStopped
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) applyEvent(ev conversation.Event) {
	switch ev := ev.(type) {
	case conversation.StatusEvent:
		m.Status = ev.Status
		if ev.Status == conversation.StatusPaused {
			m.Notice = "Paused. Press p to resume."
		} else {
			m.Notice = ""
		}
	case conversation.TurnStartEvent:
		m.Thinking = ev.Speaker.Name
	case conversation.MessageEvent:
		m.Thinking = ""
		m.Messages = append(m.Messages, ev.Message)
		m.refreshTranscript()
	case conversation.ExportedEvent:
		if ev.Err != nil {
			m.Notice = "Export failed; see the log file for details."
		} else {
			m.Notice = fmt.Sprintf("Exported to %s", ev.Path)
		}
	}
}

func (m *Model) resizeViewport() {
	headerHeight := m.headerHeight()
	footerHeight := 3
	vpHeight := m.Height - headerHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	width := m.Width - 4
	if width < 20 {
		width = 20
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom {
		m.viewport.GotoBottom()
	}
}
