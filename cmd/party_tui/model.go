package party_tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grokparty/grokparty/pkg/conversation"
)

// characterPalette cycles through per-character accent colors in participant
// order.
var characterPalette = []lipgloss.Color{
	lipgloss.Color("1"), // red
	lipgloss.Color("4"), // blue
	lipgloss.Color("2"), // green
	lipgloss.Color("3"), // yellow
	lipgloss.Color("5"), // magenta
	lipgloss.Color("6"), // cyan
}

// Model is the state of the live conversation view.
type Model struct {
	Config  conversation.Config
	Signals *conversation.ChannelSignals
	KeyMap  KeyMap

	events <-chan conversation.Event

	Messages []conversation.Message
	Thinking string // name of the character awaiting a reply, "" when idle
	Status   conversation.Status
	Notice   string // transient export/stop feedback shown in the footer

	colors map[string]lipgloss.Color

	viewport viewport.Model
	ready    bool
	dots     int

	Width  int
	Height int

	quitting bool
}

// New creates the view for a conversation about to start.
func New(cfg conversation.Config, signals *conversation.ChannelSignals, events <-chan conversation.Event) Model {
	colors := make(map[string]lipgloss.Color, len(cfg.Participants))
	for i, ch := range cfg.Participants {
		colors[strings.ToLower(ch.Name)] = characterPalette[i%len(characterPalette)]
	}
	return Model{
		Config:  cfg,
		Signals: signals,
		KeyMap:  NewKeyMap(),
		events:  events,
		Status:  conversation.StatusRunning,
		colors:  colors,
	}
}

// Init starts event consumption and the thinking animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

// Run wires an engine to the TUI and blocks until the conversation ends or
// the user quits. Ctrl+C abandons any in-flight completion call.
func Run(conv *conversation.Conversation, client conversation.Completer, engineCfg conversation.EngineConfig) error {
	signals := conversation.NewChannelSignals()
	eng := conversation.NewEngine(conv, client, signals, engineCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	p := tea.NewProgram(New(conv.Config(), signals, eng.Events()), tea.WithAltScreen())
	_, uiErr := p.Run()

	// The UI is gone; unblock the engine and drain whatever it still emits.
	cancel()
	go func() {
		for range eng.Events() {
		}
	}()

	engineErr := <-runErr
	if uiErr != nil {
		return uiErr
	}
	return engineErr
}
