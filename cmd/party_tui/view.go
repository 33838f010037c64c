package party_tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grokparty/grokparty/pkg/conversation"
)

var (
	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyles = map[conversation.Status]lipgloss.Style{
		conversation.StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		conversation.StatusPaused:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		conversation.StatusStopped: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// View renders the conversation.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Setting the scene..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	names := make([]string, 0, len(m.Config.Participants))
	for _, ch := range m.Config.Participants {
		style := lipgloss.NewStyle().Foreground(m.colorFor(ch.Name))
		names = append(names, style.Render(ch.Name))
	}

	lines := []string{
		labelStyle.Render("Type: ") + string(m.Config.Type),
		labelStyle.Render("Topic: ") + m.Config.Topic,
		labelStyle.Render("Setting: ") + m.Config.Setting,
		labelStyle.Render("Mood: ") + m.Config.Mood,
		labelStyle.Render("Participants: ") + strings.Join(names, ", "),
	}

	width := m.Width - 4
	if width < 20 {
		width = 20
	}
	return headerStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// headerHeight is the rendered header's line count: five info lines plus the
// border.
func (m Model) headerHeight() int {
	return 7
}

func (m Model) renderMessages() string {
	if len(m.Messages) == 0 {
		return mutedStyle.Render("Waiting for the first speaker...")
	}

	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	var blocks []string
	for _, msg := range m.Messages {
		if msg.IsSystem() {
			blocks = append(blocks, systemStyle.Width(width).Render(msg.Content))
			continue
		}
		accent := m.colorFor(msg.Speaker)
		panel := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			Width(width)
		title := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(msg.Speaker)
		blocks = append(blocks, panel.Render(title+"\n"+msg.Content))
	}
	return strings.Join(blocks, "\n")
}

func (m Model) renderFooter() string {
	status := statusStyles[m.Status].Render("● " + m.Status.String())

	var activity string
	switch {
	case m.Thinking != "" && m.Status == conversation.StatusRunning:
		style := lipgloss.NewStyle().Foreground(m.colorFor(m.Thinking))
		activity = fmt.Sprintf("%s is thinking%s", style.Render(m.Thinking), strings.Repeat(".", m.dots))
	case m.Notice != "":
		activity = noticeStyle.Render(m.Notice)
	}

	var help []string
	for _, b := range m.KeyMap.helpEntries() {
		help = append(help, fmt.Sprintf("%s %s", b.Help().Key, mutedStyle.Render(b.Help().Desc)))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		activity,
		status+"  "+strings.Join(help, "  •  "),
	)
}

func (m Model) colorFor(name string) lipgloss.Color {
	if c, ok := m.colors[strings.ToLower(name)]; ok {
		return c
	}
	return lipgloss.Color("7")
}
