package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grokparty/grokparty/pkg/conversation"
	"github.com/grokparty/grokparty/pkg/grok"
)

var ErrWizardQuit = errors.New("setup cancelled")

// setupResult is what the wizard collected.
type setupResult struct {
	Config conversation.Config
	APIKey string
}

// runSetupWizard collects whatever the flags did not provide: the API key
// when none is configured, the scenario, and two to four characters.
func runSetupWizard(partyCfg PartyConfig, initial conversation.Config, apiKey string) (setupResult, error) {
	m := newSetupModel(partyCfg, initial, apiKey)
	p := tea.NewProgram(m)

	final, err := p.Run()
	if err != nil {
		return setupResult{}, fmt.Errorf("setup wizard: %w", err)
	}

	fm, ok := final.(setupModel)
	if !ok || fm.quitting || fm.step != stepDone {
		return setupResult{}, ErrWizardQuit
	}
	return setupResult{Config: fm.cfg, APIKey: fm.apiKey}, nil
}

type setupStep int

const (
	stepAPIKey setupStep = iota
	stepType
	stepTopic
	stepSetting
	stepMood
	stepCount
	stepCharName
	stepCharPersonality
	stepCharModel
	stepDecisionModel
	stepDone
)

type setupModel struct {
	partyCfg PartyConfig

	step     setupStep
	cfg      conversation.Config
	apiKey   string
	initial  []conversation.Character
	draft    conversation.Character
	count    int
	errLine  string
	quitting bool
	width    int

	input     textinput.Model
	typeList  list.Model
	countList list.Model
	modelList list.Model
}

type wizardItem string

func (i wizardItem) FilterValue() string { return string(i) }

type wizardDelegate struct{}

func (d wizardDelegate) Height() int                               { return 1 }
func (d wizardDelegate) Spacing() int                              { return 0 }
func (d wizardDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d wizardDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(wizardItem)
	if !ok {
		return
	}

	cursor := " "
	if index == m.Index() {
		cursor = ">"
	}

	str := fmt.Sprintf("%s %s", cursor, i)
	if index == m.Index() {
		fmt.Fprint(w, lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(str))
	} else {
		fmt.Fprint(w, str)
	}
}

func newWizardList(items []list.Item, height int) list.Model {
	l := list.New(items, wizardDelegate{}, 40, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

func newSetupModel(partyCfg PartyConfig, initial conversation.Config, apiKey string) setupModel {
	m := setupModel{
		partyCfg: partyCfg,
		cfg:      initial,
		apiKey:   apiKey,
		initial:  initial.Participants,
	}
	m.cfg.Participants = nil

	m.input = textinput.New()
	m.input.CharLimit = 200
	m.input.Width = 50
	m.input.Focus()

	typeItems := make([]list.Item, 0, len(conversation.Types()))
	selectedType := 0
	for i, t := range conversation.Types() {
		typeItems = append(typeItems, wizardItem(t))
		if t == initial.Type {
			selectedType = i
		}
	}
	m.typeList = newWizardList(typeItems, len(typeItems)+1)
	m.typeList.Select(selectedType)

	countItems := []list.Item{wizardItem("2"), wizardItem("3"), wizardItem("4")}
	m.countList = newWizardList(countItems, 4)
	if n := len(m.initial); n > 2 {
		m.countList.Select(n - 2)
	}

	modelItems := make([]list.Item, 0, len(grok.Models()))
	for _, info := range grok.Models() {
		modelItems = append(modelItems, wizardItem(fmt.Sprintf("%-16s %s", info.ID, info.Name)))
	}
	m.modelList = newWizardList(modelItems, len(modelItems)+1)

	if m.apiKey == "" {
		m.step = stepAPIKey
		m.input.EchoMode = textinput.EchoPassword
		m.input.Placeholder = "xai-..."
	} else {
		m.step = stepType
	}
	return m
}

func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.advance()
		}
	}

	var cmd tea.Cmd
	switch m.step {
	case stepType:
		m.typeList, cmd = m.typeList.Update(msg)
	case stepCount:
		m.countList, cmd = m.countList.Update(msg)
	case stepCharModel, stepDecisionModel:
		m.modelList, cmd = m.modelList.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// advance validates the current step and moves to the next one.
func (m setupModel) advance() (tea.Model, tea.Cmd) {
	m.errLine = ""

	switch m.step {
	case stepAPIKey:
		key := strings.TrimSpace(m.input.Value())
		if key == "" {
			m.errLine = "An API key is required. Get one at https://x.ai."
			return m, nil
		}
		m.apiKey = key
		m.input.EchoMode = textinput.EchoNormal
		m.step = stepType

	case stepType:
		if it, ok := m.typeList.SelectedItem().(wizardItem); ok {
			m.cfg.Type = conversation.Type(it)
		}
		m.prepareInput(m.cfg.Topic, "anything")
		m.step = stepTopic

	case stepTopic:
		m.cfg.Topic = valueOr(m.input, "anything")
		m.prepareInput(m.cfg.Setting, "anywhere")
		m.step = stepSetting

	case stepSetting:
		m.cfg.Setting = valueOr(m.input, "anywhere")
		fallback := m.partyCfg.Mood
		if fallback == "" {
			fallback = "friendly"
		}
		m.prepareInput(m.cfg.Mood, fallback)
		m.step = stepMood

	case stepMood:
		fallback := m.partyCfg.Mood
		if fallback == "" {
			fallback = "friendly"
		}
		m.cfg.Mood = valueOr(m.input, fallback)
		m.step = stepCount

	case stepCount:
		if it, ok := m.countList.SelectedItem().(wizardItem); ok {
			m.count, _ = strconv.Atoi(string(it))
		}
		m.startCharacter()
		m.step = stepCharName

	case stepCharName:
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.errLine = "Every character needs a name."
			return m, nil
		}
		for _, ch := range m.cfg.Participants {
			if strings.EqualFold(ch.Name, name) {
				m.errLine = fmt.Sprintf("%s is already at the party; pick another name.", ch.Name)
				return m, nil
			}
		}
		m.draft.Name = name
		m.prepareInput(m.draft.Personality, "")
		m.input.Placeholder = "a grumpy historian who quotes primary sources"
		m.step = stepCharPersonality

	case stepCharPersonality:
		personality := strings.TrimSpace(m.input.Value())
		if personality == "" {
			m.errLine = "Describe the personality in a phrase or two."
			return m, nil
		}
		m.draft.Personality = personality
		m.selectModel(m.draft.ModelID)
		m.step = stepCharModel

	case stepCharModel:
		m.draft.ModelID = grok.Models()[m.modelList.Index()].ID
		m.cfg.Participants = append(m.cfg.Participants, m.draft)
		if len(m.cfg.Participants) < m.count {
			m.startCharacter()
			m.step = stepCharName
		} else {
			m.selectModel(m.cfg.DecisionModel)
			m.step = stepDecisionModel
		}

	case stepDecisionModel:
		m.cfg.DecisionModel = grok.Models()[m.modelList.Index()].ID
		m.step = stepDone
		return m, tea.Quit
	}

	return m, nil
}

// startCharacter resets the draft for the next character, reusing any
// partially flag-supplied character at the same position.
func (m *setupModel) startCharacter() {
	idx := len(m.cfg.Participants)
	m.draft = conversation.Character{ModelID: m.partyCfg.DefaultModel}
	if idx < len(m.initial) {
		m.draft = m.initial[idx]
		if m.draft.ModelID == "" {
			m.draft.ModelID = m.partyCfg.DefaultModel
		}
	}
	m.prepareInput(m.draft.Name, "")
	m.input.Placeholder = "Ada"
}

// prepareInput resets the shared text input with an existing value and a
// placeholder showing the default applied on empty submit.
func (m *setupModel) prepareInput(value, placeholder string) {
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
}

// selectModel moves the model list cursor to the given model, or to the
// catalog default when it is unknown.
func (m *setupModel) selectModel(id string) {
	if id == "" {
		id = grok.DefaultModel
	}
	for i, info := range grok.Models() {
		if info.ID == id {
			m.modelList.Select(i)
			return
		}
	}
	m.modelList.Select(0)
}

func valueOr(in textinput.Model, fallback string) string {
	if v := strings.TrimSpace(in.Value()); v != "" {
		return v
	}
	return fallback
}

var (
	wizardTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	wizardPromptStyle = lipgloss.NewStyle().Bold(true)
	wizardErrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	wizardHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m setupModel) View() string {
	if m.quitting || m.step == stepDone {
		return ""
	}

	var b strings.Builder
	b.WriteString(wizardTitleStyle.Render("GrokParty setup"))
	b.WriteString("\n\n")
	b.WriteString(wizardPromptStyle.Render(m.prompt()))
	b.WriteString("\n\n")

	switch m.step {
	case stepType:
		b.WriteString(m.typeList.View())
	case stepCount:
		b.WriteString(m.countList.View())
	case stepCharModel, stepDecisionModel:
		b.WriteString(m.modelList.View())
	default:
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")

	if m.errLine != "" {
		b.WriteString("\n" + wizardErrStyle.Render(m.errLine) + "\n")
	}

	b.WriteString("\n" + wizardHelpStyle.Render("enter confirm  •  esc cancel"))
	return b.String()
}

func (m setupModel) prompt() string {
	switch m.step {
	case stepAPIKey:
		return "Paste your Grok API key (stored only for this session):"
	case stepType:
		return "What kind of conversation is this?"
	case stepTopic:
		return "What should they talk about?"
	case stepSetting:
		return "Where does it take place?"
	case stepMood:
		return "What is the mood?"
	case stepCount:
		return "How many characters?"
	case stepCharName:
		return fmt.Sprintf("Character %d of %d. Name?", len(m.cfg.Participants)+1, m.count)
	case stepCharPersonality:
		return fmt.Sprintf("Describe %s's personality:", m.draft.Name)
	case stepCharModel:
		return fmt.Sprintf("Which model speaks for %s?", m.draft.Name)
	case stepDecisionModel:
		return "Which model picks the next speaker?"
	}
	return ""
}
