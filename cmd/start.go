package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/grokparty/grokparty/cmd/party_tui"
	"github.com/grokparty/grokparty/pkg/conversation"
	"github.com/grokparty/grokparty/pkg/grok"
)

var (
	startType          string
	startTopic         string
	startSetting       string
	startMood          string
	startCharacters    []string
	startDecisionModel string
	startTurns         int
	startNoTUI         bool
	startOutput        string
	startAPIKey        string
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a conversation between AI characters",
		Long: `Starts a live conversation. Without flags an interactive setup wizard
collects the cast and the scenario; with flags the conversation starts
immediately.

During a conversation:
  p   pause / resume
  s   stop
  e   export the transcript so far to JSON

Examples:
  grokparty start
  grokparty start --type debate --topic "time travel" --setting "a diner" \
    --character "Ada:a pioneering mathematician" \
    --character "Bebop:an improvising jazz robot:grok-3-mini"
  grokparty start --no-tui --turns 8 --output party.json \
    --character "Ada:a mathematician" --character "Bebop:a robot"`,
		RunE: runStart,
	}

	cmd.Flags().StringVar(&startType, "type", "conversation", "Conversation type: conversation, debate, argument, meeting, brainstorming, lighthearted, joking, therapy")
	cmd.Flags().StringVar(&startTopic, "topic", "", "What the characters talk about")
	cmd.Flags().StringVar(&startSetting, "setting", "", "Where the conversation takes place")
	cmd.Flags().StringVar(&startMood, "mood", "", "Mood of the conversation (default from config, \"friendly\")")
	cmd.Flags().StringArrayVarP(&startCharacters, "character", "c", nil, "Character as \"name:personality[:model]\" (repeat 2-4 times)")
	cmd.Flags().StringVar(&startDecisionModel, "decision-model", "", "Model used to pick the next speaker")
	cmd.Flags().IntVar(&startTurns, "turns", 0, "Stop after this many turns (0 = run until stopped)")
	cmd.Flags().BoolVar(&startNoTUI, "no-tui", false, "Plain console output without interactive controls")
	cmd.Flags().StringVarP(&startOutput, "output", "o", "", "Export the transcript to this file when the conversation ends")
	cmd.Flags().StringVar(&startAPIKey, "api-key", "", "Grok API key (overrides GROK_API_KEY)")
	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	partyCfg, err := LoadPartyConfig()
	if err != nil {
		return err
	}

	apiKey := resolveAPIKey(startAPIKey)
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	convCfg, complete, err := configFromFlags(partyCfg)
	if err != nil {
		return err
	}

	if !complete {
		if !isTTY {
			return fmt.Errorf("not a terminal: specify at least two --character flags and a --topic")
		}
		wizard, err := runSetupWizard(partyCfg, convCfg, apiKey)
		if err != nil {
			return err
		}
		convCfg = wizard.Config
		if wizard.APIKey != "" {
			apiKey = wizard.APIKey
		}
	}

	client, err := newGrokClient(apiKey, partyCfg)
	if err != nil {
		return err
	}
	if err := validateModels(convCfg); err != nil {
		return err
	}

	conv, err := conversation.New(convCfg)
	if err != nil {
		return err
	}

	engineCfg, err := partyCfg.EngineConfig()
	if err != nil {
		return err
	}
	engineCfg.MaxTurns = startTurns

	if startNoTUI || !isTTY {
		return runHeadless(conv, client, engineCfg)
	}
	return runPartyTUI(conv, client, engineCfg)
}

func newGrokClient(apiKey string, partyCfg PartyConfig) (*grok.Client, error) {
	var opts []grok.Option
	if partyCfg.BaseURL != "" {
		opts = append(opts, grok.WithBaseURL(partyCfg.BaseURL))
	}
	return grok.NewClient(apiKey, opts...)
}

// configFromFlags assembles a conversation config from command-line flags.
// complete is false when the flags do not fully describe a conversation and
// the wizard should fill in the rest.
func configFromFlags(partyCfg PartyConfig) (conversation.Config, bool, error) {
	convType, err := conversation.ParseType(startType)
	if err != nil {
		return conversation.Config{}, false, err
	}

	mood := startMood
	if mood == "" {
		mood = partyCfg.Mood
	}
	decisionModel := startDecisionModel
	if decisionModel == "" {
		decisionModel = partyCfg.DecisionModel
	}

	cfg := conversation.Config{
		Type:          convType,
		Topic:         startTopic,
		Setting:       startSetting,
		Mood:          mood,
		DecisionModel: decisionModel,
	}

	for _, spec := range startCharacters {
		ch, err := parseCharacterSpec(spec, partyCfg.DefaultModel)
		if err != nil {
			return conversation.Config{}, false, err
		}
		cfg.Participants = append(cfg.Participants, ch)
	}

	complete := len(cfg.Participants) >= 2 && cfg.Topic != "" && cfg.Setting != ""
	return cfg, complete, nil
}

// parseCharacterSpec parses "name:personality[:model]".
func parseCharacterSpec(spec, defaultModel string) (conversation.Character, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return conversation.Character{}, fmt.Errorf("invalid character %q: expected \"name:personality[:model]\"", spec)
	}
	ch := conversation.Character{
		Name:        strings.TrimSpace(parts[0]),
		Personality: strings.TrimSpace(parts[1]),
		ModelID:     defaultModel,
	}
	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		ch.ModelID = strings.TrimSpace(parts[2])
	}
	return ch, nil
}

// validateModels rejects unknown model identifiers before the first turn,
// where a bad identifier is a setup mistake rather than a runtime failure.
func validateModels(cfg conversation.Config) error {
	if !grok.KnownModel(cfg.DecisionModel) {
		return &grok.InvalidModelError{Model: cfg.DecisionModel}
	}
	for _, ch := range cfg.Participants {
		if !grok.KnownModel(ch.ModelID) {
			return &grok.InvalidModelError{Model: ch.ModelID}
		}
	}
	return nil
}

func runPartyTUI(conv *conversation.Conversation, client *grok.Client, engineCfg conversation.EngineConfig) error {
	restore, err := redirectLogsToFile()
	if err == nil {
		defer restore()
	}

	if err := party_tui.Run(conv, client, engineCfg); err != nil {
		return err
	}
	if startOutput != "" {
		if err := conversation.WriteFile(conv, startOutput); err != nil {
			return err
		}
		fmt.Printf("%s Conversation exported to %s\n", color.GreenString("✓"), startOutput)
	}
	return nil
}

// runHeadless drives a bounded conversation without interactive controls,
// printing each line as it arrives. Ctrl+C stops it.
func runHeadless(conv *conversation.Conversation, client *grok.Client, engineCfg conversation.EngineConfig) error {
	if engineCfg.MaxTurns <= 0 {
		return fmt.Errorf("--no-tui requires --turns")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	output := termenv.NewOutput(os.Stdout)
	styles := headlessStyles(output, conv.Participants())

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), engineCfg)

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	for ev := range eng.Events() {
		switch ev := ev.(type) {
		case conversation.MessageEvent:
			msg := ev.Message
			name := msg.Speaker
			if style, ok := styles[strings.ToLower(name)]; ok {
				name = style.String()
			}
			fmt.Printf("%s: %s\n\n", name, msg.Content)
		case conversation.StatusEvent:
			if ev.Status == conversation.StatusStopped {
				fmt.Printf("%s Conversation finished\n", color.GreenString("✓"))
			}
		}
	}

	if err := <-runErr; err != nil {
		return err
	}
	if startOutput != "" {
		if err := conversation.WriteFile(conv, startOutput); err != nil {
			return err
		}
		fmt.Printf("%s Conversation exported to %s\n", color.GreenString("✓"), startOutput)
	}
	return nil
}

// headlessStyles assigns each participant a per-name terminal color, keyed
// by lower-cased name.
func headlessStyles(output *termenv.Output, participants []conversation.Character) map[string]termenv.Style {
	palette := []string{"1", "4", "2", "3", "5", "6"} // red blue green yellow magenta cyan
	styles := make(map[string]termenv.Style, len(participants))
	for i, ch := range participants {
		c := output.Color(palette[i%len(palette)])
		styles[strings.ToLower(ch.Name)] = output.String(ch.Name).Foreground(c).Bold()
	}
	return styles
}
