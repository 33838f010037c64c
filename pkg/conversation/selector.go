package conversation

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/grokparty/grokparty/pkg/grok"
)

// Completer is the narrow slice of the completion API the core consumes.
// *grok.Client satisfies it; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, req grok.CompletionRequest) (string, error)
}

// Selector decides which character speaks next, asking the decision model
// and falling back to a deterministic rule when the model fails or names
// someone outside the roster. It never mutates conversation state and never
// returns a character that is not a participant.
type Selector struct {
	client      Completer
	model       string
	window      int
	temperature float64
	log         *logrus.Entry
}

// NewSelector creates a selector bound to a decision model. window bounds
// how much transcript the selection prompt carries.
func NewSelector(client Completer, model string, window int, temperature float64) *Selector {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Selector{
		client:      client,
		model:       model,
		window:      window,
		temperature: temperature,
		log:         logrus.WithField("component", "selector"),
	}
}

// SelectNext picks the next speaker from cfg.Participants given the history.
func (s *Selector) SelectNext(ctx context.Context, cfg Config, history []Message) Character {
	participants := cfg.Participants

	// Nobody has spoken: the first participant opens, regardless of roster
	// size. Deterministic, so the opener is predictable in tests and replays.
	last, spoken := lastCharacterSpeaker(history, participants)
	if !spoken {
		return participants[0]
	}

	// With two participants they simply alternate; no call needed.
	if len(participants) == 2 {
		if strings.EqualFold(participants[0].Name, last.Name) {
			return participants[1]
		}
		return participants[0]
	}

	prompt := selectionPrompt(cfg, recentMessages(history, s.window))
	reply, err := s.client.Complete(ctx, grok.CompletionRequest{
		Model:       s.model,
		Prompt:      prompt,
		Temperature: s.temperature,
	})
	if err != nil {
		s.log.WithError(err).Debug("speaker selection call failed, using fallback")
		return leastRecentSpeaker(history, participants)
	}

	if ch, ok := matchParticipant(reply, participants); ok {
		return ch
	}
	s.log.WithField("reply", reply).Debug("selector reply named no participant, using fallback")
	return leastRecentSpeaker(history, participants)
}

// matchParticipant extracts a character name from a selector reply. The
// expected shape is "<name>|<reason>"; matching is case-insensitive and
// tolerant of surrounding whitespace and trailing punctuation.
func matchParticipant(reply string, participants []Character) (Character, bool) {
	name := reply
	if idx := strings.IndexRune(reply, '|'); idx >= 0 {
		name = reply[:idx]
	}
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"'`)
	name = strings.TrimRight(name, ".!?:;,")
	name = strings.TrimSpace(name)
	if name == "" {
		return Character{}, false
	}
	for _, ch := range participants {
		if strings.EqualFold(ch.Name, name) {
			return ch, true
		}
	}
	return Character{}, false
}

// leastRecentSpeaker is the deterministic fallback: the participant whose
// last line is oldest speaks next, with never-spoken participants first and
// roster order breaking ties. If the selector always fails, this cycles
// through everyone before repeating anyone.
func leastRecentSpeaker(history []Message, participants []Character) Character {
	lastIndex := make(map[string]int, len(participants))
	for i, m := range history {
		lastIndex[strings.ToLower(m.Speaker)] = i
	}

	best := participants[0]
	bestIdx := len(history)
	for _, ch := range participants {
		idx, ok := lastIndex[strings.ToLower(ch.Name)]
		if !ok {
			idx = -1
		}
		if idx < bestIdx {
			best = ch
			bestIdx = idx
		}
	}
	return best
}

// lastCharacterSpeaker finds the most recent message produced by a roster
// member, skipping system notices.
func lastCharacterSpeaker(history []Message, participants []Character) (Character, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		for _, ch := range participants {
			if strings.EqualFold(history[i].Speaker, ch.Name) {
				return ch, true
			}
		}
	}
	return Character{}, false
}
