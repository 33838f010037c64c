package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type selects the tone-framing text injected into prompts.
type Type string

const (
	TypeConversation  Type = "conversation"
	TypeDebate        Type = "debate"
	TypeArgument      Type = "argument"
	TypeMeeting       Type = "meeting"
	TypeBrainstorming Type = "brainstorming"
	TypeLighthearted  Type = "lighthearted"
	TypeJoking        Type = "joking"
	TypeTherapy       Type = "therapy"
)

// Types lists every valid conversation type, in display order.
func Types() []Type {
	return []Type{
		TypeConversation, TypeDebate, TypeArgument, TypeMeeting,
		TypeBrainstorming, TypeLighthearted, TypeJoking, TypeTherapy,
	}
}

// ParseType converts a user-supplied string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown conversation type %q", s)
}

// Status gates turn progression.
type Status int

const (
	StatusRunning Status = iota
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	minParticipants = 2
	maxParticipants = 4
)

// Config is everything a conversation needs before the first turn. It is
// validated once at construction instead of ad hoc during setup prompting.
type Config struct {
	Type          Type        `json:"type"`
	Topic         string      `json:"topic"`
	Setting       string      `json:"setting"`
	Mood          string      `json:"mood"`
	Participants  []Character `json:"participants"`
	DecisionModel string      `json:"decision_model"`
}

// Validate checks participant bounds, name uniqueness, and required fields.
func (c *Config) Validate() error {
	if _, err := ParseType(string(c.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("topic must not be empty")
	}
	if strings.TrimSpace(c.Setting) == "" {
		return fmt.Errorf("setting must not be empty")
	}
	if strings.TrimSpace(c.DecisionModel) == "" {
		return fmt.Errorf("decision model must not be empty")
	}
	if n := len(c.Participants); n < minParticipants || n > maxParticipants {
		return fmt.Errorf("conversations need between %d and %d participants, got %d", minParticipants, maxParticipants, n)
	}
	seen := make(map[string]bool, len(c.Participants))
	for _, ch := range c.Participants {
		if err := ch.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(ch.Name)
		if seen[key] {
			return fmt.Errorf("duplicate character name %q", ch.Name)
		}
		seen[key] = true
	}
	return nil
}

// Conversation is the shared state: the validated configuration plus the
// append-only message log and the run status.
//
// Mutation happens exclusively inside the turn engine's loop; everything
// else reads snapshots. That single-writer discipline is what makes a plain
// slice and status field sufficient here.
type Conversation struct {
	ID  string
	cfg Config

	messages []Message
	status   Status
}

// New validates cfg and creates an empty conversation.
func New(cfg Config) (*Conversation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation config: %w", err)
	}
	return &Conversation{
		ID:  uuid.New().String(),
		cfg: cfg,
	}, nil
}

// Config returns the immutable configuration.
func (c *Conversation) Config() Config {
	return c.cfg
}

// Participants returns the participant roster in setup order.
func (c *Conversation) Participants() []Character {
	return c.cfg.Participants
}

// Append records a new message with the current time and returns it. The
// timestamp never moves backwards relative to the previous message.
func (c *Conversation) Append(speaker, content string) Message {
	now := time.Now()
	if n := len(c.messages); n > 0 && now.Before(c.messages[n-1].Timestamp) {
		now = c.messages[n-1].Timestamp
	}
	msg := Message{
		Speaker:   speaker,
		Content:   strings.TrimSpace(content),
		Timestamp: now,
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns a copy of the transcript so callers can never mutate or
// reorder the log.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages appended so far.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Status returns the current run status.
func (c *Conversation) Status() Status {
	return c.status
}

func (c *Conversation) setStatus(s Status) {
	c.status = s
}
