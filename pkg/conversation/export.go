package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Document is the JSON interchange format for an exported conversation.
// Field order and key names are fixed for interoperability; messages keep
// transcript order exactly.
type Document struct {
	Type         string            `json:"type"`
	Topic        string            `json:"topic"`
	Setting      string            `json:"setting"`
	Participants []string          `json:"participants"`
	Messages     []DocumentMessage `json:"messages"`
}

// DocumentMessage is one exported transcript entry. Timestamps are the
// ISO-8601 instants recorded at append time.
type DocumentMessage struct {
	Speaker   string `json:"speaker"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// BuildDocument converts a conversation snapshot into its export document.
// It is a pure function of the snapshot: exporting twice without
// intervening turns yields identical bytes.
func BuildDocument(c *Conversation) Document {
	cfg := c.Config()
	names := make([]string, 0, len(cfg.Participants))
	for _, ch := range cfg.Participants {
		names = append(names, ch.Name)
	}
	msgs := c.Messages()
	out := make([]DocumentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, DocumentMessage{
			Speaker:   m.Speaker,
			Content:   m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return Document{
		Type:         string(cfg.Type),
		Topic:        cfg.Topic,
		Setting:      cfg.Setting,
		Participants: names,
		Messages:     out,
	}
}

// Marshal renders a document with two-space indentation.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// WriteFile exports the conversation to path.
func WriteFile(c *Conversation, path string) error {
	data, err := Marshal(BuildDocument(c))
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// DefaultFilename names an export after its moment of creation.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("grokparty_conversation_%s.json", now.UTC().Format("20060102_150405"))
}
