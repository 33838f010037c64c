package conversation

import "time"

// SystemSpeaker is the sentinel speaker name for narrator and error notices
// that are part of the transcript but not produced by any character.
const SystemSpeaker = "system"

// Message is one entry in the transcript. Messages are immutable once
// appended; the timestamp is fixed at append time.
type Message struct {
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSystem reports whether the message is a system notice rather than a
// character line.
func (m Message) IsSystem() bool {
	return m.Speaker == SystemSpeaker
}
