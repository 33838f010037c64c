package conversation

import (
	"fmt"
	"strings"
)

// DefaultHistoryWindow bounds how many prior messages are included in
// selection and reply prompts. It is a cost/latency tunable, not a
// correctness requirement, and can be overridden through EngineConfig.
const DefaultHistoryWindow = 12

// recentMessages returns the last n messages, or all of them when the
// transcript is shorter.
func recentMessages(msgs []Message, n int) []Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// transcript renders a message window as "Name: content" lines, the format
// both prompt builders feed back to the models.
func transcript(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Speaker, m.Content))
	}
	return strings.Join(lines, "\n")
}

// replySystemPrompt frames the character the model is roleplaying.
func replySystemPrompt(speaker Character) string {
	return fmt.Sprintf(`Assume the personality of %s.
Roleplay as them and never break character.
Do not speak as anyone else.
Your responses should be around one to three sentences long, preferably one.
Do not preface them with your name.`, speaker.Personality)
}

// replyUserPrompt asks the speaker for their next line given the recent
// transcript.
func replyUserPrompt(cfg Config, window []Message) string {
	return fmt.Sprintf(`You're the next speaker in a %s about %s.
The setting is %s.
The mood is %s.
Here are the last few messages:

%s

[Stay focused on the main topic, but feel free to explore different aspects of it.
Only move to closely related subjects if the current discussion has reached a natural conclusion.]`,
		cfg.Type, cfg.Topic, cfg.Setting, cfg.Mood, transcript(window))
}

// introPrompt opens the conversation when nobody has spoken yet.
func introPrompt(cfg Config, speaker Character) string {
	others := make([]string, 0, len(cfg.Participants)-1)
	for _, ch := range cfg.Participants {
		if ch.Name != speaker.Name {
			others = append(others, ch.Name)
		}
	}
	return fmt.Sprintf("start a %s about %s with %s. the setting is %s.",
		cfg.Type, cfg.Topic, strings.Join(others, ", "), cfg.Setting)
}

// selectionPrompt asks the decision model to name the next speaker in the
// "<name>|<reason>" format the selector parses.
func selectionPrompt(cfg Config, window []Message) string {
	names := make([]string, 0, len(cfg.Participants))
	for _, ch := range cfg.Participants {
		names = append(names, ch.Name)
	}
	return fmt.Sprintf(`Based on this %s history and listed participants,
reply with the name of the most likely next speaker as it appears before their line
and an explanation of your reasoning in the format of "<name>|<reason>" and nothing else.
Avoid a round-robin style conversation.

Participant names: %s

%s`, cfg.Type, strings.Join(names, ", "), transcript(window))
}
