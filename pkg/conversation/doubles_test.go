package conversation_test

import (
	"context"
	"sync"

	"github.com/grokparty/grokparty/pkg/conversation"
	"github.com/grokparty/grokparty/pkg/grok"
)

// fakeCompleter is a test double for the completion client. It records every
// request and delegates to CompleteFunc when set.
type fakeCompleter struct {
	mu sync.Mutex

	// Calls records all requests in order.
	Calls []grok.CompletionRequest

	// CompleteFunc allows custom behavior per request.
	CompleteFunc func(req grok.CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req grok.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	fn := f.CompleteFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return "a reply", nil
}

func (f *fakeCompleter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// isSelectionCall distinguishes speaker-selection requests from character
// replies: only replies carry a system prompt.
func isSelectionCall(req grok.CompletionRequest) bool {
	return req.SystemPrompt == ""
}

func twoCharacters() []conversation.Character {
	return []conversation.Character{
		{Name: "Alice", Personality: "a cheerful physicist", ModelID: "grok-3"},
		{Name: "Bob", Personality: "a grumpy historian", ModelID: "grok-3-mini"},
	}
}

func threeCharacters() []conversation.Character {
	return append(twoCharacters(),
		conversation.Character{Name: "Carol", Personality: "a sarcastic chef", ModelID: "grok-4"},
	)
}

func testConfig(participants []conversation.Character) conversation.Config {
	return conversation.Config{
		Type:          conversation.TypeDebate,
		Topic:         "the best pizza topping",
		Setting:       "a rooftop bar",
		Mood:          "friendly",
		Participants:  participants,
		DecisionModel: "grok-3-mini",
	}
}

// collectEvents drains the engine's event channel into a slice and signals
// completion, so tests can inspect the stream after Run returns.
func collectEvents(eng *conversation.Engine) (func() []conversation.Event, <-chan struct{}) {
	var mu sync.Mutex
	var events []conversation.Event
	done := make(chan struct{})
	go func() {
		for ev := range eng.Events() {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
		close(done)
	}()
	return func() []conversation.Event {
		mu.Lock()
		defer mu.Unlock()
		out := make([]conversation.Event, len(events))
		copy(out, events)
		return out
	}, done
}
