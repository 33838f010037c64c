package conversation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokparty/grokparty/pkg/conversation"
	"github.com/grokparty/grokparty/pkg/grok"
)

func fastEngineConfig() conversation.EngineConfig {
	return conversation.EngineConfig{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		TurnDelay:    0,
		PollInterval: time.Millisecond,
	}
}

func newTestConversation(t *testing.T, participants []conversation.Character) *conversation.Conversation {
	t.Helper()
	conv, err := conversation.New(testConfig(participants))
	require.NoError(t, err)
	return conv
}

func TestEngineRoundRobinWhenDecisionModelFails(t *testing.T) {
	// Three participants, decision model always fails: the fallback must
	// cycle through the roster deterministically.
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			if isSelectionCall(req) {
				return "", &grok.NetworkError{Err: errors.New("down")}
			}
			return "something on " + req.Model, nil
		},
	}
	conv := newTestConversation(t, threeCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 4

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	want := []string{"Alice", "Bob", "Carol", "Alice"}
	for i, m := range msgs {
		assert.Equal(t, want[i], m.Speaker, "turn %d", i)
	}
}

func TestEngineEachCharacterUsesItsOwnModel(t *testing.T) {
	client := &fakeCompleter{}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 2

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	require.Equal(t, 2, client.CallCount())
	assert.Equal(t, "grok-3", client.Calls[0].Model)      // Alice
	assert.Equal(t, "grok-3-mini", client.Calls[1].Model) // Bob
}

func TestEngineRetriesRateLimitThenSucceeds(t *testing.T) {
	// Two rate-limit failures then success, within the retry cap: the third
	// attempt's content is appended and no system message is shown.
	var attempts int32
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			if atomic.AddInt32(&attempts, 1) <= 2 {
				return "", &grok.RateLimitError{}
			}
			return "third time lucky", nil
		},
	}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 1

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Alice", msgs[0].Speaker)
	assert.Equal(t, "third time lucky", msgs[0].Content)
	assert.Equal(t, 3, client.CallCount())
}

func TestEngineSkipsTurnWhenRetriesExhausted(t *testing.T) {
	var replyCalls int32
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			if atomic.AddInt32(&replyCalls, 1) <= 3 {
				return "", &grok.NetworkError{Err: errors.New("flaky")}
			}
			return "recovered", nil
		},
	}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 2

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	// First turn exhausted its three attempts and was skipped with a system
	// placeholder; the conversation then carried on.
	assert.Equal(t, conversation.SystemSpeaker, msgs[0].Speaker)
	assert.Contains(t, msgs[0].Content, "Alice")
	assert.Equal(t, "recovered", msgs[1].Content)
}

func TestEngineStopsOnAuthError(t *testing.T) {
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			return "", &grok.AuthError{Message: "bad key"}
		},
	}
	conv := newTestConversation(t, twoCharacters())

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), fastEngineConfig())
	_, done := collectEvents(eng)
	err := eng.Run(context.Background())
	<-done

	var authErr *grok.AuthError
	require.ErrorAs(t, err, &authErr)
	// No retry for auth failures.
	assert.Equal(t, 1, client.CallCount())

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, conversation.SystemSpeaker, msgs[0].Speaker)
	assert.Contains(t, msgs[0].Content, "API key")
	assert.Equal(t, conversation.StatusStopped, conv.Status())
}

func TestEngineEmptyCompletionRetriedOnceThenSkipped(t *testing.T) {
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			return "   ", nil
		},
	}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 1

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	assert.Equal(t, 2, client.CallCount(), "empty reply is retried exactly once")
	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, conversation.SystemSpeaker, msgs[0].Speaker)
	assert.Contains(t, msgs[0].Content, "empty reply")
}

func TestEngineStopBeforeFirstTurnIssuesNoCalls(t *testing.T) {
	client := &fakeCompleter{}
	conv := newTestConversation(t, twoCharacters())

	signals := conversation.NewChannelSignals()
	signals.Send(conversation.SignalStop)

	eng := conversation.NewEngine(conv, client, signals, fastEngineConfig())
	_, done := collectEvents(eng)

	ran := make(chan error, 1)
	go func() { ran <- eng.Run(context.Background()) }()

	select {
	case err := <-ran:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop promptly")
	}
	<-done

	assert.Zero(t, client.CallCount())
	assert.Zero(t, conv.Len())
	assert.Equal(t, conversation.StatusStopped, conv.Status())
}

func TestEngineDiscardsInFlightResultAfterStop(t *testing.T) {
	signals := conversation.NewChannelSignals()
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			// Stop arrives while this call is in flight; the result must be
			// discarded rather than appended.
			signals.Send(conversation.SignalStop)
			return "late arrival", nil
		},
	}
	conv := newTestConversation(t, twoCharacters())

	eng := conversation.NewEngine(conv, client, signals, fastEngineConfig())
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	assert.Zero(t, conv.Len())
	assert.Equal(t, 1, client.CallCount())
}

func TestEnginePauseBlocksNewCalls(t *testing.T) {
	client := &fakeCompleter{}
	conv := newTestConversation(t, twoCharacters())

	signals := conversation.NewChannelSignals()
	signals.Send(conversation.SignalPauseToggle)

	eng := conversation.NewEngine(conv, client, signals, fastEngineConfig())
	_, done := collectEvents(eng)

	ran := make(chan error, 1)
	go func() { ran <- eng.Run(context.Background()) }()

	// Paused before the first turn: no completion call may be issued.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, client.CallCount())

	// Resume, let a turn happen, then stop.
	signals.Send(conversation.SignalPauseToggle)
	assert.Eventually(t, func() bool { return client.CallCount() > 0 },
		2*time.Second, time.Millisecond, "resume should restart turn progression")

	signals.Send(conversation.SignalStop)
	select {
	case err := <-ran:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after stop signal")
	}
	<-done
}

func TestEngineContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			cancel()
			return "", ctx.Err()
		},
	}
	conv := newTestConversation(t, twoCharacters())

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), fastEngineConfig())
	_, done := collectEvents(eng)

	ran := make(chan error, 1)
	go func() { ran <- eng.Run(ctx) }()

	select {
	case err := <-ran:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not exit after context cancellation")
	}
	<-done
	assert.Zero(t, conv.Len())
}

func TestEngineExportSignalWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	signals := conversation.NewChannelSignals()

	var turn int32
	client := &fakeCompleter{
		CompleteFunc: func(req grok.CompletionRequest) (string, error) {
			if atomic.AddInt32(&turn, 1) == 2 {
				signals.Send(conversation.SignalExport)
			}
			return "line", nil
		},
	}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 3
	cfg.ExportDir = dir

	eng := conversation.NewEngine(conv, client, signals, cfg)
	events, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	var exported *conversation.ExportedEvent
	for _, ev := range events() {
		if ex, ok := ev.(conversation.ExportedEvent); ok {
			exported = &ex
			break
		}
	}
	require.NotNil(t, exported, "export signal should produce an ExportedEvent")
	require.NoError(t, exported.Err)
	assert.FileExists(t, exported.Path)
}

func TestEngineEmitsEventsInTurnOrder(t *testing.T) {
	client := &fakeCompleter{}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 2

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	events, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	var sequence []string
	for _, ev := range events() {
		switch ev := ev.(type) {
		case conversation.StatusEvent:
			sequence = append(sequence, "status:"+ev.Status.String())
		case conversation.TurnStartEvent:
			sequence = append(sequence, "turn:"+ev.Speaker.Name)
		case conversation.MessageEvent:
			sequence = append(sequence, "msg:"+ev.Message.Speaker)
		}
	}
	assert.Equal(t, []string{
		"status:running",
		"turn:Alice", "msg:Alice",
		"turn:Bob", "msg:Bob",
		"status:stopped",
	}, sequence)
}

func TestEngineTimestampsNeverDecrease(t *testing.T) {
	client := &fakeCompleter{}
	conv := newTestConversation(t, twoCharacters())
	cfg := fastEngineConfig()
	cfg.MaxTurns = 4

	eng := conversation.NewEngine(conv, client, conversation.NewChannelSignals(), cfg)
	_, done := collectEvents(eng)
	require.NoError(t, eng.Run(context.Background()))
	<-done

	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp),
			"timestamp at %d went backwards", i)
	}
}
