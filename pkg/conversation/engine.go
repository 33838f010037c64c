package conversation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grokparty/grokparty/pkg/grok"
)

// Event is anything the engine reports to a renderer. Concrete types below.
type Event interface{}

// StatusEvent reports a run-status change (running, paused, stopped).
type StatusEvent struct {
	Status Status
}

// TurnStartEvent announces which character is about to respond, so the
// renderer can show a "thinking" indicator while the call is in flight.
type TurnStartEvent struct {
	Speaker Character
}

// MessageEvent carries a message freshly appended to the transcript.
type MessageEvent struct {
	Message Message
}

// ExportedEvent reports the outcome of an export signal.
type ExportedEvent struct {
	Path string
	Err  error
}

// EngineConfig carries the engine tunables. Zero values fall back to the
// defaults below, except TurnDelay and MaxTurns where zero is meaningful.
type EngineConfig struct {
	// HistoryWindow bounds the transcript slice fed into prompts.
	HistoryWindow int
	// MaxRetries is the attempt cap per turn for transient failures.
	MaxRetries int
	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration
	// TurnDelay paces the conversation between turns.
	TurnDelay time.Duration
	// PollInterval is how often pause/sleep loops re-check signals.
	PollInterval time.Duration
	// ReplyTemperature is used for character replies.
	ReplyTemperature float64
	// SelectionTemperature is used for speaker-selection calls.
	SelectionTemperature float64
	// MaxTurns stops the conversation after that many turns; 0 means run
	// until stopped.
	MaxTurns int
	// ExportDir is where export signals write their JSON file.
	ExportDir string
}

func (c *EngineConfig) applyDefaults() {
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.ReplyTemperature == 0 {
		c.ReplyTemperature = 0.8
	}
	if c.SelectionTemperature == 0 {
		c.SelectionTemperature = 0.3
	}
}

var errStopped = errors.New("conversation stopped")
var errEmptyCompletion = errors.New("empty completion")

// Engine drives the conversation loop: select the next speaker, request
// that character's reply, append it, repeat — while observing pause, stop,
// and export signals at every checkpoint. All conversation mutation happens
// inside Run's goroutine; the engine is the single writer.
type Engine struct {
	conv     *Conversation
	client   Completer
	selector *Selector
	signals  SignalSource
	events   chan Event
	cfg      EngineConfig
	log      *logrus.Entry
}

// NewEngine wires an engine to a validated conversation. Events are
// delivered on the channel returned by Events, which is closed when Run
// returns.
func NewEngine(conv *Conversation, client Completer, signals SignalSource, cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	return &Engine{
		conv:     conv,
		client:   client,
		selector: NewSelector(client, conv.cfg.DecisionModel, cfg.HistoryWindow, cfg.SelectionTemperature),
		signals:  signals,
		events:   make(chan Event, 16),
		cfg:      cfg,
		log: logrus.WithFields(logrus.Fields{
			"component":    "engine",
			"conversation": conv.ID,
		}),
	}
}

// Events returns the channel the engine reports on.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Run executes turns until the conversation is stopped, the turn budget is
// exhausted, or a fatal error occurs. It returns the fatal error, if any;
// user-issued stops return nil.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.events)

	e.conv.setStatus(StatusRunning)
	e.emit(StatusEvent{Status: StatusRunning})

	var fatal error
	turns := 0

loop:
	for {
		if e.cfg.MaxTurns > 0 && turns >= e.cfg.MaxTurns {
			e.conv.setStatus(StatusStopped)
			break
		}
		if !e.waitUntilRunning(ctx) {
			break
		}

		speaker := e.selector.SelectNext(ctx, e.conv.cfg, e.conv.Messages())
		e.emit(TurnStartEvent{Speaker: speaker})

		text, err := e.generateReply(ctx, speaker)

		// A stop observed while the call was in flight discards the result
		// rather than appending it.
		e.drainSignals()
		if e.conv.Status() == StatusStopped || ctx.Err() != nil {
			e.conv.setStatus(StatusStopped)
			break
		}

		switch {
		case err == nil:
			msg := e.conv.Append(speaker.Name, text)
			e.emit(MessageEvent{Message: msg})
			turns++
		case errors.Is(err, errStopped):
			e.conv.setStatus(StatusStopped)
			break loop
		case grok.IsFatal(err):
			e.log.WithError(err).Error("fatal completion error, stopping conversation")
			msg := e.conv.Append(SystemSpeaker, "Conversation stopped: "+userMessage(err))
			e.emit(MessageEvent{Message: msg})
			e.conv.setStatus(StatusStopped)
			fatal = err
		default:
			// Transient failure that outlived the retry cap, or a degenerate
			// reply: skip the turn with a placeholder and keep going.
			e.log.WithError(err).WithField("speaker", speaker.Name).Warn("turn skipped")
			msg := e.conv.Append(SystemSpeaker, fmt.Sprintf("%s could not respond this turn (%s).", speaker.Name, userMessage(err)))
			e.emit(MessageEvent{Message: msg})
			turns++
		}

		if e.conv.Status() == StatusStopped {
			break
		}
		if !e.sleepInterruptible(ctx, e.cfg.TurnDelay) {
			break
		}
	}

	e.conv.setStatus(StatusStopped)
	e.emit(StatusEvent{Status: StatusStopped})
	return fatal
}

// generateReply requests the speaker's next line, retrying transient
// failures with doubling backoff. Stop and pause signals are re-checked
// between attempts and always win over the retry loop.
func (e *Engine) generateReply(ctx context.Context, speaker Character) (string, error) {
	cfg := e.conv.cfg
	var prompt string
	if e.conv.Len() == 0 {
		prompt = introPrompt(cfg, speaker)
	} else {
		prompt = replyUserPrompt(cfg, recentMessages(e.conv.Messages(), e.cfg.HistoryWindow))
	}
	system := replySystemPrompt(speaker)

	backoff := e.cfg.RetryBackoff
	emptyRetried := false
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		e.drainSignals()
		if e.conv.Status() == StatusStopped {
			return "", errStopped
		}
		if e.conv.Status() == StatusPaused && !e.waitUntilRunning(ctx) {
			return "", errStopped
		}

		text, err := e.client.Complete(ctx, grok.CompletionRequest{
			Model:        speaker.ModelID,
			SystemPrompt: system,
			Prompt:       prompt,
			Temperature:  e.cfg.ReplyTemperature,
		})
		if err == nil {
			text = strings.TrimSpace(text)
			if text != "" {
				return text, nil
			}
			// Degenerate empty reply: retry once, then give up on the turn.
			if emptyRetried {
				return "", errEmptyCompletion
			}
			emptyRetried = true
			lastErr = errEmptyCompletion
			continue
		}
		if ctx.Err() != nil {
			return "", errStopped
		}
		lastErr = err
		if grok.IsFatal(err) {
			return "", err
		}
		if !grok.IsTransient(err) {
			return "", err
		}
		e.log.WithError(err).WithFields(logrus.Fields{
			"speaker": speaker.Name,
			"attempt": attempt,
		}).Warn("completion failed, retrying")
		if attempt < e.cfg.MaxRetries {
			if !e.sleepInterruptible(ctx, backoff) {
				return "", errStopped
			}
			backoff *= 2
		}
	}
	return "", lastErr
}

// waitUntilRunning blocks while the conversation is paused, polling for
// signals. It returns false when the conversation is stopped or the context
// is cancelled.
func (e *Engine) waitUntilRunning(ctx context.Context) bool {
	for {
		e.drainSignals()
		switch e.conv.Status() {
		case StatusStopped:
			return false
		case StatusRunning:
			return true
		}
		select {
		case <-ctx.Done():
			e.conv.setStatus(StatusStopped)
			return false
		case <-time.After(e.cfg.PollInterval):
		}
	}
}

// sleepInterruptible sleeps d in poll-interval steps, applying signals as
// they arrive. It returns false when the conversation stopped mid-sleep.
func (e *Engine) sleepInterruptible(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		e.drainSignals()
		if e.conv.Status() == StatusStopped {
			return false
		}
		if ctx.Err() != nil {
			e.conv.setStatus(StatusStopped)
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		step := e.cfg.PollInterval
		if step > remaining {
			step = remaining
		}
		time.Sleep(step)
	}
}

// drainSignals applies every pending control signal.
func (e *Engine) drainSignals() {
	for {
		sig, ok := e.signals.Poll()
		if !ok {
			return
		}
		e.apply(sig)
	}
}

func (e *Engine) apply(sig Signal) {
	switch sig {
	case SignalPauseToggle:
		switch e.conv.Status() {
		case StatusRunning:
			e.conv.setStatus(StatusPaused)
			e.emit(StatusEvent{Status: StatusPaused})
		case StatusPaused:
			e.conv.setStatus(StatusRunning)
			e.emit(StatusEvent{Status: StatusRunning})
		}
	case SignalStop:
		e.conv.setStatus(StatusStopped)
	case SignalExport:
		path := filepath.Join(e.cfg.ExportDir, DefaultFilename(time.Now()))
		err := WriteFile(e.conv, path)
		if err != nil {
			e.log.WithError(err).Error("export failed")
			path = ""
		}
		e.emit(ExportedEvent{Path: path, Err: err})
	}
}

func (e *Engine) emit(ev Event) {
	e.events <- ev
}

// userMessage translates an internal error into the text shown in a system
// message. Raw transport errors never reach the renderer.
func userMessage(err error) string {
	var authErr *grok.AuthError
	if errors.As(err, &authErr) {
		return "invalid or missing API key"
	}
	var modelErr *grok.InvalidModelError
	if errors.As(err, &modelErr) {
		return fmt.Sprintf("model %q is not available", modelErr.Model)
	}
	var rateErr *grok.RateLimitError
	if errors.As(err, &rateErr) {
		return "the model is rate limited"
	}
	var netErr *grok.NetworkError
	if errors.As(err, &netErr) {
		return "network trouble reaching the API"
	}
	if errors.Is(err, errEmptyCompletion) {
		return "the model returned an empty reply"
	}
	return "the completion request failed"
}
