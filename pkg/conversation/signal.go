package conversation

// Signal is a control command for a running conversation.
type Signal int

const (
	// SignalPauseToggle flips between running and paused.
	SignalPauseToggle Signal = iota
	// SignalStop ends the conversation. Terminal.
	SignalStop
	// SignalExport writes the transcript collected so far to disk.
	SignalExport
)

func (s Signal) String() string {
	switch s {
	case SignalPauseToggle:
		return "pause-toggle"
	case SignalStop:
		return "stop"
	case SignalExport:
		return "export"
	default:
		return "unknown"
	}
}

// SignalSource is where the engine picks up control signals. Poll must never
// block: it returns the next pending signal, or ok=false when there is none.
// Keeping this an interface keeps the engine free of terminal concerns and
// lets tests drive it with a scripted source.
type SignalSource interface {
	Poll() (sig Signal, ok bool)
}

// ChannelSignals is a SignalSource backed by a buffered channel, suitable for
// delivering keystrokes from a concurrently running UI.
type ChannelSignals struct {
	ch chan Signal
}

// NewChannelSignals creates a source with a small buffer; a burst of
// keystrokes beyond the buffer is dropped rather than blocking the sender.
func NewChannelSignals() *ChannelSignals {
	return &ChannelSignals{ch: make(chan Signal, 8)}
}

// Send queues a signal without blocking.
func (c *ChannelSignals) Send(sig Signal) {
	select {
	case c.ch <- sig:
	default:
	}
}

// Poll implements SignalSource.
func (c *ChannelSignals) Poll() (Signal, bool) {
	select {
	case sig := <-c.ch:
		return sig, true
	default:
		return 0, false
	}
}
