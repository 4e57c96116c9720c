package buffer

import (
	"fmt"
	"time"
)

// Mode names a buffering strategy selectable with the `open` command.
type Mode string

const (
	ModeDefault     Mode = "default"
	ModeTimed       Mode = "timed"
	ModeTimedRaw    Mode = "timedraw"
	ModeTimedBinary Mode = "timedbinary"
)

// Modes lists every supported Mode in the order they are advertised to clients.
var Modes = []Mode{ModeDefault, ModeTimed, ModeTimedRaw, ModeTimedBinary}

const (
	DefaultInterval  = 16 * time.Millisecond
	DefaultFrameSize = 4096
)

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown buffer mode '%s'", s)
}

// A Strategy decides how raw serial bytes are batched and encoded into
// the D field of outgoing data messages.
//
// Implementations are not safe for concurrent use; a Buffer only ever calls
// them from its own loop.
type Strategy interface {
	// Write accumulates p and returns any payloads that are ready now.
	Write(p []byte) []string

	// Flush returns pending payloads. When final is true every pending byte
	// must be returned, including an incomplete trailing rune.
	Flush(final bool) []string

	// Interval is how often Flush should be called. Zero disables the timer.
	Interval() time.Duration
}

// Options tune the timed strategies.
type Options struct {
	Interval  time.Duration
	FrameSize int
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.FrameSize <= 0 {
		o.FrameSize = DefaultFrameSize
	}
	return o
}

// New returns a fresh Strategy for mode.
func New(mode Mode, opts Options) (Strategy, error) {
	opts = opts.withDefaults()
	switch mode {
	case ModeDefault:
		return NewDefault(), nil
	case ModeTimed:
		return NewTimed(opts.Interval), nil
	case ModeTimedRaw:
		return NewTimedRaw(opts.Interval), nil
	case ModeTimedBinary:
		return NewTimedBinary(opts.Interval, opts.FrameSize), nil
	}
	return nil, fmt.Errorf("unknown/unsupported buffer type '%s'", mode)
}
