package buffer

import (
	"encoding/base64"
	"time"
)

// Timed aggregates text for one interval before emitting it.
type Timed struct {
	itvl    time.Duration
	pending []byte
}

func NewTimed(itvl time.Duration) *Timed { return &Timed{itvl: itvl} }

func (t *Timed) Interval() time.Duration { return t.itvl }

func (t *Timed) Write(p []byte) []string {
	t.pending = append(t.pending, p...)
	return nil
}

func (t *Timed) Flush(final bool) []string {
	text, rest := t.pending, []byte(nil)
	if !final {
		text, rest = completeRunes(t.pending)
	}
	if len(text) == 0 {
		return nil
	}
	out := string(text)
	t.pending = append(t.pending[:0], rest...)
	return []string{out}
}

// raw accumulates bytes and encodes them as base64 on flush.
type raw struct {
	itvl    time.Duration
	pending []byte
}

func (r *raw) Interval() time.Duration { return r.itvl }

func (r *raw) take(n int) string {
	out := base64.StdEncoding.EncodeToString(r.pending[:n])
	r.pending = append(r.pending[:0], r.pending[n:]...)
	return out
}

// TimedRaw aggregates bytes for one interval and emits them base64 encoded.
type TimedRaw struct{ raw }

func NewTimedRaw(itvl time.Duration) *TimedRaw { return &TimedRaw{raw{itvl: itvl}} }

func (t *TimedRaw) Write(p []byte) []string {
	t.pending = append(t.pending, p...)
	return nil
}

func (t *TimedRaw) Flush(bool) []string {
	if len(t.pending) == 0 {
		return nil
	}
	return []string{t.take(len(t.pending))}
}

// TimedBinary is TimedRaw with bounded frames: no message carries more than
// frameSize raw bytes, and a full frame is emitted without waiting for the timer.
type TimedBinary struct {
	raw
	frameSize int
}

func NewTimedBinary(itvl time.Duration, frameSize int) *TimedBinary {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	return &TimedBinary{raw: raw{itvl: itvl}, frameSize: frameSize}
}

func (t *TimedBinary) Write(p []byte) []string {
	t.pending = append(t.pending, p...)
	var out []string
	for len(t.pending) >= t.frameSize {
		out = append(out, t.take(t.frameSize))
	}
	return out
}

func (t *TimedBinary) Flush(bool) []string {
	var out []string
	for len(t.pending) > 0 {
		n := len(t.pending)
		if n > t.frameSize {
			n = t.frameSize
		}
		out = append(out, t.take(n))
	}
	return out
}
