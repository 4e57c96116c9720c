package buffer

import "time"

// Default emits every read chunk immediately as text, holding back only an
// incomplete trailing rune until the rest of it arrives.
type Default struct {
	pending []byte
}

func NewDefault() *Default { return &Default{} }

func (*Default) Interval() time.Duration { return 0 }

func (d *Default) Write(p []byte) []string {
	d.pending = append(d.pending, p...)
	text, rest := completeRunes(d.pending)
	if len(text) == 0 {
		return nil
	}
	out := string(text)
	d.pending = append(d.pending[:0], rest...)
	return []string{out}
}

func (d *Default) Flush(final bool) []string {
	if !final || len(d.pending) == 0 {
		return nil
	}
	out := string(d.pending)
	d.pending = nil
	return []string{out}
}
