package buffer

import (
	"errors"
	"sync"
)

// ErrClosed is returned for write operations after Close has been called.
var ErrClosed = errors.New("closed")

// A Queue is an unbounded FIFO. Push never waits on the consumer, so
// producers can enqueue from any goroutine without being slowed down by a
// slow reader.
type Queue[T any] struct {
	push  chan T
	items chan T
	len   chan int
	done  chan struct{}
	drain chan struct{}

	closeOnce sync.Once
	drainOnce sync.Once
}

// NewQueue will return a new non-blocking Queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		push:  make(chan T),
		items: make(chan T),
		len:   make(chan int),
		done:  make(chan struct{}),
		drain: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue[T]) loop() {
	var buf []T
	drain := q.drain
	for {
		if drain == nil && len(buf) == 0 {
			q.Close()
			return
		}

		var (
			out  chan T
			next T
		)
		if len(buf) > 0 {
			out = q.items
			next = buf[0]
		}

		select {
		case item := <-q.push:
			buf = append(buf, item)
		case out <- next:
			var zero T
			buf[0] = zero
			buf = buf[1:]
		case q.len <- len(buf):
		case <-drain:
			drain = nil
		case <-q.done:
			return
		}
	}
}

// Push will append an item to the end of the Queue.
func (q *Queue[T]) Push(item T) error {
	select {
	case <-q.drain:
		return ErrClosed
	default:
	}

	select {
	case <-q.done:
		return ErrClosed
	case q.push <- item:
	}
	return nil
}

// Data will return a channel that is fed (and consumes) items from the Queue.
// Readers should also watch Done, the channel is never closed.
func (q *Queue[T]) Data() <-chan T { return q.items }

// Done is closed once the Queue has been closed.
func (q *Queue[T]) Done() <-chan struct{} { return q.done }

// Len will return the number of items currently in the Queue.
func (q *Queue[T]) Len() int {
	select {
	case <-q.done:
		return 0
	case n := <-q.len:
		return n
	}
}

// Close will terminate the Queue. Pending items are discarded and Push
// returns ErrClosed from then on.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Drain stops accepting new items and closes the Queue once everything
// already pushed has been read from Data.
func (q *Queue[T]) Drain() {
	q.drainOnce.Do(func() { close(q.drain) })
}
