package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultReadSize = 1024

// ErrDeviceLost is reported when the device keeps returning empty reads,
// which is how some platforms signal an unplugged port.
var ErrDeviceLost = errors.New("device stopped responding")

// Buffer pumps a device through a Strategy. Reads are delivered to OnRead
// from a single goroutine so payload order always matches byte order.
type Buffer struct {
	rwc io.ReadWriteCloser
	s   Strategy
	log *log.Entry

	onRead  func(string)
	onError func(error)

	readSize int
	readCh   chan []byte
	readErr  error
	writeQ   *Queue[[]byte]

	startOnce sync.Once
	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

// NewBuffer prepares a Buffer; nothing is read until Start is called.
func NewBuffer(cfg Config) *Buffer {
	b := &Buffer{
		rwc:      cfg.ReadWriteCloser,
		s:        cfg.Strategy,
		log:      cfg.Log,
		onRead:   cfg.OnRead,
		onError:  cfg.OnError,
		readSize: cfg.ReadSize,

		readCh:  make(chan []byte),
		writeQ:  NewQueue[[]byte](),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if b.readSize <= 0 {
		b.readSize = defaultReadSize
	}
	if b.log == nil {
		b.log = log.NewEntry(log.StandardLogger())
	}
	if b.onRead == nil {
		b.onRead = func(string) {}
	}
	if b.onError == nil {
		b.onError = func(error) {}
	}
	return b
}

// Start launches the read, write and flush loops.
func (b *Buffer) Start() {
	b.startOnce.Do(func() {
		go b.readLoop()
		go b.writeLoop()
		go b.loop()
	})
}

func (b *Buffer) isClosing() bool {
	select {
	case <-b.closing:
		return true
	default:
		return false
	}
}

func (b *Buffer) emit(payloads []string) {
	for _, p := range payloads {
		b.onRead(p)
	}
}

func (b *Buffer) loop() {
	var tick <-chan time.Time
	if itvl := b.s.Interval(); itvl > 0 {
		t := time.NewTicker(itvl)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case chunk, ok := <-b.readCh:
			if !ok {
				b.emit(b.s.Flush(true))
				close(b.done)
				if b.readErr != nil && !b.isClosing() {
					b.onError(b.readErr)
				}
				return
			}
			b.emit(b.s.Write(chunk))
		case <-tick:
			b.emit(b.s.Flush(false))
		}
	}
}

func (b *Buffer) readLoop() {
	defer close(b.readCh)

	buf := make([]byte, b.readSize)
	var lastEmpty time.Time
	for {
		n, err := b.rwc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			b.readCh <- chunk
		}
		if b.isClosing() {
			b.log.Debug("reader stopped")
			return
		}
		if err != nil {
			b.readErr = fmt.Errorf("read: %w", err)
			return
		}
		if n > 0 {
			continue
		}

		// a disconnected port can return empty reads in a tight loop
		now := time.Now()
		if now.Sub(lastEmpty) < time.Millisecond {
			b.readErr = ErrDeviceLost
			return
		}
		lastEmpty = now
	}
}

func (b *Buffer) writeLoop() {
	for {
		select {
		case <-b.writeQ.Done():
			return
		case data := <-b.writeQ.Data():
			n, err := b.rwc.Write(data)
			if err != nil {
				if b.isClosing() {
					return
				}
				b.log.WithError(err).Error("write failed, closing device")
				// the reader sees the failure and reports it through OnError
				b.rwc.Close()
				return
			}
			b.log.WithField("bytes", n).Debug("wrote to device")
		}
	}
}

// Write queues data for the device and returns without waiting for it to
// be written.
func (b *Buffer) Write(data []byte) error {
	return b.writeQ.Push(data)
}

// WriteQueueLen is the number of writes not yet handed to the device.
func (b *Buffer) WriteQueueLen() int { return b.writeQ.Len() }

// Close stops the reader, releases the device and waits until every
// pending byte has been flushed through OnRead.
func (b *Buffer) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closing)
		b.writeQ.Close()
		err = b.rwc.Close()
		b.Start()
	})
	<-b.done
	return err
}
