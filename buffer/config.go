package buffer

import (
	"io"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	io.ReadWriteCloser
	Strategy

	// OnRead receives every payload produced by the Strategy, in order.
	OnRead func(string)

	// OnError is called once if the device fails while the Buffer is not
	// being closed. Every pending byte has already been passed to OnRead.
	OnError func(error)

	// ReadSize is the size of a single read from the device.
	ReadSize int

	Log *log.Entry
}
