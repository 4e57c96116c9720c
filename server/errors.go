package server

import (
	"errors"

	"github.com/mastercactapus/serialagent/buffer"
	"github.com/mastercactapus/serialagent/command"
)

var (
	ErrPortUnavailable = errors.New("port unavailable")
	ErrPortNotOpen     = errors.New("specified port not open")
	ErrPortAlreadyOpen = errors.New("port already open")

	// Reasons a Driver can give for ErrPortUnavailable.
	ErrDeviceBusy       = errors.New("serial device already in use")
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
)

// Error codes sent to clients in the ErrorCode field.
const (
	CodeParseError      = "ParseError"
	CodeEncodingError   = "EncodingError"
	CodePortUnavailable = "PortUnavailable"
	CodePortNotOpen     = "PortNotOpen"
	CodePortAlreadyOpen = "PortAlreadyOpen"
	CodeInternal        = "InternalError"
)

func errorCode(err error) string {
	var perr *command.ParseError
	switch {
	case errors.As(err, &perr):
		return CodeParseError
	case errors.Is(err, command.ErrEncoding):
		return CodeEncodingError
	case errors.Is(err, ErrPortUnavailable):
		return CodePortUnavailable
	case errors.Is(err, ErrPortNotOpen), errors.Is(err, buffer.ErrClosed):
		return CodePortNotOpen
	case errors.Is(err, ErrPortAlreadyOpen):
		return CodePortAlreadyOpen
	}
	return CodeInternal
}
