package server

import (
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// A Driver acquires serial devices for the registry.
type Driver interface {
	Open(name string, baud int) (io.ReadWriteCloser, error)
}

// SerialDriver opens real serial ports.
type SerialDriver struct{}

var _ Driver = SerialDriver{}

func (SerialDriver) Open(name string, baud int) (io.ReadWriteCloser, error) {
	sp, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err == nil {
		return sp, nil
	}

	var perr *serial.PortError
	if errors.As(err, &perr) {
		switch perr.Code() {
		case serial.PortBusy:
			return nil, fmt.Errorf("%w: %w", ErrDeviceBusy, err)
		case serial.PortNotFound:
			return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
		case serial.PermissionDenied:
			return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
	}
	return nil, err
}
