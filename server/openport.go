package server

import (
	"errors"
	"fmt"

	"github.com/mastercactapus/serialagent/buffer"
	"github.com/mastercactapus/serialagent/command"
	log "github.com/sirupsen/logrus"
)

func (srv *Server) handleOpenPort(cmd command.Open) {
	_, err := srv.OpenPort(cmd.Port, cmd.Baud, cmd.Mode)
	if err != nil {
		srv.respondCmdErr("OpenFail", cmd.Port, err)
	}
}

// OpenPort acquires the named device and starts streaming its data to every
// client. The open acknowledgement is broadcast before any data.
func (srv *Server) OpenPort(name string, baud int, bufferType buffer.Mode) (*Port, error) {
	if baud <= 0 {
		return nil, errors.New("missing baud rate")
	}
	strategy, err := srv.newStrategy(bufferType)
	if err != nil {
		return nil, err
	}

	s := srv.slot(name)
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.port != nil {
		return s.port, fmt.Errorf("%w: %s at %d baud (%s)", ErrPortAlreadyOpen, name, s.port.baudRate, s.port.bufferType)
	}

	plog := log.WithField("port", name)
	plog.WithField("baud", baud).Info("opening serial port")
	rwc, err := srv.driver.Open(name, baud)
	if err != nil {
		return nil, fmt.Errorf("%w: open port: %w", ErrPortUnavailable, err)
	}

	p := &Port{
		name:       name,
		baudRate:   baud,
		bufferType: bufferType,
		primary:    srv.openCount.Add(1) == 1,
	}
	p.Buffer = buffer.NewBuffer(buffer.Config{
		ReadWriteCloser: rwc,
		Strategy:        strategy,
		ReadSize:        srv.readSize,
		Log:             plog,
		OnRead: func(data string) {
			srv.respondData(name, data)
		},
		OnError: func(err error) {
			srv.portLost(p, err)
		},
	})
	s.port = p

	srv.respondJSON(p.status("Open", "Got register/open on port."))
	p.Start()
	plog.WithField("buffer", bufferType).Info("opened serial port")

	return p, nil
}
