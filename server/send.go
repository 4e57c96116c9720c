package server

import (
	"errors"

	"github.com/mastercactapus/serialagent/buffer"
)

func (srv *Server) handleSend(cmd, port string, data []byte) {
	srv.respondCmdErr(cmd, port, srv.Send(port, data))
}

// Send queues data for the named port. It returns as soon as the data is
// queued; anything the device sends back arrives later as data messages.
func (srv *Server) Send(name string, data []byte) error {
	s := srv.lookup(name)
	if s == nil {
		return ErrPortNotOpen
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	if s.port == nil {
		return ErrPortNotOpen
	}

	err := s.port.Write(data)
	if errors.Is(err, buffer.ErrClosed) {
		return ErrPortNotOpen
	}
	return err
}
