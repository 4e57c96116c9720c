package server

import (
	"github.com/mastercactapus/serialagent/command"
	log "github.com/sirupsen/logrus"
)

func (srv *Server) handleClosePort(cmd command.Close) {
	if err := srv.ClosePort(cmd.Port); err != nil {
		log.WithError(err).WithField("port", cmd.Port).Warn("close port")
	}
}

// ClosePort flushes and releases the named port. Closing a port that is not
// open is not an error; the close acknowledgement is broadcast either way.
func (srv *Server) ClosePort(name string) error {
	s := srv.lookup(name)
	if s == nil {
		srv.respondJSON(PortStatus{Cmd: "Close", Desc: "Port not open.", Port: name})
		return nil
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	p := s.port
	if p == nil {
		srv.respondJSON(PortStatus{Cmd: "Close", Desc: "Port not open.", Port: name})
		return nil
	}

	s.port = nil
	srv.openCount.Add(-1)
	err := p.Close()
	srv.respondJSON(p.status("Close", "Got unregister/close on port."))
	log.WithField("port", name).Info("closed serial port")

	return err
}

// portLost tears down a port whose device failed underneath it.
func (srv *Server) portLost(p *Port, cause error) {
	s := srv.lookup(p.name)
	if s == nil {
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	if s.port != p {
		// already closed by a client
		return
	}

	s.port = nil
	srv.openCount.Add(-1)
	p.Close()
	log.WithError(cause).WithField("port", p.name).Error("serial port lost")
	srv.respondJSON(p.status("Close", "Port lost: "+cause.Error()))
}
