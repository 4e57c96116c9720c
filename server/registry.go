package server

import "sync"

// portSlot serializes state transitions of one port path. Slots are
// created on first use and never removed, so a slot pointer stays valid
// without holding the registry lock.
type portSlot struct {
	mx   sync.Mutex
	port *Port
}

func (srv *Server) slot(name string) *portSlot {
	ports := <-srv.ports
	s := ports[name]
	if s == nil {
		s = &portSlot{}
		ports[name] = s
	}
	srv.ports <- ports

	return s
}

func (srv *Server) lookup(name string) *portSlot {
	ports := <-srv.ports
	s := ports[name]
	srv.ports <- ports

	return s
}

func (srv *Server) slots() map[string]*portSlot {
	ports := <-srv.ports
	cpy := make(map[string]*portSlot, len(ports))
	for name, s := range ports {
		cpy[name] = s
	}
	srv.ports <- ports

	return cpy
}

// openPorts is a snapshot of every currently open port.
func (srv *Server) openPorts() map[string]*Port {
	open := make(map[string]*Port)
	for name, s := range srv.slots() {
		s.mx.Lock()
		if s.port != nil {
			open[name] = s.port
		}
		s.mx.Unlock()
	}
	return open
}
