package server

import (
	"github.com/mastercactapus/serialagent/buffer"
)

func (srv *Server) bufferTypeNames() []string {
	names := make([]string, len(buffer.Modes))
	for i, m := range buffer.Modes {
		names[i] = string(m)
	}
	return names
}

func (srv *Server) newStrategy(mode buffer.Mode) (buffer.Strategy, error) {
	return buffer.New(mode, srv.bufferOpts)
}
