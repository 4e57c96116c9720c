package server

import (
	"sync/atomic"

	"github.com/mastercactapus/serialagent/buffer"
)

// Conn is one client attached to the Server. Every message the Server
// broadcasts is queued for each Conn, so a slow client never holds up the
// others.
type Conn struct {
	id   int32
	srv  *Server
	send *buffer.Queue[string]
}

func (srv *Server) NewConn() *Conn {
	conn := &Conn{
		id:   atomic.AddInt32(&srv.cid, 1),
		srv:  srv,
		send: buffer.NewQueue[string](),
	}
	select {
	case <-srv.done:
		conn.send.Close()
	case srv.newConn <- conn:
	}

	return conn
}

func (c *Conn) FromClient() chan<- string { return c.srv.input }
func (c *Conn) ToClient() <-chan string   { return c.send.Data() }
func (c *Conn) Done() <-chan struct{}     { return c.send.Done() }

// Close detaches the Conn. Messages still queued for it are discarded.
func (c *Conn) Close() {
	select {
	case <-c.srv.done:
	case c.srv.closeConn <- c.id:
	}
	c.send.Close()
}
