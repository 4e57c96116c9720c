package server

import (
	"net/http"
	"os"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mastercactapus/serialagent/buffer"
	log "github.com/sirupsen/logrus"
)

// Config holds everything a Server needs from the outside world. Zero
// values fall back to the real serial driver and platform port listing.
type Config struct {
	Version  string
	Hostname string

	Driver    Driver
	ListPorts func() ([]SerialPortInfo, error)
	Network   NetworkLister

	// PortsFilter hides discovered ports whose name does not match.
	PortsFilter *regexp.Regexp

	Buffer   buffer.Options
	ReadSize int

	// Origins allowed to open a WebSocket. Empty allows any origin.
	Origins []string

	// ReadLimit caps a single client command in bytes.
	ReadLimit int64

	// PingInterval is how often idle clients are pinged. A client that does
	// not answer within a little more than one interval is dropped.
	PingInterval time.Duration
}

type Server struct {
	cid int32

	conns chan []*Conn

	ports     chan map[string]*portSlot
	openCount atomic.Int32

	version     string
	hostname    string
	driver      Driver
	listPorts   func() ([]SerialPortInfo, error)
	network     NetworkLister
	portsFilter *regexp.Regexp
	bufferOpts  buffer.Options
	readSize    int
	upgrader    websocket.Upgrader
	readLimit   int64
	pingItvl    time.Duration

	input chan string
	send  *buffer.Queue[string]

	newConn   chan *Conn
	closeConn chan int32

	done      chan struct{}
	closeOnce sync.Once
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		input:     make(chan string),
		newConn:   make(chan *Conn),
		closeConn: make(chan int32),
		done:      make(chan struct{}),
		send:      buffer.NewQueue[string](),
		conns:     make(chan []*Conn, 1),
		ports:     make(chan map[string]*portSlot, 1),

		version:     cfg.Version,
		hostname:    cfg.Hostname,
		driver:      cfg.Driver,
		listPorts:   cfg.ListPorts,
		network:     cfg.Network,
		portsFilter: cfg.PortsFilter,
		bufferOpts:  cfg.Buffer,
		readSize:    cfg.ReadSize,
		readLimit:   cfg.ReadLimit,
		pingItvl:    cfg.PingInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(cfg.Origins),
		},
	}
	if srv.version == "" {
		srv.version = "dev"
	}
	if srv.hostname == "" {
		srv.hostname, _ = os.Hostname()
	}
	if srv.driver == nil {
		srv.driver = SerialDriver{}
	}
	if srv.listPorts == nil {
		srv.listPorts = nativeListPorts
	}
	if srv.readLimit <= 0 {
		srv.readLimit = defaultReadLimit
	}
	if srv.pingItvl <= 0 {
		srv.pingItvl = defaultPingInterval
	}
	if srv.network == nil {
		srv.network = noNetwork{}
	}
	srv.conns <- nil
	srv.ports <- make(map[string]*portSlot)

	go srv.loop()
	go srv.sendLoop()
	return srv
}

// Close releases every open port and disconnects all clients.
func (srv *Server) Close() error {
	srv.closeOnce.Do(func() {
		for name, p := range srv.openPorts() {
			if err := srv.ClosePort(name); err != nil {
				log.WithError(err).WithField("port", p.name).Warn("close port on shutdown")
			}
		}
		close(srv.done)
	})
	return nil
}

func (srv *Server) sendLoop() {
	defer srv.send.Close()
	for {
		select {
		case <-srv.done:
			// everything broadcast before shutdown still goes out
			for srv.send.Len() > 0 {
				srv.fanOut(<-srv.send.Data())
			}
			conns := <-srv.conns
			for _, c := range conns {
				c.send.Drain()
			}
			srv.conns <- nil
			return
		case data := <-srv.send.Data():
			srv.fanOut(data)
		}
	}
}

func (srv *Server) fanOut(data string) {
	conns := <-srv.conns
	srv.conns <- conns

	for _, c := range conns {
		// a closed conn is simply skipped
		_ = c.send.Push(data)
	}
}

func (srv *Server) loop() {
	for {
		select {
		case <-srv.done:
			return
		case command := <-srv.input:
			srv.handleCommand(command)
		case c := <-srv.newConn:
			srv.greet(c)
			conns := <-srv.conns
			select {
			case <-srv.done:
				// sendLoop has already released its conns
				c.send.Close()
			default:
				conns = append(conns, c)
			}
			srv.conns <- conns
		case id := <-srv.closeConn:
			origConns := <-srv.conns
			// fanOut may still be reading origConns
			conns := make([]*Conn, 0, len(origConns))
			for _, c := range origConns {
				if c.id == id {
					continue
				}
				conns = append(conns, c)
			}
			srv.conns <- conns
		}
	}
}

func checkOrigin(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
