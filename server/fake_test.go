package server

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// echoDevice loops every write back to the reader, handing out at most
// maxRead bytes per Read.
type echoDevice struct {
	data    chan []byte
	pending []byte
	maxRead int

	closed   chan struct{}
	lost     chan struct{}
	once     sync.Once
	lostOnce sync.Once
}

func newEchoDevice(maxRead int) *echoDevice {
	return &echoDevice{
		data:    make(chan []byte, 64),
		maxRead: maxRead,
		closed:  make(chan struct{}),
		lost:    make(chan struct{}),
	}
}

func (d *echoDevice) Read(p []byte) (int, error) {
	if len(d.pending) == 0 {
		select {
		case <-d.closed:
			return 0, io.ErrClosedPipe
		case <-d.lost:
			return 0, io.EOF
		case d.pending = <-d.data:
		}
	}
	if d.maxRead > 0 && len(p) > d.maxRead {
		p = p[:d.maxRead]
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *echoDevice) Write(p []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, io.ErrClosedPipe
	case d.data <- append([]byte(nil), p...):
		return len(p), nil
	}
}

func (d *echoDevice) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}

// unplug makes the next Read fail as if the cable was pulled.
func (d *echoDevice) unplug() { d.lostOnce.Do(func() { close(d.lost) }) }

type fakeDriver struct {
	mx      sync.Mutex
	maxRead int
	devices map[string]*echoDevice
	fail    map[string]error
}

func (f *fakeDriver) Open(name string, baud int) (io.ReadWriteCloser, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	if f.devices == nil {
		f.devices = make(map[string]*echoDevice)
	}
	d := newEchoDevice(f.maxRead)
	f.devices[name] = d
	return d, nil
}

func (f *fakeDriver) device(name string) *echoDevice {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.devices[name]
}

func newTestServer(t *testing.T, drv *fakeDriver, cfg Config) *Server {
	t.Helper()
	cfg.Driver = drv
	if cfg.ListPorts == nil {
		cfg.ListPorts = func() ([]SerialPortInfo, error) { return nil, nil }
	}
	if cfg.Version == "" {
		cfg.Version = "test"
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "testhost"
	}
	srv := NewServer(cfg)
	t.Cleanup(func() { srv.Close() })
	return srv
}

type testClient struct {
	t *testing.T
	*Conn
}

// attach connects a client and consumes its greeting.
func attach(t *testing.T, srv *Server) *testClient {
	t.Helper()
	c := &testClient{t: t, Conn: srv.NewConn()}
	t.Cleanup(c.Close)

	var g Greeting
	c.decode(c.next(), &g)
	require.Equal(t, "test", g.Version)
	return c
}

func (c *testClient) cmd(line string) {
	c.t.Helper()
	select {
	case c.FromClient() <- line:
	case <-time.After(2 * time.Second):
		c.t.Fatalf("timeout sending %q", line)
	}
}

func (c *testClient) next() string {
	c.t.Helper()
	select {
	case msg := <-c.ToClient():
		return msg
	case <-time.After(2 * time.Second):
		c.t.Fatal("timeout waiting for message")
	}
	return ""
}

func (c *testClient) decode(msg string, v interface{}) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal([]byte(msg), v), msg)
}

// run sends a command, checks its echo and returns the first response.
func (c *testClient) run(line string) string {
	c.t.Helper()
	c.cmd(line)
	require.Equal(c.t, line, c.next())
	return c.next()
}

func (c *testClient) status(line string) PortStatus {
	c.t.Helper()
	var st PortStatus
	c.decode(c.run(line), &st)
	return st
}

func (c *testClient) errResponse(line string) ErrorResponse {
	c.t.Helper()
	var res ErrorResponse
	c.decode(c.run(line), &res)
	return res
}

// collect gathers data messages for port until done reports true.
func (c *testClient) collect(port string, done func([]string) bool) []string {
	c.t.Helper()
	var out []string
	for !done(out) {
		var msg DataMessage
		c.decode(c.next(), &msg)
		require.Equal(c.t, port, msg.P)
		out = append(out, msg.D)
	}
	return out
}
