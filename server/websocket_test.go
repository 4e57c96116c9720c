package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, ts *httptest.Server, origin string) *websocket.Conn {
	t.Helper()
	h := http.Header{}
	if origin != "" {
		h.Set("Origin", origin)
	}
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), h)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readWS(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	return string(data)
}

func TestServeHTTP(t *testing.T) {
	srv := newTestServer(t, &fakeDriver{}, Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	a := dialWS(t, ts, "")
	b := dialWS(t, ts, "")

	for _, ws := range []*websocket.Conn{a, b} {
		var g Greeting
		require.NoError(t, json.Unmarshal([]byte(readWS(t, ws)), &g))
		assert.Equal(t, "test", g.Version)
	}

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("open /dev/ttyFAKE 9600")))
	for _, ws := range []*websocket.Conn{a, b} {
		assert.Equal(t, "open /dev/ttyFAKE 9600", readWS(t, ws))
		var st PortStatus
		require.NoError(t, json.Unmarshal([]byte(readWS(t, ws)), &st))
		assert.Equal(t, "Open", st.Cmd)
	}

	require.NoError(t, b.WriteMessage(websocket.TextMessage, []byte("send /dev/ttyFAKE ping")))
	assert.Equal(t, "send /dev/ttyFAKE ping", readWS(t, a))

	var got strings.Builder
	for got.Len() < len("ping") {
		msg := readWS(t, a)
		assert.True(t, strings.HasPrefix(msg, `{"P"`), msg)
		var d DataMessage
		require.NoError(t, json.Unmarshal([]byte(msg), &d))
		got.WriteString(d.D)
	}
	assert.Equal(t, "ping", got.String())
}

func TestServeHTTP_Origin(t *testing.T) {
	srv := newTestServer(t, &fakeDriver{}, Config{Origins: []string{"http://allowed.example"}})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	h := http.Header{}
	h.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, h)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ws := dialWS(t, ts, "http://allowed.example")
	assert.Contains(t, readWS(t, ws), "Version")
}

func TestServeHTTP_ReadLimit(t *testing.T) {
	srv := newTestServer(t, &fakeDriver{}, Config{ReadLimit: 64})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ws := dialWS(t, ts, "")
	readWS(t, ws)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("send /dev/ttyFAKE "+strings.Repeat("x", 128))))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), err.Error())
}

func TestServeHTTP_Ping(t *testing.T) {
	srv := newTestServer(t, &fakeDriver{}, Config{PingInterval: 20 * time.Millisecond})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ws := dialWS(t, ts, "")
	pinged := make(chan struct{}, 1)
	ws.SetPingHandler(func(data string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping from server")
	}

	// answering pings keeps the connection open past the pong deadline
	select {
	case err := <-readErr:
		t.Fatalf("connection dropped: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
