package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	defaultReadLimit    = 1 << 20
	defaultPingInterval = 30 * time.Second

	writeWait = 10 * time.Second
)

// ServeHTTP upgrades the request to a WebSocket and attaches it as a
// client. Each text frame is one command line; each outgoing frame is one
// message.
func (srv *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := srv.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer ws.Close()

	conn := srv.NewConn()
	defer conn.Close()

	clog := log.WithFields(log.Fields{"conn": conn.id, "remote": req.RemoteAddr})
	clog.Info("client connected")
	defer clog.Info("client disconnected")

	pongWait := srv.pingItvl * 10 / 9
	ws.SetReadLimit(srv.readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	cancel := make(chan struct{})
	defer close(cancel)
	go srv.writePump(ws, conn, cancel, clog)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				clog.WithError(err).Debug("read websocket message")
			}
			return
		}
		// any traffic counts as alive
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		select {
		case <-conn.Done():
			return
		case conn.FromClient() <- string(data):
		}
	}
}

// writePump is the only writer on ws. It sends queued messages and keeps
// the connection alive with pings.
func (srv *Server) writePump(ws *websocket.Conn, conn *Conn, cancel <-chan struct{}, clog *log.Entry) {
	ping := time.NewTicker(srv.pingItvl)
	defer ping.Stop()
	defer ws.Close()

	write := func(typ int, data []byte) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(typ, data); err != nil {
			clog.WithError(err).Warn("write websocket message")
			return false
		}
		return true
	}

	for {
		select {
		case <-conn.Done():
			write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-cancel:
			return
		case <-ping.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		case msg := <-conn.ToClient():
			if !write(websocket.TextMessage, []byte(msg)) {
				return
			}
		}
	}
}
