package server

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// DataMessage carries serial data read from port P.
type DataMessage struct {
	P string
	D string
}

// PortStatus acknowledges open and close, and announces ports that went away.
type PortStatus struct {
	Cmd        string
	Desc       string
	Port       string
	IsOpen     bool
	Baud       int
	BufferType string `json:",omitempty"`
}

// PortList is the answer to `list`. Network distinguishes the serial
// listing from the network one.
type PortList struct {
	Ports   []SerialPortInfo
	Network bool
}

type ErrorResponse struct {
	Cmd       string `json:",omitempty"`
	Port      string `json:",omitempty"`
	Error     string
	ErrorCode string
}

func (srv *Server) broadcast(msg string) {
	if err := srv.send.Push(msg); err != nil {
		log.WithError(err).Debug("dropping message after shutdown")
	}
}

func jsonIndent(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		panic(err)
	}
	return string(data)
}

func (srv *Server) respondJSON(v interface{}) {
	srv.broadcast(jsonIndent(v))
}

// respondData uses compact JSON so clients can spot data records by their
// `{"P"` prefix.
func (srv *Server) respondData(port, payload string) {
	data, err := json.Marshal(DataMessage{P: port, D: payload})
	if err != nil {
		panic(err)
	}

	srv.broadcast(string(data))
}

func (srv *Server) respondErr(err error) {
	srv.respondCmdErr("", "", err)
}

func (srv *Server) respondCmdErr(cmd, port string, err error) {
	if err == nil {
		return
	}
	log.WithError(err).WithField("port", port).Warn("command failed")

	srv.respondJSON(ErrorResponse{
		Cmd:       cmd,
		Port:      port,
		Error:     err.Error(),
		ErrorCode: errorCode(err),
	})
}
