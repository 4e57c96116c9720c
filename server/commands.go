package server

import (
	"fmt"
	"runtime"

	"github.com/mastercactapus/serialagent/command"
)

const commandsHelp = "Commands: list, open [portName] [baud] [bufferAlgorithm (optional)], " +
	"send [portName] [cmd], sendnobuf [portName] [cmd], sendraw [portName] [base64], close [portName], version, hostname"

// Greeting is sent to each client when it connects.
type Greeting struct {
	Version  string
	Commands string
	Hostname string
	OS       string
}

func (srv *Server) greet(c *Conn) {
	// the client is not yet in the broadcast list, so this is its first message
	_ = c.send.Push(jsonIndent(Greeting{
		Version:  srv.version,
		Commands: commandsHelp,
		Hostname: srv.hostname,
		OS:       runtime.GOOS,
	}))
}

// handleCommand echoes the line to every client, then acts on it. Commands
// are handled one at a time, in arrival order.
func (srv *Server) handleCommand(line string) {
	srv.broadcast(line)

	cmd, err := command.Parse(line)
	if err != nil {
		srv.respondErr(err)
		return
	}

	switch cmd := cmd.(type) {
	case command.List:
		info, err := srv.ListPorts()
		if err != nil {
			srv.respondErr(fmt.Errorf("list ports: %w", err))
			return
		}
		srv.respondJSON(PortList{Ports: info})

		netInfo, err := srv.ListNetworkPorts()
		if err != nil {
			srv.respondErr(fmt.Errorf("list network ports: %w", err))
			return
		}
		srv.respondJSON(PortList{Ports: netInfo, Network: true})
	case command.Open:
		srv.handleOpenPort(cmd)
	case command.Send:
		srv.handleSend(cmd.Verb(), cmd.Port, []byte(cmd.Payload))
	case command.SendRaw:
		srv.handleSend("sendraw", cmd.Port, cmd.Data)
	case command.Close:
		srv.handleClosePort(cmd)
	case command.Version:
		srv.respondJSON(struct{ Version string }{srv.version})
	case command.Hostname:
		srv.respondJSON(struct{ Hostname string }{srv.hostname})
	default:
		srv.respondErr(fmt.Errorf("unhandled command '%s'", cmd.Verb()))
	}
}
