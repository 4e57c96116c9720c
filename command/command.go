// Package command decodes the line-oriented command grammar spoken by
// WebSocket clients.
//
//	list
//	open      <port> <baud> [mode]
//	send      <port> <payload...>
//	sendnobuf <port> <payload...>
//	sendraw   <port> <base64>
//	close     <port>
//	version
//	hostname
package command

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mastercactapus/serialagent/buffer"
)

// A Command is one decoded client request. It is always one of the types
// declared in this package.
type Command interface {
	Verb() string
	isCommand()
}

type List struct{}

type Open struct {
	Port string
	Baud int
	Mode buffer.Mode
}

// Send writes Payload to the port exactly as it appeared on the line,
// including any trailing line ending. NoBuf is set for `sendnobuf`, which
// writes the same way since writes are never held back.
type Send struct {
	Port    string
	Payload string
	NoBuf   bool
}

// SendRaw writes already decoded base64 data to the port.
type SendRaw struct {
	Port string
	Data []byte
}

type Close struct {
	Port string
}

type Version struct{}

type Hostname struct{}

func (List) Verb() string     { return "list" }
func (Open) Verb() string     { return "open" }
func (s Send) Verb() string {
	if s.NoBuf {
		return "sendnobuf"
	}
	return "send"
}
func (SendRaw) Verb() string  { return "sendraw" }
func (Close) Verb() string    { return "close" }
func (Version) Verb() string  { return "version" }
func (Hostname) Verb() string { return "hostname" }

func (List) isCommand()     {}
func (Open) isCommand()     {}
func (Send) isCommand()     {}
func (SendRaw) isCommand()  {}
func (Close) isCommand()    {}
func (Version) isCommand()  {}
func (Hostname) isCommand() {}

// ErrEncoding is wrapped by errors for sendraw payloads that are not valid base64.
var ErrEncoding = errors.New("invalid base64 payload")

// ParseError reports a line that does not match the grammar.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse command '%s': %s", e.Line, e.Reason)
}

const space = " \t"

// Parse decodes a single command line. A trailing line ending is ignored,
// except in a send payload where it is part of the data.
func Parse(raw string) (Command, error) {
	line := strings.TrimRight(raw, "\r\n")
	fail := func(format string, args ...interface{}) (Command, error) {
		return nil, &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	trimmed := strings.TrimLeft(line, space)
	verb, rest := trimmed, ""
	if i := strings.IndexAny(trimmed, space); i >= 0 {
		verb, rest = trimmed[:i], trimmed[i+1:]
	}
	args := strings.Fields(rest)

	switch verb {
	case "":
		return fail("empty command")
	case "list", "version", "hostname":
		if len(args) != 0 {
			return fail("%s takes no arguments", verb)
		}
		switch verb {
		case "list":
			return List{}, nil
		case "version":
			return Version{}, nil
		}
		return Hostname{}, nil
	case "open":
		return parseOpen(args, fail)
	case "send", "sendnobuf":
		// same offset in raw, which only differs by its line ending
		rawRest := strings.TrimLeft(raw, space)[len(verb):]
		if rest == "" {
			rawRest = ""
		} else {
			rawRest = rawRest[1:]
		}
		port, payload, ok := cutPort(rawRest)
		switch {
		case port == "":
			return fail("missing port name")
		case !ok || payload == "":
			return fail("missing data")
		}
		return Send{Port: port, Payload: payload, NoBuf: verb == "sendnobuf"}, nil
	case "sendraw":
		switch len(args) {
		case 0:
			return fail("missing port name")
		case 1:
			return fail("missing data")
		case 2:
		default:
			return fail("base64 payload must not contain spaces")
		}
		data, err := base64.StdEncoding.DecodeString(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return SendRaw{Port: args[0], Data: data}, nil
	case "close":
		switch len(args) {
		case 0:
			return fail("missing port name")
		case 1:
			return Close{Port: args[0]}, nil
		}
		return fail("close takes a single port name")
	}
	return fail("unknown command '%s'", verb)
}

func parseOpen(args []string, fail func(string, ...interface{}) (Command, error)) (Command, error) {
	switch len(args) {
	case 0:
		return fail("missing port name")
	case 1:
		return fail("missing baud rate")
	case 2:
		args = append(args, string(buffer.ModeDefault))
	case 3:
	default:
		return fail("too many arguments")
	}

	baud, err := strconv.Atoi(args[1])
	if err != nil {
		return fail("invalid baud rate: %v", err)
	}
	if baud <= 0 {
		return fail("invalid baud rate: %d", baud)
	}
	mode, err := buffer.ParseMode(args[2])
	if err != nil {
		return fail("%v", err)
	}
	return Open{Port: args[0], Baud: baud, Mode: mode}, nil
}

// cutPort splits "<port> <payload...>", consuming exactly one separator so
// leading whitespace in the payload survives.
func cutPort(rest string) (port, payload string, ok bool) {
	rest = strings.TrimLeft(rest, space)
	i := strings.IndexAny(rest, space)
	if i < 0 {
		return strings.TrimRight(rest, "\r\n"), "", false
	}
	return rest[:i], rest[i+1:], true
}
