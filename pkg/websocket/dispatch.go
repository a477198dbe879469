package websocket

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// PingRequest is the command that is answered with PongReply.
	PingRequest = "ping"
	// PongReply is the reply to PingRequest.
	PongReply = "pong"
)

// Reply is the single outbound message produced for one inbound message.
type Reply struct {
	Type MessageType
	Data []byte
	// Pong is set when Data is the answer to a ping rather than an echo.
	Pong bool
}

// Dispatcher applies the ping/echo rule to the messages of one connection.
//
// A Dispatcher is not safe for concurrent use: it carries lower-casing state.
// Give each connection its own.
type Dispatcher struct {
	binaryMode BinaryMode
	lower      cases.Caser
}

// NewDispatcher creates a Dispatcher with the given binary handling.
func NewDispatcher(mode BinaryMode) *Dispatcher {
	if mode == "" {
		mode = BinaryEcho
	}
	return &Dispatcher{
		binaryMode: mode,
		lower:      cases.Lower(language.Und),
	}
}

// IsPing reports whether msg, lower-cased, is exactly "ping".
// "PING" and "pInG" are pings; "pinging", "ping " and " ping" are not.
func (d *Dispatcher) IsPing(msg string) bool {
	// No rune is wider than 4 bytes, so longer input can never lower to "ping".
	if len(msg) < len(PingRequest) || len(msg) > 4*len(PingRequest) {
		return false
	}
	return d.lower.String(msg) == PingRequest
}

// ReplyTo returns the text reply for msg.
func (d *Dispatcher) ReplyTo(msg string) string {
	if d.IsPing(msg) {
		return PongReply
	}
	return msg
}

// Dispatch returns the reply for one inbound message. Text messages follow
// the ping/echo rule. Binary messages are echoed as opaque payloads, or
// rejected with ErrUnsupportedData when the mode is BinaryReject.
func (d *Dispatcher) Dispatch(msgType MessageType, data []byte) (Reply, error) {
	if msgType == MessageBinary {
		if d.binaryMode == BinaryReject {
			return Reply{}, ErrUnsupportedData
		}
		return Reply{Type: MessageBinary, Data: data}, nil
	}

	if d.IsPing(string(data)) {
		return Reply{Type: MessageText, Data: []byte(PongReply), Pong: true}, nil
	}
	return Reply{Type: MessageText, Data: data}, nil
}

// ReplyTo applies the ping/echo rule to a single text message.
func ReplyTo(msg string) string {
	return NewDispatcher(BinaryEcho).ReplyTo(msg)
}
