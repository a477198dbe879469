package websocket

import (
	"fmt"
	"strings"
	"time"
)

// MessageType is the frame type of a data message.
type MessageType int

// Values match the WebSocket opcodes.
const (
	MessageText   MessageType = 1
	MessageBinary MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	}
	return "unknown"
}

// CloseCode is a close status the server sends itself. Oversized messages
// get 1009 from the read limit inside the websocket library, not from here.
type CloseCode int

const (
	CloseNormalClosure   CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	CloseUnsupportedData CloseCode = 1003
	CloseInternalError   CloseCode = 1011
)

var closeCodeNames = map[CloseCode]string{
	CloseNormalClosure:   "normal closure",
	CloseGoingAway:       "going away",
	CloseUnsupportedData: "unsupported data",
	CloseInternalError:   "internal error",
}

func (c CloseCode) String() string {
	if name, ok := closeCodeNames[c]; ok {
		return name
	}
	return "unknown"
}

// BinaryMode selects how binary messages are handled.
type BinaryMode string

const (
	// BinaryEcho echoes binary messages back unchanged.
	BinaryEcho BinaryMode = "echo"
	// BinaryReject closes the connection with CloseUnsupportedData.
	BinaryReject BinaryMode = "reject"
)

// ParseBinaryMode parses a binary mode name. An empty name means BinaryEcho.
func ParseBinaryMode(s string) (BinaryMode, error) {
	switch BinaryMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", BinaryEcho:
		return BinaryEcho, nil
	case BinaryReject:
		return BinaryReject, nil
	default:
		return "", fmt.Errorf("%w: %q (want echo or reject)", ErrInvalidBinaryMode, s)
	}
}

// ConnectionInfo represents public information about a connection.
type ConnectionInfo struct {
	ID               string    `json:"id"`
	RemoteAddr       string    `json:"remoteAddr,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	ConnectedAt      time.Time `json:"connectedAt"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
	MessagesSent     int64     `json:"messagesSent"`
	MessagesReceived int64     `json:"messagesReceived"`
}

// Stats represents aggregate connection statistics.
type Stats struct {
	ActiveConnections     int    `json:"activeConnections"`
	TotalConnections      int64  `json:"totalConnections"`
	TotalMessagesSent     int64  `json:"totalMessagesSent"`
	TotalMessagesReceived int64  `json:"totalMessagesReceived"`
	Uptime                string `json:"uptime"`
}
