package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/getmockd/wsecho/pkg/cli/internal/parse"
)

// clientOptions are the connection settings shared by connect and send.
type clientOptions struct {
	url     string
	headers []string
	timeout time.Duration
}

// dial opens a client connection with the handshake bounded by timeout.
func dial(ctx context.Context, opts clientOptions) (*websocket.Conn, error) {
	header, err := parse.HTTPHeader(opts.headers)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: opts.timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, opts.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return conn, nil
}

// closeGracefully sends a normal close frame and waits up to timeout for the
// server to answer it, then closes the socket. drained, when non-nil, is
// closed by the goroutine that owns reading once it sees the close.
func closeGracefully(conn *websocket.Conn, timeout time.Duration, drained <-chan struct{}) error {
	defer conn.Close()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout)); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}

	if drained != nil {
		select {
		case <-drained:
		case <-time.After(timeout):
		}
		return nil
	}

	// Nobody else is reading: wait for the close reply ourselves.
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// messageTypeString returns a human-readable message type.
func messageTypeString(t int) string {
	switch t {
	case websocket.TextMessage:
		return "text"
	case websocket.BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}
