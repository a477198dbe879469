package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// maxLoggedMessage bounds how much of a message is copied into log records.
const maxLoggedMessage = 256

// ServeHTTP implements http.Handler.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := e.HandleUpgrade(w, r); err != nil {
		e.logger().Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
	}
}

// HandleUpgrade upgrades the request to WebSocket and serves the connection
// until it ends. It blocks for the lifetime of the connection; net/http runs
// every request in its own goroutine, so each connection gets one.
//
// A failed handshake is returned; the HTTP error response has already been
// written by then. Errors on an established connection are not returned:
// they only end that connection.
func (e *Endpoint) HandleUpgrade(w http.ResponseWriter, r *http.Request) error {
	acceptOpts := &ws.AcceptOptions{
		InsecureSkipVerify: len(e.originPatterns) == 0,
		OriginPatterns:     e.originPatterns,
		CompressionMode:    ws.CompressionDisabled,
	}

	wsConn, err := ws.Accept(w, r, acceptOpts)
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}
	wsConn.SetReadLimit(e.maxMessageSize)

	conn := NewConnection(wsConn, r)
	conn.SetWriteTimeout(e.writeTimeout)
	e.handleConnection(conn)
	return nil
}

// handleConnection handles the lifecycle of a WebSocket connection.
func (e *Endpoint) handleConnection(conn *Connection) {
	log := e.logger().With("conn", conn.ID(), "remote", conn.RemoteAddr())

	manager := e.Manager()
	if manager != nil {
		manager.Add(conn)
	}
	log.Info("connection opened")

	closeCode, reason := CloseNormalClosure, ""

	defer func() {
		if manager != nil {
			manager.Remove(conn.ID())
		}
		// The peer may already be gone; a second close is harmless.
		e.closeWithin(conn, closeCode, reason)
		log.Info("connection closed",
			"code", int(closeCode),
			"received", conn.MessagesReceived(),
			"sent", conn.MessagesSent(),
			"duration", time.Since(conn.ConnectedAt()).Round(time.Millisecond).String())
	}()

	ctx, cancel := context.WithCancel(conn.Context())
	defer cancel()

	if e.heartbeatInterval > 0 {
		go e.runHeartbeat(ctx, conn, log)
	}
	if e.idleTimeout > 0 {
		go e.watchIdleTimeout(ctx, conn, log)
	}

	err := Serve(conn, NewDispatcher(e.binaryMode), log)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupportedData):
		closeCode, reason = CloseUnsupportedData, err.Error()
		log.Info("rejecting binary message")
	default:
		closeCode, reason = CloseInternalError, "send failed"
		log.Debug("connection ended with error", "error", err)
	}
}

// Serve runs the request/response loop on one stream: read a message, send
// exactly one reply, repeat. It returns nil when the peer closes the stream
// and the error otherwise. No message is sent after Serve returns.
func Serve(stream Stream, d *Dispatcher, log *slog.Logger) error {
	for {
		msgType, data, err := stream.Read()
		if err != nil {
			// Closed or broken, there is no one left to reply to.
			if isEndOfStream(err) {
				log.Debug("stream ended", "reason", err)
			} else {
				log.Debug("read failed", "error", err)
			}
			return nil
		}

		log.Info("Received message", "type", msgType.String(), "message", preview(msgType, data))

		reply, err := d.Dispatch(msgType, data)
		if err != nil {
			return err
		}

		if err := stream.Send(reply.Type, reply.Data); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}

		if reply.Pong {
			log.Info("Sent: pong")
		} else {
			log.Info("Echoed", "type", reply.Type.String(), "message", preview(reply.Type, reply.Data))
		}
	}
}

// isEndOfStream reports whether err means the stream was closed, by the peer
// or by us, rather than broken.
func isEndOfStream(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	switch ws.CloseStatus(err) {
	case ws.StatusNormalClosure, ws.StatusGoingAway, ws.StatusNoStatusRcvd:
		return true
	}
	return false
}

// preview renders a message for logging.
func preview(msgType MessageType, data []byte) string {
	if msgType == MessageBinary {
		return fmt.Sprintf("<%d bytes>", len(data))
	}
	if len(data) > maxLoggedMessage {
		return string(data[:maxLoggedMessage]) + "..."
	}
	return string(data)
}

// runHeartbeat sends periodic pings and closes the connection when one goes
// unanswered.
func (e *Endpoint) runHeartbeat(ctx context.Context, conn *Connection, log *slog.Logger) {
	ticker := time.NewTicker(e.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, e.heartbeatTimeout)
			err := conn.Ping(pingCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Info("heartbeat failed, closing connection", "error", err)
				e.closeWithin(conn, CloseGoingAway, "ping timeout")
				return
			}
		}
	}
}

// watchIdleTimeout closes the connection if idle for too long.
func (e *Endpoint) watchIdleTimeout(ctx context.Context, conn *Connection, log *slog.Logger) {
	tick := e.idleTimeout / 4
	if tick > time.Second {
		tick = time.Second
	}
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(conn.LastActivity()) > e.idleTimeout {
				log.Info("idle timeout, closing connection", "idle", e.idleTimeout.String())
				e.closeWithin(conn, CloseGoingAway, "idle timeout")
				return
			}
		}
	}
}

// closeWithin closes conn, giving the close frame one write timeout to get
// out before the connection is dropped.
func (e *Endpoint) closeWithin(conn *Connection, code CloseCode, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
	defer cancel()
	_ = conn.CloseContext(ctx, code, reason)
}
