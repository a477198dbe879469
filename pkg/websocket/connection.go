package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
)

// Stream is a bidirectional message stream: the part of a connection the
// dispatch loop needs.
type Stream interface {
	// Read blocks until the next message arrives or the stream ends.
	Read() (MessageType, []byte, error)
	// Send writes one message.
	Send(msgType MessageType, data []byte) error
}

// DefaultWriteTimeout bounds a single outbound message.
const DefaultWriteTimeout = 10 * time.Second

// DefaultCloseTimeout bounds Close when the caller supplies no deadline.
const DefaultCloseTimeout = 5 * time.Second

// Connection represents an active WebSocket connection.
type Connection struct {
	id           string
	conn         *ws.Conn
	remoteAddr   string
	userAgent    string
	connectedAt  time.Time
	lastActivity atomic.Int64 // unix nanoseconds
	messagesSent atomic.Int64
	messagesRecv atomic.Int64
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	sendMu sync.RWMutex // Send/Ping hold it shared, Close exclusively
	closed atomic.Bool
}

var _ Stream = (*Connection)(nil)

// NewConnection creates a new Connection wrapping a websocket.Conn.
// The request, when given, provides the remote address and user agent.
func NewConnection(wsConn *ws.Conn, r *http.Request) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Connection{
		id:          GenerateConnectionID(),
		conn:        wsConn,
		connectedAt:  time.Now(),
		writeTimeout: DefaultWriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	if r != nil {
		c.remoteAddr = r.RemoteAddr
		c.userAgent = r.UserAgent()
	}
	c.touch()

	return c
}

// ID returns the unique connection ID.
func (c *Connection) ID() string {
	return c.id
}

// RemoteAddr returns the peer address as seen by the HTTP server.
func (c *Connection) RemoteAddr() string {
	return c.remoteAddr
}

// ConnectedAt returns the connection establishment time.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// LastActivity returns the time of the last message in either direction.
func (c *Connection) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

func (c *Connection) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// MessagesSent returns the total messages sent.
func (c *Connection) MessagesSent() int64 {
	return c.messagesSent.Load()
}

// MessagesReceived returns the total messages received.
func (c *Connection) MessagesReceived() int64 {
	return c.messagesRecv.Load()
}

// Context returns the connection context. It is cancelled on Close.
func (c *Connection) Context() context.Context {
	return c.ctx
}

// IsClosed returns whether the connection is closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Read reads the next message from the connection.
func (c *Connection) Read() (MessageType, []byte, error) {
	// Read does not take sendMu: it blocks on I/O and Close unblocks it by
	// cancelling the context.
	if c.IsClosed() {
		return 0, nil, ErrConnectionClosed
	}

	wsType, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return 0, nil, err
	}

	c.messagesRecv.Add(1)
	c.touch()

	if wsType == ws.MessageBinary {
		return MessageBinary, data, nil
	}
	return MessageText, data, nil
}

// SetWriteTimeout changes the per-message write bound. Zero or negative
// restores DefaultWriteTimeout.
func (c *Connection) SetWriteTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultWriteTimeout
	}
	c.writeTimeout = d
}

// Send sends a message to the client. A peer that stops reading makes the
// write fail after the write timeout, which also tears the connection down.
func (c *Connection) Send(msgType MessageType, data []byte) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.IsClosed() {
		return ErrConnectionClosed
	}

	wsType := ws.MessageText
	if msgType == MessageBinary {
		wsType = ws.MessageBinary
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, wsType, data); err != nil {
		return err
	}

	c.messagesSent.Add(1)
	c.touch()
	return nil
}

// Ping sends a ping frame and waits for the pong. A concurrent Read must be
// running for the pong to be processed.
func (c *Connection) Ping(ctx context.Context) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.IsClosed() {
		return ErrConnectionClosed
	}
	return c.conn.Ping(ctx)
}

// Close closes the connection with the given close code and reason,
// waiting at most DefaultCloseTimeout for the close handshake.
// Closing twice returns ErrConnectionClosed.
func (c *Connection) Close(code CloseCode, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultCloseTimeout)
	defer cancel()
	return c.CloseContext(ctx, code, reason)
}

// CloseContext is Close bounded by ctx. When ctx ends before the handshake
// completes, the underlying connection is dropped without one; a send
// stuck on a peer that stopped reading is released the same way.
func (c *Connection) CloseContext(ctx context.Context, code CloseCode, reason string) error {
	if c.closed.Swap(true) {
		return ErrConnectionClosed
	}

	done := make(chan error, 1)
	go func() {
		// Waits out an in-flight Send so frames are not interleaved.
		c.sendMu.Lock()
		defer c.sendMu.Unlock()
		done <- c.conn.Close(ws.StatusCode(code), reason)
	}()

	select {
	case err := <-done:
		c.cancel()
		return err
	case <-ctx.Done():
		c.cancel()
		_ = c.conn.CloseNow()
		return fmt.Errorf("close handshake: %w", ctx.Err())
	}
}

// CloseNormal closes the connection with normal closure.
func (c *Connection) CloseNormal() error {
	return c.Close(CloseNormalClosure, "")
}

// Info returns public information about this connection.
func (c *Connection) Info() *ConnectionInfo {
	return &ConnectionInfo{
		ID:               c.id,
		RemoteAddr:       c.remoteAddr,
		UserAgent:        c.userAgent,
		ConnectedAt:      c.connectedAt,
		LastActivityAt:   c.LastActivity(),
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesRecv.Load(),
	}
}
