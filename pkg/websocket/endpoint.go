package websocket

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getmockd/wsecho/pkg/logging"
)

// DefaultMaxMessageSize is the read limit applied when none is configured.
const DefaultMaxMessageSize int64 = 65536

// DefaultHeartbeatTimeout bounds how long a heartbeat ping waits for its pong.
const DefaultHeartbeatTimeout = 10 * time.Second

// EndpointConfig defines the configuration for a WebSocket endpoint.
type EndpointConfig struct {
	// Path is the URL path for the WebSocket upgrade (e.g., "/").
	Path string
	// MaxMessageSize is the maximum inbound message size in bytes (default: 65536).
	MaxMessageSize int64
	// IdleTimeout closes connections without traffic for this long (0 = disabled).
	IdleTimeout time.Duration
	// HeartbeatInterval is the time between protocol pings (0 = disabled).
	HeartbeatInterval time.Duration
	// HeartbeatTimeout is the maximum wait for a pong (default: 10s).
	HeartbeatTimeout time.Duration
	// WriteTimeout bounds each reply and the close frame (default: 10s).
	// A peer that stops reading is dropped once it expires.
	WriteTimeout time.Duration
	// BinaryMode selects echo or reject for binary messages (default: echo).
	BinaryMode BinaryMode
	// OriginPatterns lists allowed Origin host patterns. Empty allows any origin.
	OriginPatterns []string
}

// DefaultEndpointConfig returns an EndpointConfig with sensible defaults.
func DefaultEndpointConfig() *EndpointConfig {
	return &EndpointConfig{
		Path:             "/",
		MaxMessageSize:   DefaultMaxMessageSize,
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		BinaryMode:       BinaryEcho,
	}
}

// Endpoint accepts WebSocket connections on one path and serves each with
// the ping/echo loop.
type Endpoint struct {
	path              string
	maxMessageSize    int64
	idleTimeout       time.Duration
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	writeTimeout      time.Duration
	binaryMode        BinaryMode
	originPatterns    []string

	manager *ConnectionManager
	log     *slog.Logger
	mu      sync.RWMutex
}

// NewEndpoint creates a new WebSocket endpoint with the given configuration.
func NewEndpoint(cfg *EndpointConfig) (*Endpoint, error) {
	if cfg == nil {
		cfg = DefaultEndpointConfig()
	}

	path := cfg.Path
	if path == "" {
		path = "/"
	}
	if path[0] != '/' {
		return nil, fmt.Errorf("endpoint path %q must start with /", path)
	}

	maxMsgSize := cfg.MaxMessageSize
	if maxMsgSize <= 0 {
		maxMsgSize = DefaultMaxMessageSize
	}

	hbTimeout := cfg.HeartbeatTimeout
	if hbTimeout <= 0 {
		hbTimeout = DefaultHeartbeatTimeout
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	if cfg.IdleTimeout < 0 || cfg.HeartbeatInterval < 0 {
		return nil, fmt.Errorf("idle timeout and heartbeat interval must not be negative")
	}

	mode, err := ParseBinaryMode(string(cfg.BinaryMode))
	if err != nil {
		return nil, err
	}

	return &Endpoint{
		path:              path,
		maxMessageSize:    maxMsgSize,
		idleTimeout:       cfg.IdleTimeout,
		heartbeatInterval: cfg.HeartbeatInterval,
		heartbeatTimeout:  hbTimeout,
		writeTimeout:      writeTimeout,
		binaryMode:        mode,
		originPatterns:    cfg.OriginPatterns,
		log:               logging.Nop(),
	}, nil
}

// Path returns the endpoint path.
func (e *Endpoint) Path() string {
	return e.path
}

// MaxMessageSize returns the maximum message size.
func (e *Endpoint) MaxMessageSize() int64 {
	return e.maxMessageSize
}

// IdleTimeout returns the idle timeout duration.
func (e *Endpoint) IdleTimeout() time.Duration {
	return e.idleTimeout
}

// BinaryMode returns how binary messages are handled.
func (e *Endpoint) BinaryMode() BinaryMode {
	return e.binaryMode
}

// SetManager sets the connection manager for this endpoint.
func (e *Endpoint) SetManager(m *ConnectionManager) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manager = m
}

// Manager returns the connection manager, or nil.
func (e *Endpoint) Manager() *ConnectionManager {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.manager
}

// SetLogger sets the logger for connection and message events.
func (e *Endpoint) SetLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = log
}

func (e *Endpoint) logger() *slog.Logger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.log
}
