package cliconfig

import "time"

// DefaultHost is the default listen host.
const DefaultHost = "localhost"

// DefaultPort is the default listen port.
const DefaultPort = 8080

// DefaultPath is the default WebSocket upgrade path.
const DefaultPath = "/"

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// DefaultMaxMessageSize is the default inbound message limit in bytes.
const DefaultMaxMessageSize = 65536

// DefaultHeartbeatTimeout is how long a heartbeat ping waits for its pong.
const DefaultHeartbeatTimeout = 10 * time.Second

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// DefaultBinaryMode echoes binary messages unchanged.
const DefaultBinaryMode = "echo"

// NewDefault creates a new Config with default values.
func NewDefault() *Config {
	cfg := &Config{
		Host:             DefaultHost,
		Port:             DefaultPort,
		Path:             DefaultPath,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		MaxMessageSize:   DefaultMaxMessageSize,
		HeartbeatTimeout: Duration(DefaultHeartbeatTimeout),
		ShutdownTimeout:  Duration(DefaultShutdownTimeout),
		BinaryMode:       DefaultBinaryMode,
		Sources:          make(map[string]string),
	}

	// Mark all as default source
	for _, key := range Keys {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}
