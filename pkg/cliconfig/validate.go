package cliconfig

import (
	"fmt"
	"strings"

	"github.com/getmockd/wsecho/pkg/logging"
	"github.com/getmockd/wsecho/pkg/websocket"
)

// maxMessageSizeLimit caps maxMessageSize at 64 MiB.
const maxMessageSizeLimit = 64 << 20

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range (0-65535)", c.Port)
	}
	if c.Path != "" && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path %q must start with /", c.Path)
	}
	if c.LogLevel != "" && !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("logLevel %q is invalid (debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "" && !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("logFormat %q is invalid (text, json)", c.LogFormat)
	}
	if c.MaxMessageSize < 0 || c.MaxMessageSize > maxMessageSizeLimit {
		return fmt.Errorf("maxMessageSize %d is out of range (0-%d)", c.MaxMessageSize, maxMessageSizeLimit)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("maxConnections %d is out of range (0 = unlimited)", c.MaxConnections)
	}
	for name, d := range map[string]Duration{
		"idleTimeout":       c.IdleTimeout,
		"heartbeatInterval": c.HeartbeatInterval,
		"heartbeatTimeout":  c.HeartbeatTimeout,
		"shutdownTimeout":   c.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s %s must not be negative", name, d)
		}
	}
	if _, err := websocket.ParseBinaryMode(c.BinaryMode); err != nil {
		return fmt.Errorf("binaryMode %q is invalid (echo, reject)", c.BinaryMode)
	}
	return nil
}
