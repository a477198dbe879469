package server

import (
	"github.com/getmockd/wsecho/pkg/cliconfig"
	"github.com/getmockd/wsecho/pkg/websocket"
)

// ConfigFrom maps the merged CLI configuration onto server settings.
// The input is expected to have passed Validate.
func ConfigFrom(c *cliconfig.Config) Config {
	return Config{
		Host:            c.Host,
		Port:            c.Port,
		MaxConnections:  c.MaxConnections,
		ShutdownTimeout: c.ShutdownTimeout.Std(),
		Endpoint: &websocket.EndpointConfig{
			Path:              c.Path,
			MaxMessageSize:    c.MaxMessageSize,
			IdleTimeout:       c.IdleTimeout.Std(),
			HeartbeatInterval: c.HeartbeatInterval.Std(),
			HeartbeatTimeout:  c.HeartbeatTimeout.Std(),
			BinaryMode:        websocket.BinaryMode(c.BinaryMode),
			OriginPatterns:    c.AllowedOrigins,
		},
	}
}
