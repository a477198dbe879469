// Package cliconfig provides configuration types and loading for the wsecho CLI.
package cliconfig

// Config represents the complete configuration for the wsecho server.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Local config file (.wsechorc.yaml in current directory, or --config)
// 4. Global config file (~/.config/wsecho/config.yaml)
// 5. Default values (lowest priority)
type Config struct {
	// Listener settings
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	Path string `yaml:"path" json:"path"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	LogFile   string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// Connection limits
	MaxMessageSize int64 `yaml:"maxMessageSize" json:"maxMessageSize"`
	MaxConnections int   `yaml:"maxConnections" json:"maxConnections"`

	// Timeouts
	IdleTimeout       Duration `yaml:"idleTimeout" json:"idleTimeout"`
	HeartbeatInterval Duration `yaml:"heartbeatInterval" json:"heartbeatInterval"`
	HeartbeatTimeout  Duration `yaml:"heartbeatTimeout" json:"heartbeatTimeout"`
	ShutdownTimeout   Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`

	// Message policy
	BinaryMode     string   `yaml:"binaryMode" json:"binaryMode"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`

	// ConfigFile is the explicit file given with --config or WSECHO_CONFIG.
	ConfigFile string `yaml:"-" json:"configFile,omitempty"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records the YAML keys explicitly present in a loaded file,
	// so zero values like port: 0 or idleTimeout: 0s can still be merged.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFlag    = "flag"
)

// Keys lists every configuration key in display order.
var Keys = []string{
	"host",
	"port",
	"path",
	"logLevel",
	"logFormat",
	"logFile",
	"maxMessageSize",
	"maxConnections",
	"idleTimeout",
	"heartbeatInterval",
	"heartbeatTimeout",
	"shutdownTimeout",
	"binaryMode",
	"allowedOrigins",
}
