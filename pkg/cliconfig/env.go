package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvHost              = "WSECHO_HOST"
	EnvPort              = "WSECHO_PORT"
	EnvPath              = "WSECHO_PATH"
	EnvConfig            = "WSECHO_CONFIG"
	EnvLogLevel          = "WSECHO_LOG_LEVEL"
	EnvLogFormat         = "WSECHO_LOG_FORMAT"
	EnvLogFile           = "WSECHO_LOG_FILE"
	EnvMaxMessageSize    = "WSECHO_MAX_MESSAGE_SIZE"
	EnvMaxConnections    = "WSECHO_MAX_CONNECTIONS"
	EnvIdleTimeout       = "WSECHO_IDLE_TIMEOUT"
	EnvHeartbeatInterval = "WSECHO_HEARTBEAT_INTERVAL"
	EnvHeartbeatTimeout  = "WSECHO_HEARTBEAT_TIMEOUT"
	EnvShutdownTimeout   = "WSECHO_SHUTDOWN_TIMEOUT"
	EnvBinaryMode        = "WSECHO_BINARY_MODE"
	EnvAllowedOrigins    = "WSECHO_ALLOWED_ORIGINS"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment and reports the
// first one that does not parse.
func LoadEnvConfig(cfg *Config) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	str := func(env, key string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
			cfg.Sources[key] = SourceEnv
		}
	}
	integer := func(env, key string, dst *int) error {
		v := os.Getenv(env)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", env, v)
		}
		*dst = n
		cfg.Sources[key] = SourceEnv
		return nil
	}
	duration := func(env, key string, dst *Duration) error {
		v := os.Getenv(env)
		if v == "" {
			return nil
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = d
		cfg.Sources[key] = SourceEnv
		return nil
	}

	str(EnvHost, "host", &cfg.Host)
	str(EnvPath, "path", &cfg.Path)
	str(EnvLogLevel, "logLevel", &cfg.LogLevel)
	str(EnvLogFormat, "logFormat", &cfg.LogFormat)
	str(EnvLogFile, "logFile", &cfg.LogFile)
	str(EnvBinaryMode, "binaryMode", &cfg.BinaryMode)

	if err := integer(EnvPort, "port", &cfg.Port); err != nil {
		return err
	}
	if err := integer(EnvMaxConnections, "maxConnections", &cfg.MaxConnections); err != nil {
		return err
	}

	// WSECHO_MAX_MESSAGE_SIZE
	if v := os.Getenv(EnvMaxMessageSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvMaxMessageSize, v)
		}
		cfg.MaxMessageSize = n
		cfg.Sources["maxMessageSize"] = SourceEnv
	}

	for _, d := range []struct {
		env, key string
		dst      *Duration
	}{
		{EnvIdleTimeout, "idleTimeout", &cfg.IdleTimeout},
		{EnvHeartbeatInterval, "heartbeatInterval", &cfg.HeartbeatInterval},
		{EnvHeartbeatTimeout, "heartbeatTimeout", &cfg.HeartbeatTimeout},
		{EnvShutdownTimeout, "shutdownTimeout", &cfg.ShutdownTimeout},
	} {
		if err := duration(d.env, d.key, d.dst); err != nil {
			return err
		}
	}

	// WSECHO_ALLOWED_ORIGINS
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		cfg.AllowedOrigins = SplitList(v)
		cfg.Sources["allowedOrigins"] = SourceEnv
	}

	return nil
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
