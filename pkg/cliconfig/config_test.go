package cliconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points config discovery at empty temp dirs and clears WSECHO_* vars.
func isolate(t *testing.T) (cwd, globalDir string) {
	t.Helper()
	cwd = t.TempDir()
	xdg := t.TempDir()
	t.Chdir(cwd)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", xdg)
	for _, env := range []string{
		EnvHost, EnvPort, EnvPath, EnvConfig, EnvLogLevel, EnvLogFormat, EnvLogFile,
		EnvMaxMessageSize, EnvMaxConnections, EnvIdleTimeout, EnvHeartbeatInterval,
		EnvHeartbeatTimeout, EnvShutdownTimeout, EnvBinaryMode, EnvAllowedOrigins,
	} {
		t.Setenv(env, "")
	}
	globalDir = filepath.Join(xdg, GlobalConfigDir)
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	return cwd, globalDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "port zero picks a free port",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "port 70000 is out of range",
		},
		{
			name:    "port negative",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: "port -1 is out of range",
		},
		{
			name:    "path without slash",
			mutate:  func(c *Config) { c.Path = "ws" },
			wantErr: `path "ws" must start with /`,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: `logLevel "loud" is invalid`,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: `logFormat "xml" is invalid`,
		},
		{
			name:    "max message size too high",
			mutate:  func(c *Config) { c.MaxMessageSize = 1 << 30 },
			wantErr: "maxMessageSize 1073741824 is out of range",
		},
		{
			name:    "negative max connections",
			mutate:  func(c *Config) { c.MaxConnections = -2 },
			wantErr: "maxConnections -2 is out of range",
		},
		{
			name:    "negative idle timeout",
			mutate:  func(c *Config) { c.IdleTimeout = Duration(-time.Second) },
			wantErr: "idleTimeout -1s must not be negative",
		},
		{
			name:    "unknown binary mode",
			mutate:  func(c *Config) { c.BinaryMode = "drop" },
			wantErr: `binaryMode "drop" is invalid`,
		},
		{
			name:    "binary mode is case-insensitive",
			mutate:  func(c *Config) { c.BinaryMode = "REJECT" },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/", cfg.Path)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int64(65536), cfg.MaxMessageSize)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatTimeout.Std())
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout.Std())
	assert.Equal(t, "echo", cfg.BinaryMode)
	assert.Zero(t, cfg.IdleTimeout)
	for _, key := range Keys {
		assert.Equal(t, SourceDefault, cfg.Sources[key], key)
	}
}

func TestMergeConfig_BasicFields(t *testing.T) {
	t.Run("merges non-zero values", func(t *testing.T) {
		target := NewDefault()
		source := &Config{
			Port:        9000,
			IdleTimeout: Duration(time.Minute),
		}

		MergeConfig(target, source, SourceLocal)

		assert.Equal(t, 9000, target.Port)
		assert.Equal(t, time.Minute, target.IdleTimeout.Std())
		assert.Equal(t, SourceLocal, target.Sources["port"])
		assert.Equal(t, SourceLocal, target.Sources["idleTimeout"])
		assert.Equal(t, SourceDefault, target.Sources["host"])
	})

	t.Run("does not overwrite with zero values", func(t *testing.T) {
		target := NewDefault()

		MergeConfig(target, &Config{Port: 0}, SourceLocal)

		assert.Equal(t, DefaultPort, target.Port)
		assert.Equal(t, SourceDefault, target.Sources["port"])
	})

	t.Run("merges explicit zero with SetFields", func(t *testing.T) {
		target := NewDefault()
		target.IdleTimeout = Duration(time.Minute)

		source := &Config{SetFields: map[string]bool{"port": true, "idleTimeout": true}}
		MergeConfig(target, source, SourceGlobal)

		assert.Equal(t, 0, target.Port)
		assert.Zero(t, target.IdleTimeout)
		assert.Equal(t, SourceGlobal, target.Sources["port"])
	})

	t.Run("copies allowed origins", func(t *testing.T) {
		target := NewDefault()
		origins := []string{"a.example.com"}

		MergeConfig(target, &Config{AllowedOrigins: origins}, SourceFlag)
		origins[0] = "mutated"

		assert.Equal(t, []string{"a.example.com"}, target.AllowedOrigins)
	})

	t.Run("nil source is no-op", func(t *testing.T) {
		target := NewDefault()
		MergeConfig(target, nil, SourceLocal)
		assert.Equal(t, NewDefault(), target)
	})
}

func TestParseConfig(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		cfg, err := ParseConfig("test.yaml", []byte(`
host: 0.0.0.0
port: 9001
path: /echo
logLevel: debug
logFormat: json
maxMessageSize: 1024
maxConnections: 50
idleTimeout: 30s
heartbeatInterval: 15
binaryMode: reject
allowedOrigins:
  - app.example.com
`))
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Host)
		assert.Equal(t, 9001, cfg.Port)
		assert.Equal(t, "/echo", cfg.Path)
		assert.Equal(t, int64(1024), cfg.MaxMessageSize)
		assert.Equal(t, 50, cfg.MaxConnections)
		assert.Equal(t, 30*time.Second, cfg.IdleTimeout.Std())
		assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval.Std(), "bare integers are seconds")
		assert.Equal(t, "reject", cfg.BinaryMode)
		assert.Equal(t, []string{"app.example.com"}, cfg.AllowedOrigins)
		assert.True(t, cfg.SetFields["port"])
		assert.False(t, cfg.SetFields["logFile"])
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := ParseConfig("empty.yaml", nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.SetFields)
	})

	t.Run("unknown key reports line", func(t *testing.T) {
		_, err := ParseConfig("bad.yaml", []byte("port: 1\nprot: 2\n"))
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "bad.yaml", cfgErr.Path)
		assert.Equal(t, 2, cfgErr.Line)
		assert.Contains(t, cfgErr.Error(), "bad.yaml (line 2)")
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := ParseConfig("bad.yaml", []byte("idleTimeout: soon\n"))
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, 1, cfgErr.Line)
		assert.Contains(t, cfgErr.Message, `invalid duration "soon"`)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := ParseConfig("bad.yaml", []byte("host: x\nport: eighty\n"))
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, 2, cfgErr.Line)
	})
}

func TestConfigError_Error(t *testing.T) {
	assert.Equal(t, "a.yaml: boom", (&ConfigError{Path: "a.yaml", Message: "boom"}).Error())
	assert.Equal(t, "a.yaml (line 3): boom", (&ConfigError{Path: "a.yaml", Line: 3, Message: "boom"}).Error())
	assert.Equal(t, "a.yaml (line 3, column 7): boom",
		(&ConfigError{Path: "a.yaml", Line: 3, Column: 7, Message: "boom"}).Error())
}

func TestLoadAll_Precedence(t *testing.T) {
	cwd, globalDir := isolate(t)

	writeFile(t, filepath.Join(globalDir, "config.yaml"), "port: 7000\nhost: 0.0.0.0\nlogLevel: warn\n")
	writeFile(t, filepath.Join(cwd, ".wsechorc.yaml"), "port: 7001\nbinaryMode: reject\n")
	t.Setenv(EnvPort, "7002")
	t.Setenv(EnvIdleTimeout, "2m")
	t.Setenv(EnvAllowedOrigins, "a.example.com, ,b.example.com")

	cfg, err := LoadAll("")
	require.NoError(t, err)

	assert.Equal(t, 7002, cfg.Port)
	assert.Equal(t, SourceEnv, cfg.Sources["port"])
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, SourceGlobal, cfg.Sources["host"])
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "reject", cfg.BinaryMode)
	assert.Equal(t, SourceLocal, cfg.Sources["binaryMode"])
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout.Std())
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "/", cfg.Path)
	assert.Equal(t, SourceDefault, cfg.Sources["path"])
	assert.Equal(t, filepath.Join(cwd, ".wsechorc.yaml"), cfg.ConfigFile)
}

func TestLoadAll_ExplicitFileReplacesLocal(t *testing.T) {
	cwd, _ := isolate(t)

	writeFile(t, filepath.Join(cwd, ".wsechorc.yaml"), "port: 7001\n")
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, explicit, "path: /custom\n")

	cfg, err := LoadAll(explicit)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port, "local file must be skipped")
	assert.Equal(t, "/custom", cfg.Path)
	assert.Equal(t, explicit, cfg.ConfigFile)

	t.Run("from environment", func(t *testing.T) {
		t.Setenv(EnvConfig, explicit)
		cfg, err := LoadAll("")
		require.NoError(t, err)
		assert.Equal(t, "/custom", cfg.Path)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadAll(filepath.Join(cwd, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadAll_NoFiles(t *testing.T) {
	isolate(t)

	cfg, err := LoadAll("")
	require.NoError(t, err)
	assert.Equal(t, NewDefault().Port, cfg.Port)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadEnvConfig_Invalid(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{EnvPort, "eighty", "WSECHO_PORT"},
		{EnvMaxMessageSize, "big", "WSECHO_MAX_MESSAGE_SIZE"},
		{EnvHeartbeatInterval, "often", "WSECHO_HEARTBEAT_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.value)
			err := LoadEnvConfig(NewDefault())
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), tt.want), err.Error())
		})
	}
}

func TestDuration_Encoding(t *testing.T) {
	cfg := NewDefault()
	cfg.IdleTimeout = Duration(90 * time.Second)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "idleTimeout: 1m30s")
	assert.Contains(t, string(out), "heartbeatTimeout: 10s")

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"idleTimeout":"1m30s"`)

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg.IdleTimeout, back.IdleTimeout)

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`45`), &d))
	assert.Equal(t, 45*time.Second, d.Std())
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}
