package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		{"DEBUG", LevelDebug},
		{"WARNING", LevelWarn},
		{"dEbUg", LevelDebug},
		{"Error", LevelError},

		// Empty and unknown fall back to info
		{"", LevelInfo},
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFormat(tt.input))
		})
	}
}

func TestValidLevelAndFormat(t *testing.T) {
	assert.True(t, ValidLevel("Warn"))
	assert.False(t, ValidLevel("trace"))
	assert.False(t, ValidLevel(""))
	assert.True(t, ValidFormat("JSON"))
	assert.False(t, ValidFormat("yaml"))
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "port", 8080)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "port=8080")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("websocket server started", "addr", "localhost:8080")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "websocket server started", rec["msg"])
	assert.Equal(t, "localhost:8080", rec["addr"])
}

func TestNew_FileReceivesJSONCopy(t *testing.T) {
	var console, file bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &console, File: &file})

	logger.With("component", "server").Info("hello", "n", 1)

	assert.Contains(t, console.String(), "component=server")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "server", rec["component"])
}

func TestTee_SkipsDisabledHandlers(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &debugBuf})
	strict := New(Config{Level: LevelError, Output: &errorBuf})

	multi := Tee(logger.Handler(), strict.Handler())
	assert.True(t, multi.Enabled(t.Context(), LevelDebug))

	l := slog.New(multi)
	l.Debug("debug line")
	l.Error("error line")

	assert.Equal(t, 2, strings.Count(debugBuf.String(), "\n"))
	assert.Equal(t, 1, strings.Count(errorBuf.String(), "\n"))
	assert.Contains(t, errorBuf.String(), "error line")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsecho.log")

	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	logger := New(Config{Output: &bytes.Buffer{}, File: f})
	logger.Info("persisted")
	require.NoError(t, f.Sync())

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("discarded")
	})
}
