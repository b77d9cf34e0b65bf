// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(&buf))

		logger.Info("This is a test message.")
		require.NoError(t, logger.Sync())

		out := buf.String()
		assert.Contains(t, out, ansiColors["green"]+"INFO"+colorReset)
		assert.Contains(t, out, "TestService.")
		assert.Contains(t, out, "This is a test message.")
	})

	t.Run("unknown color falls back to plain level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggerConfig{
			Level:  "info",
			Format: "console",
			Colors: config.ColorConfig{Warn: "chartreuse"},
		}, zapcore.AddSync(&buf))

		logger.Warn("plain")
		require.NoError(t, logger.Sync())
		assert.Contains(t, buf.String(), "WARN")
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("json format is structured", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONService",
		}, zapcore.AddSync(&buf))

		logger.Info("structured", zap.String("run_id", "r-1"))
		require.NoError(t, logger.Sync())

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "JSONService", entry["logger"])
		assert.Equal(t, "structured", entry["msg"])
		assert.Equal(t, "r-1", entry["run_id"])
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggerConfig{Level: "verbose", Format: "json"}, zapcore.AddSync(&buf))

		logger.Debug("hidden")
		logger.Info("shown")
		require.NoError(t, logger.Sync())
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("log file receives json copy", func(t *testing.T) {
		dir := t.TempDir()
		logFile := filepath.Join(dir, "agenda.log")

		var buf bytes.Buffer
		logger := New(config.LoggerConfig{
			Level:   "info",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.AddSync(&buf))

		logger.Info("to both")
		require.NoError(t, logger.Sync())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		line := strings.TrimSpace(string(data))
		assert.True(t, strings.HasPrefix(line, "{"), "file output should be JSON")
		assert.Contains(t, line, "to both")
	})
}

func TestInitializeAndGetLogger(t *testing.T) {
	t.Cleanup(ResetForTest)

	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		logger := GetLogger()
		require.NotNil(t, logger)
		assert.Equal(t, "fallback", logger.Name())
	})

	t.Run("initialization happens once", func(t *testing.T) {
		ResetForTest()
		var first, second bytes.Buffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, zapcore.AddSync(&first))
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&second))

		GetLogger().Info("hello")
		Sync()

		assert.Contains(t, first.String(), "hello")
		assert.Empty(t, second.String())
		assert.Equal(t, "first", GetLogger().Name())
	})
}
