// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/arenabot/internal/config"
)

// buffer adapts a bytes.Buffer to a WriteSyncer.
func buffer() (*bytes.Buffer, zapcore.WriteSyncer) {
	var buf bytes.Buffer
	return &buf, zapcore.AddSync(&buf)
}

func TestNewLogger(t *testing.T) {
	t.Run("ConsoleWithColors", func(t *testing.T) {
		buf, ws := buffer()
		logger := NewLogger(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "arenabot",
			Colors:      config.ColorConfig{Info: "green", Warn: "Yellow"},
		}, ws)

		logger.Named("orchestrator").Info("Battle started.", zap.Int("battle", 1))
		logger.Warn("End screen still visible, clicking again.")
		logger.Debug("Deployed card.")

		out := buf.String()
		assert.Contains(t, out, colorMap["green"]+"INFO"+colorReset)
		assert.Contains(t, out, colorMap["yellow"]+"WARN"+colorReset, "color names are case insensitive")
		assert.Contains(t, out, "arenabot.orchestrator.")
		assert.Contains(t, out, "Battle started.")
		// No color configured for debug.
		assert.Contains(t, out, "\tDEBUG\t")
	})

	t.Run("JSON", func(t *testing.T) {
		buf, ws := buffer()
		logger := NewLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "arenabot"}, ws)
		logger.Warn("battle safety ceiling reached", zap.Duration("elapsed", 301*time.Second))

		var entry map[string]interface{}
		require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "arenabot", entry["logger"])
		assert.Equal(t, "battle safety ceiling reached", entry["msg"])
		assert.Equal(t, "5m1s", entry["elapsed"])
	})

	t.Run("LevelFiltering", func(t *testing.T) {
		buf, ws := buffer()
		logger := NewLogger(config.LoggerConfig{Level: "warn", Format: "json"}, ws)
		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("UnknownLevelFallsBackToInfo", func(t *testing.T) {
		buf, ws := buffer()
		logger := NewLogger(config.LoggerConfig{Level: "chatty", Format: "json"}, ws)
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("RotatedFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "arenabot.log")
		_, ws := buffer()
		logger := NewLogger(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, ws)
		logger.Error("This should go to the file.")
		require.NoError(t, logger.Sync())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
		assert.True(t, strings.HasPrefix(strings.TrimSpace(string(content)), "{"), "file sink is always JSON")
	})
}

func TestInitialize(t *testing.T) {
	t.Run("OnlyOnce", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		buf, ws := buffer()

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, ws)
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "second"}, ws)
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.Contains(t, buf.String(), "first")
		assert.NotContains(t, buf.String(), "second")
	})

	t.Run("FallbackBeforeInitialize", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})
}
