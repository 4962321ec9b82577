package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestNewHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "json", slog.LevelInfo)).Info("rates synced", "applied", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "rates synced", record["msg"])
	assert.Equal(t, float64(3), record["applied"])

	buf.Reset()
	slog.New(newHandler(&buf, "text", slog.LevelWarn)).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.log")
	log, closer, err := New(config.LogConfig{LogLevel: "debug", LogFormat: "text", LogOutput: path})
	require.NoError(t, err)

	log.Debug("cycle started", "cycle_id", "abc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cycle_id=abc")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{LogLevel: "loud"})
	assert.Error(t, err)
}
