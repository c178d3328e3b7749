package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/src/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	logger.Info("saved manifestation", "isbn", "9784061234567")
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "saved manifestation", line["msg"])
	assert.Equal(t, "9784061234567", line["isbn"])
	assert.Contains(t, line, "ts")
}

func TestAutoFormatFallsBackToJSONForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Output: &buf})
	require.NoError(t, err)
	logger.Warn("x")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestConsoleAndBadFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	require.NoError(t, err)
	logger.Debug("renumbered", "scope", "m1")
	assert.Contains(t, buf.String(), "scope=m1")

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewFromConfigAndNop(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	logger, err := NewFromConfig(&cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	NewNop().Error("discarded")
}
