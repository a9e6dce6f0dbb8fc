package ctxlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	logger := Discard()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "file", "a.txt")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "file=a.txt")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	New("debug", "json", &buf).Debug("step", "name", "trim")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "step", record["msg"])
	assert.Equal(t, "trim", record["name"])
	assert.Equal(t, "DEBUG", record["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
