package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		assert.Zero(t, buf.Len())
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		entry := decodeEntry(t, &buf)
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "info message", entry["msg"])
	})

	t.Run("warn logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Warnf("warn %d", 1)
		entry := decodeEntry(t, &buf)
		assert.Equal(t, "warning", entry["level"])
		assert.Equal(t, "warn 1", entry["msg"])
	})
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.
		WithField("key", "value").
		WithFields(map[string]interface{}{"count": 42}).
		WithError(errors.New("boom")).
		Debug("message")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, float64(42), entry["count"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithNilError(t *testing.T) {
	logger := NopLogger()
	assert.Same(t, logger, logger.WithError(nil))
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithFormat(InfoLevel, FormatText, &buf)

	logger.WithField("field", "f").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "field=f")
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
}

func TestFromContext(t *testing.T) {
	var buf, fallbackBuf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)
	fallback := NewLogger(InfoLevel, &fallbackBuf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithSessionID(ctx, "abc")
	assert.Equal(t, "abc", GetSessionID(ctx))

	FromContext(ctx, fallback).Info("scoped")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "abc", entry["session_id"])
	assert.Empty(t, fallbackBuf.String())

	FromContext(WithSessionID(context.Background(), "def"), fallback).Info("fallback")
	entry = decodeEntry(t, &fallbackBuf)
	assert.Equal(t, "def", entry["session_id"])
}

func TestGetLogger_Default(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background(), nil))
	fallback := NopLogger()
	assert.Same(t, fallback, GetLogger(context.Background(), fallback))
	assert.Empty(t, GetSessionID(context.Background()))
}
