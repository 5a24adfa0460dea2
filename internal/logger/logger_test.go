package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("debug level shows everything", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("warn level hides debug and info", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("invalid level is ignored", func(t *testing.T) {
		SetLevel("INFO")
		SetLevel("NOT_A_LEVEL")
		assert.Equal(t, LevelInfo, Level(currentLevel.Load()))
	})
}

func TestStructuredFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	SetLevel("DEBUG")
	SetFormat("json")
	defer SetFormat("text")

	Info("chunk written", KeyChunkID, "abc123", KeySize, uint64(42))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chunk written", entry["msg"])
	assert.Equal(t, "abc123", entry[KeyChunkID])
	assert.Equal(t, float64(42), entry[KeySize])
}

func TestContextFieldsInjected(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	SetLevel("DEBUG")
	SetFormat("json")
	defer SetFormat("text")

	lc := NewLogContext("memory").WithPrefixes("data/", "logs/")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "committed file")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "committed file", entry["msg"])
	assert.Equal(t, "memory", entry[KeyBackend])
	assert.Equal(t, "data/", entry[KeyDataPrefix])
	assert.Equal(t, "logs/", entry[KeyLogPrefix])
}

func TestLogContextClone(t *testing.T) {
	lc := NewLogContext("s3").WithPrefixes("data/", "logs/")
	clone := lc.WithPrefixes("other-data/", "other-logs/")

	assert.Equal(t, "data/", lc.DataPrefix)
	assert.Equal(t, "other-data/", clone.DataPrefix)
	assert.Equal(t, "s3", clone.Backend)

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Nil(t, FromContext(nil))
}

func TestErrField(t *testing.T) {
	assert.Equal(t, KeyError, Err(assert.AnError).Key)
	zero := Err(nil)
	assert.True(t, zero.Equal(zero))
}
