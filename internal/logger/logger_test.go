package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("returns logger from context when present", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)

		assert.Equal(t, expected, FromContext(ctx))
	})

	t.Run("falls back when context has no logger", func(t *testing.T) {
		l := FromContext(t.Context())
		require.NotNil(t, l)
	})

	t.Run("falls back on wrong type", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")
		require.NotNil(t, FromContext(ctx))
	})

	t.Run("falls back on nil logger", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, (Logger)(nil))
		require.NotNil(t, FromContext(ctx))
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  int
	}{
		{DebugLevel, -4},
		{InfoLevel, 0},
		{WarnLevel, 4},
		{ErrorLevel, 8},
		{LogLevel("WARN"), 4},
		{LogLevel("verbose"), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, int(tt.level.ToCharmlogLevel()), "level %s", tt.level)
	}

	assert.Greater(t, int(DisabledLevel.ToCharmlogLevel()), int(ErrorLevel.ToCharmlogLevel()))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	l := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})
	l.With("session", "s1").Info("submitted", "position", 3)

	line := strings.TrimSpace(buf.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
	assert.Equal(t, "submitted", entry["msg"])
	assert.Equal(t, "s1", entry["session"])
	assert.EqualValues(t, 3, entry["position"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	l := NewLogger(&Config{Level: WarnLevel, Output: &buf})
	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing happens")
}
