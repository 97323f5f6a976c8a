package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONEnabled(t *testing.T) {
	require.False(t, New(false).JSONEnabled())
	require.True(t, New(true).JSONEnabled())
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(false, &buf)
	l.Info("hello", map[string]any{"module": "users"})
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "[INFO] hello"))
	require.Contains(t, out, `"module":"users"`)
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(true, &buf)
	l.Error("boom", map[string]any{"count": 2})

	var payload map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	require.Equal(t, "ERROR", payload["level"])
	require.Equal(t, "boom", payload["msg"])
	require.Equal(t, float64(2), payload["count"])
	require.NotEmpty(t, payload["ts"])
}
