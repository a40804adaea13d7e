package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		SetLevel(in)
		assert.Equal(t, want, Level(), in)
	}
}

func TestWithContext_InjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = slog.New(newHandler(&buf, "json", false))
	defer func() { globalLogger = prev }()

	ctx := ContextWithRequestID(ContextWithTraceID(context.Background(), "t-1"), "r-1")
	Info(ctx, "priced", "symbol", "SPY-1-100-C")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "t-1", rec["trace_id"])
	assert.Equal(t, "r-1", rec["request_id"])
	assert.Equal(t, "SPY-1-100-C", rec["symbol"])
	assert.Equal(t, "r-1", RequestID(ctx))
}

func TestWithContext_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = slog.New(newHandler(&buf, "json", false))
	defer func() { globalLogger = prev }()

	Warn(context.Background(), "plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "trace_id")
	assert.NotContains(t, rec, "request_id")
}
