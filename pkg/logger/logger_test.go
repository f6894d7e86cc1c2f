package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "orderdesk/internal/core/context"
)

func TestFromContext_EnrichesTraceAndViewer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), NewWithCore(core))
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithViewer(ctx, &appctx.Viewer{UserID: "u-1", Identity: "ana@example.com"})

	Info(ctx, "order saved", "number", "ENC001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "ana@example.com", fields["identity"])
	assert.Equal(t, "ENC001", fields["number"])
}

func TestFromContext_Anonymous(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), NewWithCore(core).WithComponent("worker"))

	Warn(ctx, "notification failed")
	Debug(ctx, "dropped below level")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "worker", entry.ContextMap()["component"])
	assert.NotContains(t, entry.ContextMap(), "user_id")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	l := Nop()
	assert.Same(t, l, l.WithContext(context.Background()))
}

func TestNew_JSONFormat(t *testing.T) {
	l, err := New(Config{Level: "debug", Development: true, Format: "json", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}
