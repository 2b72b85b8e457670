package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			t.Cleanup(func() { Logger = prev; JSONOutput = false })

			require.NoError(t, Initialize(tt.jsonOutput))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, "Info (-v)", LevelName(1))
}

func TestCleanupWithNilLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	Logger = nil
	assert.NotPanics(t, Cleanup)
	assert.NotPanics(t, func() { Warnw("dropped", "k", "v") })
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := zap.NewExample().Sugar()
	assert.Same(t, l, OrNop(l))
}

func TestFromContextAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core).Sugar()

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithComponent(ctx, "server")
	FromContext(ctx, base).Infow("listed companies", FieldCount, 2)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields[FieldRequestID])
	assert.Equal(t, "server", fields[FieldComponent])
	assert.Equal(t, int64(2), fields[FieldCount])
	assert.Equal(t, "req-42", RequestID(ctx))
}

func TestFromContextWithoutFieldsReturnsBase(t *testing.T) {
	base := zap.NewNop().Sugar()
	assert.Same(t, base, FromContext(context.Background(), base))
}
