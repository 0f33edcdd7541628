package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetRoutesPackageHelpers(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))

	Infow("classified", "rows", 10)
	Debugw("band done", "start", 0)
	Warnw("no history")
	Errorw("write failed", "path", "out.mpk")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, "classified", entries[0].Message)
	assert.Equal(t, int64(10), entries[0].ContextMap()["rows"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestInit(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	require.NoError(t, Init(false))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init(true))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}
