package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
}

func TestInitialize(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()
	require.NoError(t, Initialize(false, 1))
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
	require.NoError(t, Initialize(true, 0))
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))

	own := zap.NewNop().Sugar()
	assert.Same(t, own, OrNop(own))
	assert.Same(t, Logger, OrNop(nil))
}
