package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("defaults to info json", func(t *testing.T) {
		l, err := New(Config{OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("debug console", func(t *testing.T) {
		l, err := New(Config{Level: "DEBUG", Format: "console", OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("bad level falls back to info", func(t *testing.T) {
		l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := New(Config{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestNamedNil(t *testing.T) {
	s := Named(nil, "x")
	require.NotNil(t, s)
	s.Infof("no panic %d", 1)
}
