package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/qs3c/subs_go_server/config"
)

func TestNew(t *testing.T) {
	t.Run("json production logger", func(t *testing.T) {
		log, err := New(config.LogConfig{Level: "warn", Format: "json"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("console development logger", func(t *testing.T) {
		log, err := New(config.LogConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(config.LogConfig{Level: "verbose"})
		assert.Error(t, err)
	})
}
