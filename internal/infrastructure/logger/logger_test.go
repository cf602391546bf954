package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestNew(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		logger, err := New(DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, logger)
		logger.Info("test message")
	})

	t.Run("creates logger with json format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Format = "json"
		logger, err := New(cfg)
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("writes to a file path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output = t.TempDir() + "/app.log"
		logger, err := New(cfg)
		require.NoError(t, err)
		logger.Info("to file")
		require.NoError(t, Sync(logger))
	})
}

func TestNewForEnvironment(t *testing.T) {
	t.Run("production uses json", func(t *testing.T) {
		logger, err := NewForEnvironment("production")
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("development uses console", func(t *testing.T) {
		logger, err := NewForEnvironment("development")
		require.NoError(t, err)
		require.NotNil(t, logger)
	})
}

func TestNewFromSettings(t *testing.T) {
	t.Run("empty settings fall back to defaults", func(t *testing.T) {
		logger, err := NewFromSettings("", "", "")
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("explicit settings are honored", func(t *testing.T) {
		logger, err := NewFromSettings("debug", "json", "stderr")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"INFO", zapcore.InfoLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}
