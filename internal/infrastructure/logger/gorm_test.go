package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(t *testing.T, zapLevel zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapLevel)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func TestNewGormLogger(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 200*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.ignoreRecordNotFoundError)

	var _ gormlogger.Interface = gormLog
}

func TestGormLoggerOptions(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLoggerLogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	clone := gormLog.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	cloneLog, ok := clone.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloneLog.logLevel)
}

func TestGormLoggerMessageLevels(t *testing.T) {
	t.Run("info logs at info level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

		gormLog.Info(context.Background(), "loaded %d rules", 3)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "loaded 3 rules")
	})

	t.Run("silent level suppresses info", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Silent)

		gormLog.Info(context.Background(), "loaded rules")

		assert.Empty(t, recorded.All())
	})

	t.Run("warn logs at warn level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.WarnLevel, gormlogger.Warn)

		gormLog.Warn(context.Background(), "retrying after %d failures", 2)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("error logs at error level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)

		gormLog.Error(context.Background(), "connection lost")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})
}

func TestGormLoggerTrace(t *testing.T) {
	query := func(sql string, rows int64) func() (string, int64) {
		return func() (string, int64) { return sql, rows }
	}

	t.Run("query error is logged", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)

		gormLog.Trace(context.Background(), time.Now(),
			query("SELECT * FROM reconciliation_records", 0), errors.New("connection refused"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL error")
	})

	t.Run("record not found is ignored by default", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)

		gormLog.Trace(context.Background(), time.Now(),
			query("SELECT * FROM reconciliation_records WHERE id = ?", 0), gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("slow query is logged at warn", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.WarnLevel, gormlogger.Warn,
			WithSlowThreshold(time.Nanosecond))

		begin := time.Now().Add(-time.Second)
		gormLog.Trace(context.Background(), begin,
			query("SELECT * FROM category_rules", 10), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "Slow SQL")
	})

	t.Run("normal query is logged at debug", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.DebugLevel, gormlogger.Info)

		gormLog.Trace(context.Background(), time.Now(),
			query("SELECT * FROM taxonomy_entries", 5), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL trace")
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.DebugLevel, gormlogger.Silent)

		gormLog.Trace(context.Background(), time.Now(),
			query("SELECT * FROM taxonomy_entries", 5), nil)

		assert.Empty(t, recorded.All())
	})

	t.Run("request id from context is attached", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(t, zapcore.DebugLevel, gormlogger.Info)

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-7")
		gormLog.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)

		found := false
		for _, field := range logs[0].Context {
			if field.Key == "request_id" {
				found = true
				assert.Equal(t, "req-7", field.String)
			}
		}
		assert.True(t, found, "request_id should be in log fields")
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
