package database

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

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

func observeLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })
	return logs
}

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	t.Run("info level logs every query at info", func(t *testing.T) {
		logs := observeLogs(t, zapcore.InfoLevel)
		NewGormLogger(0).LogMode(gormlogger.Info).Trace(ctx, time.Now(), query, nil)

		entries := logs.FilterMessage("gorm query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	})

	t.Run("warn level skips plain queries", func(t *testing.T) {
		logs := observeLogs(t, zapcore.DebugLevel)
		NewGormLogger(0).Trace(ctx, time.Now(), query, nil)
		assert.Zero(t, logs.Len())
	})

	t.Run("errors and slow queries", func(t *testing.T) {
		logs := observeLogs(t, zapcore.InfoLevel)
		l := NewGormLogger(time.Millisecond)
		l.Trace(ctx, time.Now(), query, errors.New("no such table"))
		l.Trace(ctx, time.Now().Add(-time.Second), query, nil)

		assert.Equal(t, 1, logs.FilterMessage("gorm query failed").Len())
		assert.Equal(t, 1, logs.FilterMessage("gorm slow query").Len())
	})
}

func TestInitDB_LogSQL(t *testing.T) {
	logs := observeLogs(t, zapcore.InfoLevel)

	cfg := config.Default()
	cfg.Database.DSN = "file:logsql?mode=memory&cache=shared"
	cfg.Database.LogSQL = true

	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.NotZero(t, logs.FilterMessage("gorm query").Len())
}
