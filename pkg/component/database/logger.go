package database

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts the global logger to GORM's logger interface.
type GormLogger struct {
	LogLevel      gormlogger.LogLevel
	SlowThreshold time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// LogMode sets the log level.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.LogLevel = level
	return &c
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Info {
		logger.Global().WithCtx(ctx).Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Warn {
		logger.Global().WithCtx(ctx).Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Error {
		logger.Global().WithCtx(ctx).Errorf(msg, data...)
	}
}

// Trace logs failed and slow statements, and every statement at Info level.
// Record-not-found errors are expected lookups and never logged.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.LogLevel >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		logger.Global().WithCtx(ctx).Errorw("Database query failed",
			"error", err,
			"sql", sql,
			"rows", rows,
			"duration_ms", float64(elapsed.Nanoseconds())/1e6,
		)
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn:
		sql, rows := fc()
		logger.Global().WithCtx(ctx).Warnw("Slow database query detected",
			"sql", sql,
			"rows", rows,
			"duration_ms", float64(elapsed.Nanoseconds())/1e6,
		)
	case l.LogLevel >= gormlogger.Info:
		sql, rows := fc()
		logger.Global().WithCtx(ctx).Debugw("Database query executed",
			"sql", sql,
			"rows", rows,
			"duration_ms", float64(elapsed.Nanoseconds())/1e6,
		)
	}
}
