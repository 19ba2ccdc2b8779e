package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's statement log to zap. Statements run under a
// request context are logged with that request's logger so they carry its
// request_id.
type GormLogger struct {
	base          *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger creates a gorm logger. A zero slowThreshold disables slow
// query warnings.
func NewGormLogger(l *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{base: l, logLevel: level, slowThreshold: slowThreshold}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.logLevel = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, gormlogger.Info, msg, data)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, gormlogger.Warn, msg, data)
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, gormlogger.Error, msg, data)
}

func (g *GormLogger) printf(ctx context.Context, level gormlogger.LogLevel, msg string, data []any) {
	if g.logLevel < level {
		return
	}
	l := g.forContext(ctx)
	text := fmt.Sprintf(msg, data...)
	switch level {
	case gormlogger.Error:
		l.Error(text)
	case gormlogger.Warn:
		l.Warn(text)
	default:
		l.Info(text)
	}
}

// Trace logs failed statements at error, slow ones at warn and the rest at
// debug. gorm.ErrRecordNotFound is an ordinary lookup miss and is skipped.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if g.logLevel <= gormlogger.Silent || errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	l := g.forContext(ctx)
	switch {
	case err != nil:
		l.Error("SQL Error", statement(elapsed, fc, zap.Error(err))...)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.logLevel >= gormlogger.Warn:
		l.Warn("Slow SQL", statement(elapsed, fc, zap.Duration("threshold", g.slowThreshold))...)
	case g.logLevel >= gormlogger.Info:
		l.Debug("SQL Query", statement(elapsed, fc)...)
	}
}

func statement(elapsed time.Duration, fc func() (string, int64), extra ...zap.Field) []zap.Field {
	sql, rows := fc()
	return append([]zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}, extra...)
}

func (g *GormLogger) forContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	if !ok {
		l = g.base
	}
	return WithTrace(ctx, l.Named("gorm"))
}

// MapGormLogLevel maps the application log level to gorm's. Statements are
// only logged at info or debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}
