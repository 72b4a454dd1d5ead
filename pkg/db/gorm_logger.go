package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

// gormLogger forwards slow statements and driver errors to the service
// logger. Missing rows and unique violations are expected and skipped.
type gormLogger struct {
	logg *logger.Logger
	slow time.Duration
}

func newGormLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &gormLogger{logg: logg, slow: slow}
}

func (g *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return g }

func (g *gormLogger) Info(context.Context, string, ...any) {}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.logg.Warn(ctx, fmt.Sprintf(msg, args...))
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	g.logg.Error(ctx, "gorm", errors.New(fmt.Sprintf(msg, args...)))
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	isSlow := g.slow > 0 && elapsed > g.slow
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !IsUniqueViolation(err, "")
	if !isSlow && !failed {
		return
	}
	sql, rows := fc()
	logCtx := g.logg.WithFields(ctx, map[string]any{
		"sql":        sql,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	if failed {
		g.logg.Error(logCtx, "db.query.failed", err)
		return
	}
	g.logg.Warn(logCtx, "db.query.slow")
}
