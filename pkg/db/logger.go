package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

const slowQueryThreshold = 200 * time.Millisecond

// queryLogger adapts zap to gorm's logger.Interface. Record-not-found is not
// treated as an error; every service turns it into domain absence.
type queryLogger struct {
	zap     *zap.Logger
	level   logger.LogLevel
	showSQL bool
}

func newQueryLogger(z *zap.Logger, level logger.LogLevel, showSQL bool) *queryLogger {
	return &queryLogger{zap: z, level: level, showSQL: showSQL}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.zap.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.zap.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.zap.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.String("file", utils.FileWithLineNum()),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}

	if err != nil && !errors.Is(err, logger.ErrRecordNotFound) {
		l.zap.Error("gorm.query", append(fields, zap.Error(err))...)
		return
	}

	if elapsed > slowQueryThreshold {
		l.zap.Warn("gorm.slow_query", append(fields, zap.Duration("threshold", slowQueryThreshold))...)
		return
	}

	if l.level == logger.Info && l.showSQL {
		l.zap.Info("gorm.query", fields...)
	}
}
