// Package gormlog routes gorm statement logging into zerolog.
package gormlog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger"
)

// Logger implements gorm's logger.Interface on top of a zerolog logger.
type Logger struct {
	log           zerolog.Logger
	level         glogger.LogLevel
	slowThreshold time.Duration
	statements    bool
}

var _ glogger.Interface = (*Logger)(nil)

// New creates a gorm logger. Errors and slow statements are always logged,
// every statement only when cfg.Enabled is set.
func New(l zerolog.Logger, cfg logger.SQL) *Logger {
	return &Logger{
		log:           l.With().Str("component", "gorm").Logger(),
		level:         glogger.Warn,
		slowThreshold: cfg.SlowThreshold,
		statements:    cfg.Enabled,
	}
}

// LogMode implements logger.Interface.
func (l *Logger) LogMode(level glogger.LogLevel) glogger.Interface {
	out := *l
	out.level = level

	return &out
}

// Info implements logger.Interface.
func (l *Logger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= glogger.Info {
		l.log.Info().Msgf(msg, data...)
	}
}

// Warn implements logger.Interface.
func (l *Logger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= glogger.Warn {
		l.log.Warn().Msgf(msg, data...)
	}
}

// Error implements logger.Interface.
func (l *Logger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= glogger.Error {
		l.log.Error().Msgf(msg, data...)
	}
}

// Trace implements logger.Interface.
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= glogger.Error:
		sql, rows := fc()
		l.log.Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("sql error")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= glogger.Warn:
		sql, rows := fc()
		l.log.Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("slow sql")
	case l.statements:
		sql, rows := fc()
		l.log.Debug().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("sql")
	}
}
