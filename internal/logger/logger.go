// Package logger wraps zerolog with the handful of conveniences the
// client needs: leveled/structured output, a default that goes to
// stderr, and a cheap way to attach request-scoped fields.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around a configured zerolog.Logger.
type Logger struct {
	zlog zerolog.Logger
}

// Config controls how a Logger is built.
type Config struct {
	Level  string // debug, info, warn, error, fatal, disabled
	Format string // json (default) or console
	Output io.Writer
}

// DefaultConfig returns the client's out-of-the-box logging
// configuration: warn level, JSON to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "warn",
		Format: "json",
		Output: os.Stderr,
	}
}

// New builds a Logger from cfg, falling back to DefaultConfig for a
// nil cfg or unset fields.
func New(cfg *Config) *Logger {
	d := DefaultConfig()
	if cfg == nil {
		cfg = d
	}
	if cfg.Output == nil {
		cfg.Output = d.Output
	}
	if cfg.Level == "" {
		cfg.Level = d.Level
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var zlog zerolog.Logger
	if cfg.Format == "console" {
		zlog = zerolog.New(zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	} else {
		zlog = zerolog.New(cfg.Output).With().Timestamp().Logger()
	}
	zlog = zlog.Level(parseLevel(cfg.Level))
	return &Logger{zlog: zlog}
}

// Nop returns a Logger that discards everything; used by callers that
// never configured one explicitly.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// With starts a child-logger builder carrying the given fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }

// Errorf logs at error level, attaching err as the structured "error" field.
func (l *Logger) Errorf(err error, format string, args ...interface{}) {
	l.zlog.Error().Err(err).Msgf(format, args...)
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}
