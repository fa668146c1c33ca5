package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	// Debugf logs a debug-level message.
	Debugf(format string, args ...any)
	// Infof logs an info-level message.
	Infof(format string, args ...any)
	// Warnf logs a warning message.
	Warnf(format string, args ...any)
	// Errorf logs an error-level message.
	Errorf(format string, args ...any)
	// With returns a logger that tags every entry with key=value.
	With(key, value string) Logger
}

type zeroLogger struct {
	l zerolog.Logger
}

// NewLogger creates a console logger on stdout with the requested minimum
// level.
func NewLogger(level string) (Logger, error) {
	return newLogger(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}, level)
}

func newLogger(w io.Writer, level string) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "cbus-bridge").Logger()
	return &zeroLogger{l: l}, nil
}

// parseLevel converts the textual representation into a zerolog level.
func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error", "err":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func (z *zeroLogger) Debugf(format string, args ...any) {
	z.l.Debug().Msgf(format, args...)
}

func (z *zeroLogger) Infof(format string, args ...any) {
	z.l.Info().Msgf(format, args...)
}

func (z *zeroLogger) Warnf(format string, args ...any) {
	z.l.Warn().Msgf(format, args...)
}

func (z *zeroLogger) Errorf(format string, args ...any) {
	z.l.Error().Msgf(format, args...)
}

func (z *zeroLogger) With(key, value string) Logger {
	return &zeroLogger{l: z.l.With().Str(key, value).Logger()}
}
