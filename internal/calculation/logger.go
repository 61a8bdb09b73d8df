package calculation

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger is the logging surface used by the pricing engine. The default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l; a nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debugf(format string, args ...any) { s.log(slog.LevelDebug, format, args) }
func (s *SlogLogger) Infof(format string, args ...any)  { s.log(slog.LevelInfo, format, args) }
func (s *SlogLogger) Warnf(format string, args ...any)  { s.log(slog.LevelWarn, format, args) }
func (s *SlogLogger) Errorf(format string, args ...any) { s.log(slog.LevelError, format, args) }

func (s *SlogLogger) log(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, fmt.Sprintf(format, args...))
}
