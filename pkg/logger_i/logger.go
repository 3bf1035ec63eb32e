package logger_i

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/akolanti/ragchat/internal/config"
)

type Logger struct {
	inner *slog.Logger
}

// Init installs the process wide slog handler. JSON in prod, text otherwise.
func Init(cfg config.LogConfig) {
	options := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, options)
	} else {
		handler = slog.NewTextHandler(os.Stdout, options)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// WithTrace tags the logger with the request trace id, if the context carries one.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	return l.With("traceId", TraceID(ctx))
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}
