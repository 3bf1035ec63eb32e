package logger_i

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/akolanti/ragchat/internal/config"
)

func bufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(handler).With("component", "test")}, &buf
}

func TestLogger_LevelsShareOnePath(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelWarn)

	logger.Debug("debug line")
	logger.Info("info line")
	if buf.Len() != 0 {
		t.Fatalf("below-level records were written: %q", buf.String())
	}

	logger.Warn("warn line", "key", "value")
	logger.Error("error line")
	out := buf.String()
	for _, want := range []string{"level=WARN", "msg=\"warn line\"", "key=value", "level=ERROR", "component=test"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestLogger_InfoCarriesTrace(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-42")

	logger.WithTrace(ctx).Info("handled", "status", 200)

	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "traceId=trace-42") || !strings.Contains(out, "status=200") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"info":    slog.LevelInfo,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelDebug,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
