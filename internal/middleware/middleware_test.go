package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"golang.org/x/time/rate"
)

func traceEcho(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Seen-Trace", logger_i.TraceID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func TestWrap_TraceId(t *testing.T) {
	t.Run("Generates a trace id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Wrap(traceEcho)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		trace := rec.Header().Get("X-Trace-Id")
		if trace == "" {
			t.Fatal("Expected a generated trace id")
		}
		if rec.Header().Get("X-Seen-Trace") != trace {
			t.Errorf("Handler saw %q, response carries %q", rec.Header().Get("X-Seen-Trace"), trace)
		}
	})

	t.Run("Keeps the caller's trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Trace-Id", "trace-123")
		rec := httptest.NewRecorder()
		Wrap(traceEcho)(rec, req)

		if got := rec.Header().Get("X-Trace-Id"); got != "trace-123" {
			t.Errorf("Expected trace-123, got %q", got)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", rec.Code)
		}
	})
}

func TestWrapLimited(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2)
	handler := WrapLimited(limiter, traceEcho)

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat/stream", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec.Code
	}

	for i := range 2 {
		if code := send("10.0.0.1:5000"); code != http.StatusNoContent {
			t.Fatalf("Request %d within burst got %d", i, code)
		}
	}
	if code := send("10.0.0.1:6000"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the burst is spent, got %d", code)
	}
	if code := send("10.0.0.2:5000"); code != http.StatusNoContent {
		t.Errorf("Other IPs keep their own bucket, got %d", code)
	}
}

func TestFromConfig(t *testing.T) {
	if FromConfig(config.RateLimitConfig{PerSecond: 0, Burst: 5}) != nil {
		t.Error("Zero rate should switch limiting off")
	}
	limiter := FromConfig(config.RateLimitConfig{PerSecond: 1, Burst: 0})
	if limiter == nil {
		t.Fatal("Expected a limiter")
	}
	if limiter.burstRate != 1 {
		t.Errorf("Burst should be at least 1, got %d", limiter.burstRate)
	}
}
