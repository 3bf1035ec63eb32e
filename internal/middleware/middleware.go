package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/ragchat/internal/handlers"
	"github.com/akolanti/ragchat/internal/metrics"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Wrap tags the request with a trace id and counts it by route and status.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return chain(next, nil)
}

// WrapLimited is Wrap plus the per-IP rate limit.
func WrapLimited(limiter *IPRateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return chain(next, limiter)
}

func chain(next http.HandlerFunc, limiter *IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := processRequest(requestResponseStruct{req: r, writer: rec}, limiter)

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(routePattern(re.req), strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct, limiter *IPRateLimiter) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	if limiter != nil {
		re = rateLimiter(re, limiter)
	}
	return re
}

// routePattern keeps metric labels bounded, /usage/stats/{userId} instead of one label per user.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func handleBadRequest(re requestResponseStruct) bool {
	if re.badRequest.isBadRequest {
		re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
		handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.errorMessage)
		return false
	}
	return true
}
