package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/ragchat/internal/adapter/utils"
	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/handlers"
	"github.com/akolanti/ragchat/internal/middleware"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	CloseServices    context.CancelFunc
}

// Routes mounts every endpoint. mcpHandler may be nil.
func Routes(h *handlers.Handler, limiter *middleware.IPRateLimiter, mcpHandler http.Handler) *chi.Mux {
	r := utils.NewRouter()

	r.Get("/health", middleware.Wrap(h.HealthHandler))

	r.Route("/ingest", func(r chi.Router) {
		r.Post("/process", middleware.Wrap(h.IngestHandler))
		r.Get("/status/{documentId}", middleware.Wrap(h.IngestStatusHandler))
	})

	r.Post("/chat/stream", middleware.WrapLimited(limiter, h.ChatStreamHandler))

	r.Route("/usage", func(r chi.Router) {
		r.Get("/stats/{userId}", middleware.Wrap(h.UsageStatsHandler))
		r.Get("/check-quota/{userId}", middleware.Wrap(h.CheckQuotaHandler))
		r.Get("/history/{userId}", middleware.Wrap(h.UsageHistoryHandler))
	})

	if mcpHandler != nil {
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	}
	return r
}

func CreateServer(listenAddr string, handler http.Handler) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		// in-flight streams are done, now the stores can close
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
