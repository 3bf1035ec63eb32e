package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/akolanti/ragchat/internal/api"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out, nothing left but to log
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Error: message})
}

// writeServiceError maps pipeline errors to a status. Caller-facing detail is
// passed through, anything else becomes the error text.
func writeServiceError(w http.ResponseWriter, err error) {
	var detail *commonModels.DetailError
	message := err.Error()
	if errors.As(err, &detail) {
		message = detail.Message
	}
	WriteErrorResponse(w, commonModels.HttpStatus(err), message)
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.WithTrace(ctx).Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
