package handlers

import (
	"errors"
	"net/http"

	"github.com/akolanti/ragchat/internal/adapter"
	"github.com/akolanti/ragchat/internal/adapter/utils"
	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

func isNotFound(err error) bool {
	return errors.Is(err, commonModels.ErrNotFound)
}

// UsageStatsHandler godoc
// @Summary      Usage totals for a period
// @Tags         Usage
// @Produce      json
// @Param        userId  path      string  true   "User ID"
// @Param        period  query     string  false  "day, week or month (default)"
// @Success      200     {object}  api.UsageStatsResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /usage/stats/{userId} [get]
func (h *Handler) UsageStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId := utils.GetChiURLParam(r, "userId")
	stats, err := h.usage.Stats(r.Context(), userId, r.URL.Query().Get("period"))
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Usage stats failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUsageStatsResponse(stats))
}

// CheckQuotaHandler godoc
// @Summary      Monthly quota check
// @Tags         Usage
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  api.QuotaCheckResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /usage/check-quota/{userId} [get]
func (h *Handler) CheckQuotaHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId := utils.GetChiURLParam(r, "userId")
	status, err := h.usage.CheckQuota(r.Context(), userId)
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Quota check failed", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQuotaCheckResponse(status))
}

// UsageHistoryHandler godoc
// @Summary      Paged usage log
// @Tags         Usage
// @Produce      json
// @Param        userId  path      string  true   "User ID"
// @Param        limit   query     int     false  "Page size (default 50, max 500)"
// @Param        offset  query     int     false  "Rows to skip"
// @Success      200     {object}  api.UsageHistoryResponse
// @Failure      400     {object}  api.ErrorResponse
// @Router       /usage/history/{userId} [get]
func (h *Handler) UsageHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId := utils.GetChiURLParam(r, "userId")
	limit, okLimit := queryInt(r, "limit", config.DefaultHistoryLimit)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset || limit <= 0 || offset < 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}
	limit = min(limit, config.MaxHistoryLimit)

	logs, hasMore, err := h.usage.History(r.Context(), userId, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUsageHistoryResponse(logs, limit, offset, hasMore))
}
