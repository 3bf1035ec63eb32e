package adapter

import (
	"github.com/akolanti/ragchat/internal/api"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag"
	"github.com/akolanti/ragchat/internal/rag/ingest"
	"github.com/akolanti/ragchat/internal/usage"
	"github.com/shopspring/decimal"
)

const ingestSuccessMessage = "Document processed and embedded successfully"

func ToUpload(req api.IngestRequest) ingest.Upload {
	upload := ingest.Upload{UserId: req.UserId, Metadata: req.Metadata}
	if req.File != nil {
		upload.Name = req.File.Name
		upload.Type = req.File.Type
		upload.Size = req.File.Size
		upload.DataURL = req.File.Data
	}
	return upload
}

func ToIngestResponse(result ingest.Result) api.IngestResponse {
	return api.IngestResponse{
		Success:       true,
		DocumentId:    result.DocumentId,
		ChunksCreated: result.ChunksCreated,
		Message:       ingestSuccessMessage,
	}
}

func ToDocumentStatusResponse(status ingest.Status) api.DocumentStatusResponse {
	doc := status.Document
	return api.DocumentStatusResponse{
		Id:          doc.Id,
		Name:        doc.Name,
		Status:      string(doc.Status),
		Size:        doc.Size,
		UploadedAt:  doc.UploadedAt,
		ProcessedAt: doc.ProcessedAt,
		ChunkCount:  status.ChunkCount,
	}
}

func ToChatRequest(req api.ChatStreamRequest) rag.ChatRequest {
	return rag.ChatRequest{
		Messages:  req.Messages,
		UserId:    req.UserId,
		SessionId: req.SessionId,
		Provider:  req.Provider,
	}
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(6).Float64()
	return f
}

func toUsageTotals(t commonModels.UsageTotals) api.UsageTotals {
	return api.UsageTotals{Tokens: t.Tokens, Cost: money(t.Cost), Requests: t.Requests}
}

func ToUsageStatsResponse(stats usage.Stats) api.UsageStatsResponse {
	byProvider := make(map[string]api.UsageTotals, len(stats.ByProvider))
	for provider, totals := range stats.ByProvider {
		byProvider[provider] = toUsageTotals(totals)
	}
	res := api.UsageStatsResponse{
		Period:     string(stats.Period),
		StartDate:  stats.StartDate,
		EndDate:    stats.EndDate,
		Totals:     toUsageTotals(stats.Totals),
		ByProvider: byProvider,
	}
	if q := stats.Quota; q != nil {
		res.Quota = &api.QuotaSnapshot{
			TokensLimit:       q.TokensLimit,
			TokensUsed:        q.TokensUsed,
			TokensRemaining:   q.TokensRemaining,
			CostLimit:         money(q.CostLimit),
			CostUsed:          money(q.CostUsed),
			CostRemaining:     money(q.CostRemaining),
			RequestsLimit:     q.RequestsLimit,
			RequestsUsed:      q.RequestsUsed,
			RequestsRemaining: q.RequestsRemaining,
		}
	}
	return res
}

func ToQuotaCheckResponse(status usage.QuotaStatus) api.QuotaCheckResponse {
	res := api.QuotaCheckResponse{
		HasQuota:         status.HasQuota,
		TokensExceeded:   status.TokensExceeded,
		CostExceeded:     status.CostExceeded,
		RequestsExceeded: status.RequestsExceeded,
		AnyExceeded:      status.AnyExceeded,
	}
	if status.HasQuota && status.Limits != nil {
		totals := toUsageTotals(status.Usage)
		res.Usage = &totals
		res.Limits = &api.QuotaLimits{
			Tokens:   status.Limits.TokensLimit,
			Cost:     money(status.Limits.CostLimit),
			Requests: status.Limits.RequestsLimit,
		}
	}
	return res
}

func ToUsageHistoryResponse(logs []commonModels.UsageLog, limit, offset int, hasMore bool) api.UsageHistoryResponse {
	entries := make([]api.UsageLogEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, api.UsageLogEntry{
			Id:               l.Id,
			Provider:         l.Provider,
			Model:            l.Model,
			PromptTokens:     l.PromptTokens,
			CompletionTokens: l.CompletionTokens,
			TotalTokens:      l.TotalTokens,
			Ms:               l.Ms,
			CostUSD:          l.CostUSD.StringFixed(6),
			SessionId:        l.SessionId,
			Timestamp:        l.Timestamp,
		})
	}
	return api.UsageHistoryResponse{
		Logs:       entries,
		Pagination: api.Pagination{Limit: limit, Offset: offset, HasMore: hasMore},
	}
}
