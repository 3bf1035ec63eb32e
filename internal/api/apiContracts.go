package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

type ErrorResponse struct {
	Error string `json:"error" example:"User ID is required"`
}

// requests---------------------

type IngestRequest struct {
	UserId   string         `json:"userId" example:"user_123"`
	File     *IngestFile    `json:"file"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IngestFile accepts either the structured object or a bare data URL string.
type IngestFile struct {
	Name string `json:"name,omitempty" example:"lease.txt"`
	Type string `json:"type,omitempty" example:"text/plain"`
	Size int64  `json:"size,omitempty" example:"1024"`
	Data string `json:"data" example:"data:text/plain;base64,SGVsbG8gd29ybGQu"`
}

func (f *IngestFile) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &f.Data)
	}
	type plain IngestFile
	return json.Unmarshal(b, (*plain)(f))
}

type ChatStreamRequest struct {
	Messages  []commonModels.ChatMessage `json:"messages"`
	UserId    string                     `json:"userId" example:"user_123"`
	SessionId string                     `json:"sessionId" example:"session_456"`
	Provider  string                     `json:"provider,omitempty" example:"openai"`
}

// responses---------------------

type IngestResponse struct {
	Success       bool   `json:"success"`
	DocumentId    string `json:"documentId"`
	ChunksCreated int    `json:"chunksCreated"`
	Message       string `json:"message"`
}

type DocumentStatusResponse struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status" example:"completed"`
	Size        int64      `json:"size"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	ProcessedAt *time.Time `json:"processedAt"`
	ChunkCount  int64      `json:"chunkCount"`
}

type UsageTotals struct {
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Requests int64   `json:"requests"`
}

type QuotaSnapshot struct {
	TokensLimit       int64   `json:"tokensLimit"`
	TokensUsed        int64   `json:"tokensUsed"`
	TokensRemaining   int64   `json:"tokensRemaining"`
	CostLimit         float64 `json:"costLimit"`
	CostUsed          float64 `json:"costUsed"`
	CostRemaining     float64 `json:"costRemaining"`
	RequestsLimit     int64   `json:"requestsLimit"`
	RequestsUsed      int64   `json:"requestsUsed"`
	RequestsRemaining int64   `json:"requestsRemaining"`
}

type UsageStatsResponse struct {
	Period     string                 `json:"period" example:"month"`
	StartDate  time.Time              `json:"startDate"`
	EndDate    time.Time              `json:"endDate"`
	Totals     UsageTotals            `json:"totals"`
	ByProvider map[string]UsageTotals `json:"byProvider"`
	Quota      *QuotaSnapshot         `json:"quota"`
}

type QuotaLimits struct {
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Requests int64   `json:"requests"`
}

type QuotaCheckResponse struct {
	HasQuota         bool         `json:"hasQuota"`
	TokensExceeded   bool         `json:"tokensExceeded"`
	CostExceeded     bool         `json:"costExceeded"`
	RequestsExceeded bool         `json:"requestsExceeded"`
	AnyExceeded      bool         `json:"anyExceeded"`
	Usage            *UsageTotals `json:"usage,omitempty"`
	Limits           *QuotaLimits `json:"limits,omitempty"`
}

type UsageLogEntry struct {
	Id               string    `json:"id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"promptTokens"`
	CompletionTokens int       `json:"completionTokens"`
	TotalTokens      int       `json:"totalTokens"`
	Ms               int64     `json:"ms"`
	CostUSD          string    `json:"costUsd" example:"0.040000"`
	SessionId        string    `json:"sessionId,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type UsageHistoryResponse struct {
	Logs       []UsageLogEntry `json:"logs"`
	Pagination Pagination      `json:"pagination"`
}

type HealthResponse struct {
	Status    string   `json:"status" example:"ok"`
	Providers []string `json:"providers"`
}
