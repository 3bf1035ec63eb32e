package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/ragchat/internal/api"
	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/data/store"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/handlers"
	"github.com/akolanti/ragchat/internal/middleware"
	"github.com/akolanti/ragchat/internal/rag"
	"github.com/akolanti/ragchat/internal/rag/ingest"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/internal/server"
	"github.com/akolanti/ragchat/internal/usage"
	"github.com/akolanti/ragchat/internal/worker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fixedEmbedder struct{}

func (fixedEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	return []float32{0.3, 0.4, 0.5}, nil
}

type scriptedProvider struct {
	deltas []string
}

func (p *scriptedProvider) Name() string  { return "openai" }
func (p *scriptedProvider) Model() string { return "gpt-4o" }

func (p *scriptedProvider) StreamChat(_ context.Context, messages []commonModels.ChatMessage) iter.Seq2[llm.StreamChunk, error] {
	return func(yield func(llm.StreamChunk, error) bool) {
		acc := llm.NewAccumulator(messages)
		for _, d := range p.deltas {
			if !yield(acc.Delta(d), nil) {
				return
			}
		}
		yield(acc.Final(llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}), nil)
	}
}

type testApp struct {
	router http.Handler
	ledger *store.InMemoryUsageStore
}

func newTestApp(t *testing.T, enforceQuota bool, limiter *middleware.IPRateLimiter) testApp {
	t.Helper()
	corpus := store.NewInMemoryCorpus()
	ledger := store.NewInMemoryUsageStore()
	embedder := fixedEmbedder{}

	retriever := rag.NewRetriever(embedder, corpus)
	usageService := usage.NewService(ledger, store.NewInMemoryUsageCounter())
	registry := llm.NewRegistry("openai", &scriptedProvider{deltas: []string{"Rent ", "is due."}})

	h := handlers.NewHandler(handlers.Deps{
		Ingest:       ingest.NewService(corpus, corpus, worker.NewPool(embedder, 2)),
		Chat:         rag.NewService(retriever, registry, usageService, ledger),
		Usage:        usageService,
		Providers:    registry.Names(),
		EnforceQuota: enforceQuota,
	})
	return testApp{router: server.Routes(h, limiter, nil), ledger: ledger}
}

func (a testApp) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func dataURL(text string) string {
	return "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte(text))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const chatBody = `{"messages":[{"role":"user","content":"When is rent due?"}],"userId":"u1","sessionId":"s1"}`

func TestRoutes_Health(t *testing.T) {
	app := newTestApp(t, false, nil)

	rec := app.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	res := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, []string{"openai"}, res.Providers)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestRoutes_IngestThenStatus(t *testing.T) {
	app := newTestApp(t, false, nil)
	body := `{"userId":"u1","file":{"name":"lease.txt","type":"text/plain","data":"` +
		dataURL("Rent is due on the first. Late fees apply after five days. Tenants may leave with notice.") + `"}}`

	rec := app.do(http.MethodPost, "/ingest/process", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.IngestResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ChunksCreated)
	require.NotEmpty(t, res.DocumentId)

	rec = app.do(http.MethodGet, "/ingest/status/"+res.DocumentId, "")

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[api.DocumentStatusResponse](t, rec)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, "lease.txt", status.Name)
	assert.EqualValues(t, 1, status.ChunkCount)
	assert.NotNil(t, status.ProcessedAt)
}

func TestRoutes_IngestAcceptsBareDataURL(t *testing.T) {
	app := newTestApp(t, false, nil)

	rec := app.do(http.MethodPost, "/ingest/process", `{"userId":"u1","file":"`+dataURL("Just one sentence.")+`"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[api.IngestResponse](t, rec).ChunksCreated)
}

func TestRoutes_IngestRejects(t *testing.T) {
	app := newTestApp(t, false, nil)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"userId":`, "Invalid file format"},
		{"missing file", `{"userId":"u1"}`, "No file provided"},
		{"missing user", `{"file":"` + dataURL("hi.") + `"}`, "User ID is required"},
		{"not a data url", `{"userId":"u1","file":"hello"}`, "Invalid file data format"},
		{"unsupported type", `{"userId":"u1","file":"data:image/png;base64,aGVsbG8="}`, "Unsupported file type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/ingest/process", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[api.ErrorResponse](t, rec).Error)
		})
	}
}

func TestRoutes_IngestBodyTooLarge(t *testing.T) {
	app := newTestApp(t, false, nil)
	body := `{"userId":"u1","file":"data:text/plain;base64,` + strings.Repeat("A", int(config.MaxIngestBodyBytes)+1) + `"}`

	rec := app.do(http.MethodPost, "/ingest/process", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large", decode[api.ErrorResponse](t, rec).Error)
}

func TestRoutes_IngestStatusNotFound(t *testing.T) {
	app := newTestApp(t, false, nil)

	rec := app.do(http.MethodGet, "/ingest/status/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Document not found", decode[api.ErrorResponse](t, rec).Error)
}

func TestRoutes_ChatStream(t *testing.T) {
	app := newTestApp(t, false, nil)
	ingestBody := `{"userId":"u1","file":"` + dataURL("Rent is due on the first of each month.") + `"}`
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/ingest/process", ingestBody).Code)

	rec := app.do(http.MethodPost, "/chat/stream", chatBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 4)

	var first rag.ChunkEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &first))
	assert.Equal(t, "Rent ", first.Content)
	require.Len(t, first.Citations, 1)
	assert.Equal(t, commonModels.CitationDoc, first.Citations[0].Type)

	var final rag.ChunkEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[2], "data: ")), &final))
	assert.True(t, final.Done)
	assert.Equal(t, "Rent is due.", final.Accumulated)
	require.NotNil(t, final.Usage)
	assert.Equal(t, 120, final.Usage.TotalTokens)
	assert.Empty(t, final.Citations)

	assert.Equal(t, "event: end\ndata: {}", frames[3])

	rec = app.do(http.MethodGet, "/usage/stats/u1?period=day", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[api.UsageStatsResponse](t, rec)
	assert.Equal(t, "day", stats.Period)
	assert.EqualValues(t, 1, stats.Totals.Requests)
	assert.EqualValues(t, 120, stats.Totals.Tokens)
	assert.Contains(t, stats.ByProvider, "openai")
	assert.Nil(t, stats.Quota)

	require.Len(t, app.ledger.Messages("s1"), 1)
}

func TestRoutes_ChatStreamValidation(t *testing.T) {
	app := newTestApp(t, false, nil)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"bad json", `{`, "Invalid request body"},
		{"no messages", `{"messages":[],"userId":"u1","sessionId":"s1"}`, "Messages are required"},
		{"no user", `{"messages":[{"role":"user","content":"hi"}],"sessionId":"s1"}`, "User ID is required"},
		{"no session", `{"messages":[{"role":"user","content":"hi"}],"userId":"u1"}`, "Session ID is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/chat/stream", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.message, decode[api.ErrorResponse](t, rec).Error)
		})
	}
}

func TestRoutes_ChatStreamQuotaGate(t *testing.T) {
	app := newTestApp(t, true, nil)
	app.ledger.SetQuota(commonModels.Quota{UserId: "u1", TokensLimit: 100, CostLimit: decimal.NewFromInt(10), RequestsLimit: 1})

	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/chat/stream", chatBody).Code)

	rec := app.do(http.MethodPost, "/chat/stream", chatBody)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Quota exceeded", decode[api.ErrorResponse](t, rec).Error)

	rec = app.do(http.MethodGet, "/usage/check-quota/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	quota := decode[api.QuotaCheckResponse](t, rec)
	assert.True(t, quota.HasQuota)
	assert.True(t, quota.TokensExceeded)
	assert.True(t, quota.RequestsExceeded)
	assert.False(t, quota.CostExceeded)
	assert.True(t, quota.AnyExceeded)
}

func TestRoutes_ChatStreamRateLimited(t *testing.T) {
	app := newTestApp(t, false, middleware.NewIPRateLimiter(rate.Limit(0.001), 1))

	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/chat/stream", chatBody).Code)

	rec := app.do(http.MethodPost, "/chat/stream", chatBody)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decode[api.ErrorResponse](t, rec).Error)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/health", "").Code)
}

func TestRoutes_UsageEndpoints(t *testing.T) {
	app := newTestApp(t, false, nil)
	for range 3 {
		require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/chat/stream", chatBody).Code)
	}

	t.Run("history pages with hasMore", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/usage/history/u1?limit=2", "")

		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[api.UsageHistoryResponse](t, rec)
		assert.Len(t, res.Logs, 2)
		assert.True(t, res.Pagination.HasMore)
		assert.Equal(t, 2, res.Pagination.Limit)
		assert.Equal(t, "openai", res.Logs[0].Provider)
		assert.Len(t, strings.Split(res.Logs[0].CostUSD, ".")[1], 6)

		rec = app.do(http.MethodGet, "/usage/history/u1?limit=2&offset=2", "")
		res = decode[api.UsageHistoryResponse](t, rec)
		assert.Len(t, res.Logs, 1)
		assert.False(t, res.Pagination.HasMore)
	})

	t.Run("history rejects bad paging", func(t *testing.T) {
		for _, q := range []string{"limit=abc", "limit=0", "offset=-1"} {
			rec := app.do(http.MethodGet, "/usage/history/u1?"+q, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("check quota without a quota row", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/usage/check-quota/u1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[api.QuotaCheckResponse](t, rec)
		assert.False(t, res.HasQuota)
		assert.False(t, res.AnyExceeded)
	})

	t.Run("unknown period falls back to month", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/usage/stats/u1?period=decade", "")

		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[api.UsageStatsResponse](t, rec)
		assert.Equal(t, "month", res.Period)
		assert.EqualValues(t, 3, res.Totals.Requests)
	})
}
