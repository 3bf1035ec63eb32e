package rag

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/metrics"
	"github.com/akolanti/ragchat/internal/rag/embedding"
	"github.com/akolanti/ragchat/internal/rag/vectorDB"
	"github.com/akolanti/ragchat/pkg/logger_i"
)

// Retriever finds the user's chunks that are close enough to a query to cite.
type Retriever struct {
	embedder embedding.Embedder
	chunks   vectorDB.ChunkStore
	logger   *logger_i.Logger
}

func NewRetriever(embedder embedding.Embedder, chunks vectorDB.ChunkStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		chunks:   chunks,
		logger:   logger_i.NewLogger("Retrieval"),
	}
}

// Retrieve never fails. Embedding or search errors are logged and give an
// empty result so the turn can go on without context. Hits keep the store's
// descending-similarity order.
func (r *Retriever) Retrieve(ctx context.Context, query string, userId string, k int) []commonModels.RetrievedChunk {
	results := []commonModels.RetrievedChunk{}
	if strings.TrimSpace(query) == "" || k <= 0 {
		return results
	}
	log := r.logger.WithTrace(ctx).With("userId", userId)

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		log.Warn("query embedding failed, continuing without context", "error", err)
		return results
	}

	hits, err := r.search(ctx, vector, userId, min(k, config.MaxSearchLimit))
	if err != nil {
		log.Warn("similarity search failed, continuing without context", "error", err)
		return results
	}

	for _, hit := range hits {
		if hit.Similarity < config.SimilarityThreshold {
			continue
		}
		results = append(results, commonModels.RetrievedChunk{
			ChunkId:       hit.ChunkId,
			DocumentId:    hit.DocumentId,
			DocumentTitle: hit.DocumentTitle,
			Content:       hit.Content,
			Position:      hit.Page,
			Similarity:    hit.Similarity,
		})
	}
	metrics.CaptureRetrieved(len(results))
	log.Debug("retrieved chunks", "hits", len(hits), "kept", len(results))
	return results
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_embedding", time.Since(start)) }()
	if q, ok := r.embedder.(embedding.QueryEmbedder); ok {
		return q.GetQueryEmbedding(ctx, query)
	}
	return r.embedder.GetEmbedding(ctx, query)
}

func (r *Retriever) search(ctx context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()
	return r.chunks.SimilaritySearch(ctx, vector, userId, limit)
}
