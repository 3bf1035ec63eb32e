package vectorDB

import (
	"context"
	"math"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

// ChunkStore holds chunk text plus embeddings and answers similarity queries.
// SimilaritySearch only returns chunks with an embedding whose document
// belongs to userId and is completed, ordered by descending similarity.
type ChunkStore interface {
	InsertChunks(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk) error
	SimilaritySearch(ctx context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error)
	CountChunks(ctx context.Context, documentId string) (int64, error)
	GetChunk(ctx context.Context, chunkId string) (commonModels.Chunk, error)
}

// StatusPublisher is implemented by stores that keep their own copy of the
// document status (qdrant payloads) and need to hear about completion.
type StatusPublisher interface {
	PublishDocumentStatus(ctx context.Context, documentId string, status commonModels.DocumentStatus) error
}

// CosineSimilarity returns 1 - cosine distance, or 0 for mismatched or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
