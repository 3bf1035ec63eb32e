package embedding

import (
	"context"
	"fmt"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

// Embedder turns text into a fixed-dimension vector. Implementations fail
// with commonModels.ErrEmbedding and never return a partial vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// QueryEmbedder is an Embedder whose model embeds search queries differently
// from stored documents. Retrieval prefers GetQueryEmbedding when available.
type QueryEmbedder interface {
	Embedder
	GetQueryEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CheckVector rejects empty vectors and vectors of the wrong dimension.
func CheckVector(vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", commonModels.ErrEmbedding)
	}
	if len(vector) != int(config.EmbeddingOutputDimensionality) {
		return fmt.Errorf("%w: got %d dimensions, want %d", commonModels.ErrEmbedding, len(vector), config.EmbeddingOutputDimensionality)
	}
	return nil
}
