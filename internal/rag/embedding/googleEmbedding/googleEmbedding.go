package googleEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/embedding"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger = logger_i.NewLogger("google_embedding")
var dimension = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

func NewEmbedder(ctx context.Context, modelName string, apiKey string) (embedding.QueryEmbedder, error) {
	c, err := newEmbedder(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, modelName)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newEmbedder(ctx context.Context, cfg *genai.ClientConfig, modelName string) (*client, error) {
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}
	if modelName == "" {
		modelName = config.GoogleEmbeddingModel
	}
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName}, nil
}

// GetEmbedding embeds chunk text for storage.
func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskDocument)
}

// GetQueryEmbedding embeds a search query against stored chunks.
func (c *client) GetQueryEmbedding(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskQuery)
}

func (c *client) embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	log := logger.WithTrace(ctx)

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             taskType,
	})
	if err != nil {
		if isRateLimited(err) {
			log.Warn("Rate limit hit", "error", err)
		}
		return nil, fmt.Errorf("%w: google: %v", commonModels.ErrEmbedding, err)
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: google returned no embeddings", commonModels.ErrEmbedding)
	}

	vector := result.Embeddings[0].Values
	if err := embedding.CheckVector(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
