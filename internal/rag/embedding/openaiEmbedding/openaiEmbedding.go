package openaiEmbedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/embedding"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("openai_embedding")

type client struct {
	sdk   openai.Client
	model string
}

func NewEmbedder(cfg config.ProviderConfig, model string, httpClient *http.Client) embedding.Embedder {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if model == "" {
		model = config.OpenAIEmbeddingModel
	}
	logger.Info("OpenAI Embedding client created", "model", model)
	return &client{sdk: openai.NewClient(opts...), model: model}
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := c.sdk.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
	})
	if err != nil {
		logger.WithTrace(ctx).Error("Error getting embedding from OpenAI", "error", err)
		return nil, fmt.Errorf("%w: openai: %v", commonModels.ErrEmbedding, err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%w: openai returned no embeddings", commonModels.ErrEmbedding)
	}

	vector := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		vector[i] = float32(v)
	}
	if err := embedding.CheckVector(vector); err != nil {
		return nil, err
	}
	return vector, nil
}
