package gemini

import (
	"context"
	"fmt"
	"iter"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"google.golang.org/genai"
)

const providerName = "gemini"

var logger = logger_i.NewLogger("llm_gemini")

type llmClient struct {
	client    *genai.Client
	modelName string
}

func NewProvider(ctx context.Context, cfg config.ProviderConfig) (llm.Provider, error) {
	clientConfig := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	c, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = config.GeminiModelName
	}
	logger.Info("Gemini client created", "model", model)
	return &llmClient{client: c, modelName: model}, nil
}

func (c *llmClient) Name() string  { return providerName }
func (c *llmClient) Model() string { return c.modelName }

func (c *llmClient) StreamChat(ctx context.Context, messages []commonModels.ChatMessage) iter.Seq2[llm.StreamChunk, error] {
	return func(yield func(llm.StreamChunk, error) bool) {
		system, conversation := llm.SplitSystem(messages)
		contentConfig := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](config.ModelTemperature),
			MaxOutputTokens: config.ModelMaxTokens,
		}
		if system != "" {
			contentConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}

		acc := llm.NewAccumulator(messages)
		var usage llm.Usage
		for result, err := range c.client.Models.GenerateContentStream(ctx, c.modelName, toGeminiContents(conversation), contentConfig) {
			if err != nil {
				logger.WithTrace(ctx).Error("Gemini stream failed", "error", err)
				yield(llm.StreamChunk{}, llm.StreamError(providerName, err))
				return
			}
			if meta := result.UsageMetadata; meta != nil {
				usage = llm.Usage{
					PromptTokens:     int(meta.PromptTokenCount),
					CompletionTokens: int(meta.CandidatesTokenCount),
					TotalTokens:      int(meta.TotalTokenCount),
				}
			}
			text := result.Text()
			if text == "" {
				continue
			}
			if !yield(acc.Delta(text), nil) {
				return
			}
		}
		yield(acc.Final(usage), nil)
	}
}

func toGeminiContents(messages []commonModels.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == commonModels.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
