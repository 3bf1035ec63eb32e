package openaiLLM

import (
	"context"
	"iter"
	"net/http"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

var logger = logger_i.NewLogger("llm_openai")

type llmClient struct {
	sdk       openai.Client
	modelName string
}

func NewProvider(cfg config.ProviderConfig, httpClient *http.Client) llm.Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	model := cfg.Model
	if model == "" {
		model = config.OpenAIChatModel
	}
	logger.Info("OpenAI client created", "model", model)
	return &llmClient{sdk: openai.NewClient(opts...), modelName: model}
}

func (c *llmClient) Name() string  { return providerName }
func (c *llmClient) Model() string { return c.modelName }

func (c *llmClient) StreamChat(ctx context.Context, messages []commonModels.ChatMessage) iter.Seq2[llm.StreamChunk, error] {
	return func(yield func(llm.StreamChunk, error) bool) {
		stream := c.sdk.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(c.modelName),
			Messages:    toOpenAIMessages(messages),
			Temperature: openai.Float(config.ModelTemperature),
			MaxTokens:   openai.Int(config.ModelMaxTokens),
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.Bool(true),
			},
		})
		defer stream.Close()

		acc := llm.NewAccumulator(messages)
		var usage llm.Usage
		for stream.Next() {
			chunk := stream.Current()
			if chunk.Usage.TotalTokens > 0 {
				usage = llm.Usage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:      int(chunk.Usage.TotalTokens),
				}
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(acc.Delta(chunk.Choices[0].Delta.Content), nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			logger.WithTrace(ctx).Error("OpenAI stream failed", "error", err)
			yield(llm.StreamChunk{}, llm.StreamError(providerName, err))
			return
		}
		yield(acc.Final(usage), nil)
	}
}

// tool messages carry no call id here, so they are sent as user text
func toOpenAIMessages(messages []commonModels.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case commonModels.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case commonModels.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
