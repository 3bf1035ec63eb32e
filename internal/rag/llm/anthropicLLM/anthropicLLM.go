package anthropicLLM

import (
	"context"
	"iter"
	"net/http"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const providerName = "anthropic"

var logger = logger_i.NewLogger("llm_anthropic")

type llmClient struct {
	sdk       anthropic.Client
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
		model = config.AnthropicChatModel
	}
	logger.Info("Anthropic client created", "model", model)
	return &llmClient{sdk: anthropic.NewClient(opts...), modelName: model}
}

func (c *llmClient) Name() string  { return providerName }
func (c *llmClient) Model() string { return c.modelName }

func (c *llmClient) StreamChat(ctx context.Context, messages []commonModels.ChatMessage) iter.Seq2[llm.StreamChunk, error] {
	return func(yield func(llm.StreamChunk, error) bool) {
		system, conversation := llm.SplitSystem(messages)
		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(c.modelName),
			MaxTokens:   config.ModelMaxTokens,
			Messages:    toAnthropicMessages(conversation),
			Temperature: anthropic.Float(config.ModelTemperature),
		}
		if system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}

		stream := c.sdk.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		acc := llm.NewAccumulator(messages)
		var usage llm.Usage
		for stream.Next() {
			switch event := stream.Current().AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.PromptTokens = int(event.Message.Usage.InputTokens)
			case anthropic.MessageDeltaEvent:
				usage.CompletionTokens = int(event.Usage.OutputTokens)
			case anthropic.ContentBlockDeltaEvent:
				delta, ok := event.Delta.AsAny().(anthropic.TextDelta)
				if !ok || delta.Text == "" {
					continue
				}
				if !yield(acc.Delta(delta.Text), nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			logger.WithTrace(ctx).Error("Anthropic stream failed", "error", err)
			yield(llm.StreamChunk{}, llm.StreamError(providerName, err))
			return
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		yield(acc.Final(usage), nil)
	}
}

func toAnthropicMessages(messages []commonModels.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == commonModels.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
