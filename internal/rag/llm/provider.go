package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

// Provider streams one chat completion. The sequence yields incremental
// chunks, then exactly one chunk with Done set and Usage filled, or a single
// error. Breaking out of the range loop closes the upstream stream.
type Provider interface {
	Name() string
	Model() string
	StreamChat(ctx context.Context, messages []commonModels.ChatMessage) iter.Seq2[StreamChunk, error]
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type StreamChunk struct {
	Content     string `json:"content"`
	Accumulated string `json:"accumulated"`
	Done        bool   `json:"done"`
	Usage       *Usage `json:"usage,omitempty"`
}

// Accumulator builds the running text and the terminal chunk for a stream.
type Accumulator struct {
	prompt []commonModels.ChatMessage
	text   strings.Builder
}

func NewAccumulator(prompt []commonModels.ChatMessage) *Accumulator {
	return &Accumulator{prompt: prompt}
}

func (a *Accumulator) Delta(content string) StreamChunk {
	a.text.WriteString(content)
	return StreamChunk{Content: content, Accumulated: a.text.String()}
}

// Final closes the stream. Reported usage wins when the provider sent any,
// otherwise token counts are estimated from text length.
func (a *Accumulator) Final(reported Usage) StreamChunk {
	usage := reported
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		usage = EstimateUsage(a.prompt, a.text.String())
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return StreamChunk{Accumulated: a.text.String(), Done: true, Usage: &usage}
}

func EstimateUsage(prompt []commonModels.ChatMessage, completion string) Usage {
	lines := make([]string, 0, len(prompt))
	for _, m := range prompt {
		lines = append(lines, m.Role+": "+m.Content)
	}
	promptTokens := EstimateTokens(strings.Join(lines, "\n"))
	completionTokens := EstimateTokens(completion)
	return Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// EstimateTokens is ceil(chars / 4).
func EstimateTokens(text string) int {
	n := len([]rune(text))
	return (n + config.CharsPerTokenGuess - 1) / config.CharsPerTokenGuess
}

// StreamError wraps an upstream failure so callers can match ErrProviderStream.
func StreamError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", commonModels.ErrProviderStream, provider, err)
}

// SplitSystem pulls system messages out for APIs that take them as a separate parameter.
func SplitSystem(messages []commonModels.ChatMessage) (string, []commonModels.ChatMessage) {
	var system []string
	rest := make([]commonModels.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == commonModels.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
