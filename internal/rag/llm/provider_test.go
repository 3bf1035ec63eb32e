package llm

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

type namedProvider struct{ name string }

func (p namedProvider) Name() string  { return p.name }
func (p namedProvider) Model() string { return p.name + "-model" }
func (p namedProvider) StreamChat(context.Context, []commonModels.ChatMessage) iter.Seq2[StreamChunk, error] {
	return func(func(StreamChunk, error) bool) {}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"héllo", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestAccumulator(t *testing.T) {
	prompt := []commonModels.ChatMessage{{Role: commonModels.RoleUser, Content: "hi"}}

	t.Run("Deltas accumulate", func(t *testing.T) {
		acc := NewAccumulator(prompt)
		first := acc.Delta("Hel")
		second := acc.Delta("lo")
		if first.Accumulated != "Hel" || second.Accumulated != "Hello" || second.Content != "lo" {
			t.Errorf("unexpected chunks %+v %+v", first, second)
		}
		if first.Done || second.Done {
			t.Error("deltas must not be terminal")
		}
	})

	t.Run("Reported usage wins", func(t *testing.T) {
		acc := NewAccumulator(prompt)
		acc.Delta("Hello")
		final := acc.Final(Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
		if !final.Done || final.Accumulated != "Hello" {
			t.Errorf("unexpected final chunk %+v", final)
		}
		if *final.Usage != (Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}) {
			t.Errorf("unexpected usage %+v", *final.Usage)
		}
	})

	t.Run("Missing total is summed", func(t *testing.T) {
		final := NewAccumulator(prompt).Final(Usage{PromptTokens: 7, CompletionTokens: 3})
		if final.Usage.TotalTokens != 10 {
			t.Errorf("expected total 10, got %d", final.Usage.TotalTokens)
		}
	})

	t.Run("Missing usage is estimated", func(t *testing.T) {
		acc := NewAccumulator(prompt)
		acc.Delta("Hello there")
		final := acc.Final(Usage{})
		// "user: hi" is 8 chars, "Hello there" is 11
		want := Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5}
		if *final.Usage != want {
			t.Errorf("expected %+v, got %+v", want, *final.Usage)
		}
	})
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]commonModels.ChatMessage{
		{Role: commonModels.RoleSystem, Content: "a"},
		{Role: commonModels.RoleUser, Content: "q"},
		{Role: commonModels.RoleSystem, Content: "b"},
		{Role: commonModels.RoleAssistant, Content: "r"},
	})
	if system != "a\n\nb" {
		t.Errorf("unexpected system %q", system)
	}
	if len(rest) != 2 || rest[0].Content != "q" || rest[1].Content != "r" {
		t.Errorf("unexpected rest %+v", rest)
	}
}

func TestStreamError(t *testing.T) {
	err := StreamError("openai", errors.New("503"))
	if !errors.Is(err, commonModels.ErrProviderStream) {
		t.Errorf("expected ErrProviderStream, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry("OpenAI", namedProvider{"openai"}, namedProvider{"anthropic"}, nil)

	if got := registry.Resolve("Anthropic").Name(); got != "anthropic" {
		t.Errorf("expected anthropic, got %s", got)
	}
	if got := registry.Resolve("").Name(); got != "openai" {
		t.Errorf("empty key should fall back, got %s", got)
	}
	if got := registry.Resolve("mistral").Name(); got != "openai" {
		t.Errorf("unknown key should fall back, got %s", got)
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "anthropic" {
		t.Errorf("unexpected names %v", names)
	}
	if NewRegistry("openai").Resolve("openai") != nil {
		t.Error("empty registry should resolve to nil")
	}
}
