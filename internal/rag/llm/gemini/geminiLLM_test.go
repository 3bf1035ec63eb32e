package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/llm"
)

var prompt = []commonModels.ChatMessage{
	{Role: commonModels.RoleSystem, Content: "Answer from the documents."},
	{Role: commonModels.RoleUser, Content: "Say hello"},
}

func textFrame(text string) string {
	return fmt.Sprintf(`data: {"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

const usageFrame = `data: {"candidates":[{"content":{"role":"model","parts":[{"text":""}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}}`

func streamServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			_, _ = fmt.Fprintf(w, "%s\n\n", frame)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server) llm.Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), config.ProviderConfig{APIKey: "test", BaseURL: srv.URL, Model: "gemini-2.5-flash"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p
}

func drain(p llm.Provider) (deltas []string, final *llm.StreamChunk, err error) {
	for chunk, streamErr := range p.StreamChat(context.Background(), prompt) {
		if streamErr != nil {
			return deltas, final, streamErr
		}
		if chunk.Done {
			final = &chunk
			continue
		}
		deltas = append(deltas, chunk.Content)
	}
	return deltas, final, nil
}

func TestStreamChat(t *testing.T) {
	t.Run("deltas in order with reported usage", func(t *testing.T) {
		p := newTestProvider(t, streamServer(t, textFrame("Hel"), textFrame("lo"), usageFrame))

		deltas, final, err := drain(p)
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		if !slices.Equal(deltas, []string{"Hel", "lo"}) {
			t.Errorf("deltas = %v", deltas)
		}
		if final == nil || final.Accumulated != "Hello" {
			t.Fatalf("final = %+v", final)
		}
		if *final.Usage != (llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}) {
			t.Errorf("usage = %+v", *final.Usage)
		}
	})

	t.Run("missing usage is estimated", func(t *testing.T) {
		p := newTestProvider(t, streamServer(t, textFrame("Hel"), textFrame("lo")))

		_, final, err := drain(p)
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		if want := llm.EstimateUsage(prompt, "Hello"); final == nil || *final.Usage != want {
			t.Errorf("final = %+v, want usage %+v", final, want)
		}
	})

	t.Run("error mid-stream", func(t *testing.T) {
		p := newTestProvider(t, streamServer(t, textFrame("Hel"), `{"error":{"code":503,"message":"model overloaded","status":"UNAVAILABLE"}}`))

		deltas, final, err := drain(p)
		if !errors.Is(err, commonModels.ErrProviderStream) || !strings.Contains(err.Error(), "model overloaded") {
			t.Fatalf("err = %v", err)
		}
		if !slices.Equal(deltas, []string{"Hel"}) || final != nil {
			t.Errorf("deltas = %v, final = %+v", deltas, final)
		}
	})
}

func TestToGeminiContents(t *testing.T) {
	got := toGeminiContents([]commonModels.ChatMessage{
		{Role: commonModels.RoleUser, Content: "hi"},
		{Role: commonModels.RoleAssistant, Content: "hello"},
	})
	if len(got) != 2 || got[0].Role != "user" || got[1].Role != "model" {
		t.Errorf("roles not mapped: %+v", got)
	}
}
