package rag_test

import (
	"context"
	"errors"
	"iter"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag"
	"github.com/akolanti/ragchat/internal/rag/llm"
)

var errClientGone = errors.New("client gone")

type MockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// MockQueryEmbedder counts which embedding path was taken.
type MockQueryEmbedder struct {
	DocumentCalls int
	QueryCalls    int
}

func (m *MockQueryEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	m.DocumentCalls++
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockQueryEmbedder) GetQueryEmbedding(context.Context, string) ([]float32, error) {
	m.QueryCalls++
	return []float32{0.1, 0.2, 0.3}, nil
}

// MockChunkStore implements vectorDB.ChunkStore
type MockChunkStore struct {
	OnSimilaritySearch func(ctx context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error)
	SearchCalls        int
}

func (m *MockChunkStore) InsertChunks(context.Context, commonModels.Document, []commonModels.Chunk) error {
	return nil
}

func (m *MockChunkStore) SimilaritySearch(ctx context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error) {
	m.SearchCalls++
	if m.OnSimilaritySearch != nil {
		return m.OnSimilaritySearch(ctx, vector, userId, limit)
	}
	return nil, nil
}

func (m *MockChunkStore) CountChunks(context.Context, string) (int64, error) { return 0, nil }

func (m *MockChunkStore) GetChunk(context.Context, string) (commonModels.Chunk, error) {
	return commonModels.Chunk{}, commonModels.ErrNotFound
}

// MockProvider replays Deltas, then a terminal chunk with Usage, or FailWith.
type MockProvider struct {
	ProviderName string
	Deltas       []string
	Usage        llm.Usage
	FailWith     error

	Prompt   []commonModels.ChatMessage
	Yielded  int
	Released bool
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "openai"
	}
	return m.ProviderName
}

func (m *MockProvider) Model() string { return "mock-model" }

func (m *MockProvider) StreamChat(_ context.Context, messages []commonModels.ChatMessage) iter.Seq2[llm.StreamChunk, error] {
	m.Prompt = messages
	return func(yield func(llm.StreamChunk, error) bool) {
		defer func() { m.Released = true }()
		acc := llm.NewAccumulator(messages)
		for _, d := range m.Deltas {
			m.Yielded++
			if !yield(acc.Delta(d), nil) {
				return
			}
		}
		if m.FailWith != nil {
			yield(llm.StreamChunk{}, m.FailWith)
			return
		}
		yield(acc.Final(m.Usage), nil)
	}
}

type sinkEvent struct {
	kind    string
	chunk   rag.ChunkEvent
	message string
}

// BlockingProvider yields one delta, closes Started, then waits for its
// context to end and reports the context error.
type BlockingProvider struct {
	Started  chan struct{}
	Released bool
}

func NewBlockingProvider() *BlockingProvider {
	return &BlockingProvider{Started: make(chan struct{})}
}

func (m *BlockingProvider) Name() string  { return "openai" }
func (m *BlockingProvider) Model() string { return "mock-model" }

func (m *BlockingProvider) StreamChat(ctx context.Context, messages []commonModels.ChatMessage) iter.Seq2[llm.StreamChunk, error] {
	return func(yield func(llm.StreamChunk, error) bool) {
		defer func() { m.Released = true }()
		acc := llm.NewAccumulator(messages)
		if !yield(acc.Delta("first"), nil) {
			return
		}
		close(m.Started)
		<-ctx.Done()
		yield(llm.StreamChunk{}, ctx.Err())
	}
}

// RecordingSink keeps every event; it starts failing after FailAfter chunks when set.
type RecordingSink struct {
	Events    []sinkEvent
	FailAfter int
	written   int
}

func (s *RecordingSink) Chunk(event rag.ChunkEvent) error {
	if s.FailAfter > 0 && s.written >= s.FailAfter {
		return errClientGone
	}
	s.written++
	s.Events = append(s.Events, sinkEvent{kind: "chunk", chunk: event})
	return nil
}

func (s *RecordingSink) End() error {
	s.Events = append(s.Events, sinkEvent{kind: "end"})
	return nil
}

func (s *RecordingSink) Error(message string) error {
	s.Events = append(s.Events, sinkEvent{kind: "error", message: message})
	return nil
}

func (s *RecordingSink) Kinds() []string {
	kinds := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		kinds = append(kinds, e.kind)
	}
	return kinds
}
