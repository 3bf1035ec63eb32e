package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, m.err
}

type mockChunkStore struct {
	hits      []commonModels.ScoredChunk
	lastLimit int
	lastUser  string
}

func (m *mockChunkStore) InsertChunks(context.Context, commonModels.Document, []commonModels.Chunk) error {
	return nil
}

func (m *mockChunkStore) SimilaritySearch(_ context.Context, _ []float32, userId string, limit int) ([]commonModels.ScoredChunk, error) {
	m.lastUser = userId
	m.lastLimit = limit
	return m.hits, nil
}

func (m *mockChunkStore) CountChunks(context.Context, string) (int64, error) { return 0, nil }

func (m *mockChunkStore) GetChunk(context.Context, string) (commonModels.Chunk, error) {
	return commonModels.Chunk{}, commonModels.ErrNotFound
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chunks above threshold", func(t *testing.T) {
		store := &mockChunkStore{hits: []commonModels.ScoredChunk{
			{ChunkId: "c1", DocumentId: "d1", DocumentTitle: "Lease", Content: "Rent is due", Page: 2, Similarity: 0.91},
			{ChunkId: "c2", DocumentId: "d2", DocumentTitle: "Menu", Content: "Soup", Page: 1, Similarity: 0.4},
		}}
		server := NewServer(rag.NewRetriever(&mockEmbedder{}, store))

		_, output, err := server.handleSearch(ctx, nil, SearchInput{UserId: "u1", Query: "rent"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "d1", output.Results[0].DocumentId)
		assert.Equal(t, "Lease", output.Results[0].DocumentTitle)
		assert.Equal(t, 3, output.Results[0].Page, "page is the stored page plus one")
		assert.Equal(t, 0.91, output.Results[0].Similarity)
		assert.Equal(t, "u1", store.lastUser)
		assert.Equal(t, 5, store.lastLimit)
	})

	t.Run("limit is capped", func(t *testing.T) {
		store := &mockChunkStore{}
		server := NewServer(rag.NewRetriever(&mockEmbedder{}, store))

		_, _, err := server.handleSearch(ctx, nil, SearchInput{UserId: "u1", Query: "rent", Limit: 1000})

		require.NoError(t, err)
		assert.Equal(t, 50, store.lastLimit)
	})

	t.Run("embedding failure gives no results", func(t *testing.T) {
		server := NewServer(rag.NewRetriever(&mockEmbedder{err: errors.New("quota")}, &mockChunkStore{}))

		_, output, err := server.handleSearch(ctx, nil, SearchInput{UserId: "u1", Query: "rent"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
	})

	t.Run("user id is required", func(t *testing.T) {
		server := NewServer(rag.NewRetriever(&mockEmbedder{}, &mockChunkStore{}))

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "rent"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "user_id")
	})
}

func TestServer_Handler(t *testing.T) {
	server := NewServer(rag.NewRetriever(&mockEmbedder{}, &mockChunkStore{}))
	assert.NotNil(t, server.Handler())
}
