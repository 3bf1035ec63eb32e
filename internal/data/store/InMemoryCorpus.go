package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/vectorDB"
)

// InMemoryCorpus is the document and chunk store used when Postgres is
// offline. Similarity search is a brute-force cosine scan.
type InMemoryCorpus struct {
	lock      sync.RWMutex
	documents map[string]commonModels.Document
	chunks    map[string]commonModels.Chunk
	byDoc     map[string][]string
}

func NewInMemoryCorpus() *InMemoryCorpus {
	return &InMemoryCorpus{
		documents: make(map[string]commonModels.Document),
		chunks:    make(map[string]commonModels.Chunk),
		byDoc:     make(map[string][]string),
	}
}

func (c *InMemoryCorpus) CreateDocument(_ context.Context, doc commonModels.Document) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, exists := c.documents[doc.Id]; exists {
		return fmt.Errorf("%w: document %s already exists", commonModels.ErrPersistence, doc.Id)
	}
	c.documents[doc.Id] = doc
	return nil
}

func (c *InMemoryCorpus) MarkCompleted(_ context.Context, documentId string, processedAt time.Time) error {
	return c.transition(documentId, func(doc *commonModels.Document) {
		doc.Status = commonModels.DocumentCompleted
		doc.ProcessedAt = &processedAt
	})
}

func (c *InMemoryCorpus) MarkFailed(_ context.Context, documentId string) error {
	return c.transition(documentId, func(doc *commonModels.Document) {
		doc.Status = commonModels.DocumentError
	})
}

func (c *InMemoryCorpus) transition(documentId string, apply func(doc *commonModels.Document)) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	doc, ok := c.documents[documentId]
	if !ok || doc.Status != commonModels.DocumentProcessing {
		return fmt.Errorf("%w: document %s is not processing", commonModels.ErrNotFound, documentId)
	}
	apply(&doc)
	c.documents[documentId] = doc
	return nil
}

func (c *InMemoryCorpus) GetDocument(_ context.Context, documentId string) (commonModels.Document, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	doc, ok := c.documents[documentId]
	if !ok {
		return commonModels.Document{}, commonModels.ErrNotFound
	}
	return doc, nil
}

func (c *InMemoryCorpus) InsertChunks(_ context.Context, _ commonModels.Document, chunks []commonModels.Chunk) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, chunk := range chunks {
		if _, ok := c.documents[chunk.DocumentId]; !ok {
			return fmt.Errorf("%w: unknown document %s", commonModels.ErrPersistence, chunk.DocumentId)
		}
	}
	for _, chunk := range chunks {
		chunk.Embedding = slices.Clone(chunk.Embedding)
		c.chunks[chunk.Id] = chunk
		c.byDoc[chunk.DocumentId] = append(c.byDoc[chunk.DocumentId], chunk.Id)
	}
	return nil
}

func (c *InMemoryCorpus) SimilaritySearch(_ context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	hits := make([]commonModels.ScoredChunk, 0)
	if limit <= 0 {
		return hits, nil
	}
	for _, chunk := range c.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		doc := c.documents[chunk.DocumentId]
		if doc.UserId != userId || doc.Status != commonModels.DocumentCompleted {
			continue
		}
		hits = append(hits, commonModels.ScoredChunk{
			ChunkId:       chunk.Id,
			DocumentId:    chunk.DocumentId,
			DocumentTitle: doc.Name,
			Content:       chunk.Content,
			Page:          chunk.Page,
			Similarity:    vectorDB.CosineSimilarity(vector, chunk.Embedding),
		})
	}

	slices.SortStableFunc(hits, func(a, b commonModels.ScoredChunk) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (c *InMemoryCorpus) CountChunks(_ context.Context, documentId string) (int64, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return int64(len(c.byDoc[documentId])), nil
}

func (c *InMemoryCorpus) GetChunk(_ context.Context, chunkId string) (commonModels.Chunk, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	chunk, ok := c.chunks[chunkId]
	if !ok {
		return commonModels.Chunk{}, commonModels.ErrNotFound
	}
	return chunk, nil
}
