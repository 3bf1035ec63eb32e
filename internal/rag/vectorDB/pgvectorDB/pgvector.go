package pgvectorDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/ragchat/internal/data/postgres"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// similarityQuery scores with 1 - cosine distance; ordering by the raw
// distance lets the ivfflat index serve the query.
const similarityQuery = `
SELECT c.id, c.document_id, d.name AS document_title, c.content, c.page,
       1 - (c.embedding <=> ?) AS similarity
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.user_id = ? AND d.status = ? AND c.embedding IS NOT NULL
ORDER BY c.embedding <=> ?
LIMIT ?`

type Store struct {
	db     *gorm.DB
	logger *logger_i.Logger
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, logger: logger_i.NewLogger("pgvector")}
}

func (s *Store) InsertChunks(ctx context.Context, _ commonModels.Document, chunks []commonModels.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]postgres.ChunkRow, 0, len(chunks))
	for _, chunk := range chunks {
		rows = append(rows, postgres.ToChunkRow(chunk))
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("%w: insert chunks: %v", commonModels.ErrPersistence, err)
	}
	s.logger.WithTrace(ctx).Debug("inserted chunks", "count", len(rows))
	return nil
}

type similarityRow struct {
	ID            string
	DocumentID    string
	DocumentTitle string
	Content       string
	Page          int
	Similarity    float64
}

func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error) {
	if limit <= 0 {
		return []commonModels.ScoredChunk{}, nil
	}
	query := pgvector.NewVector(vector)

	var rows []similarityRow
	err := s.db.WithContext(ctx).
		Raw(similarityQuery, query, userId, string(commonModels.DocumentCompleted), query, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", commonModels.ErrRetrieval, err)
	}

	hits := make([]commonModels.ScoredChunk, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, commonModels.ScoredChunk{
			ChunkId:       row.ID,
			DocumentId:    row.DocumentID,
			DocumentTitle: row.DocumentTitle,
			Content:       row.Content,
			Page:          row.Page,
			Similarity:    row.Similarity,
		})
	}
	return hits, nil
}

func (s *Store) CountChunks(ctx context.Context, documentId string) (int64, error) {
	if _, err := uuid.Parse(documentId); err != nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&postgres.ChunkRow{}).Where("document_id = ?", documentId).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", commonModels.ErrPersistence, err)
	}
	return count, nil
}

func (s *Store) GetChunk(ctx context.Context, chunkId string) (commonModels.Chunk, error) {
	if _, err := uuid.Parse(chunkId); err != nil {
		return commonModels.Chunk{}, commonModels.ErrNotFound
	}
	var row postgres.ChunkRow
	err := s.db.WithContext(ctx).Where("id = ?", chunkId).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commonModels.Chunk{}, commonModels.ErrNotFound
	}
	if err != nil {
		return commonModels.Chunk{}, fmt.Errorf("%w: get chunk: %v", commonModels.ErrPersistence, err)
	}
	return row.ToDomain(), nil
}
