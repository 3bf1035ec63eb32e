package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc commonModels.Document) error {
	row := toDocumentRow(doc)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: create document: %v", commonModels.ErrPersistence, err)
	}
	return nil
}

func (r *DocumentRepository) MarkCompleted(ctx context.Context, documentId string, processedAt time.Time) error {
	return r.setStatus(ctx, documentId, map[string]any{
		"status":       string(commonModels.DocumentCompleted),
		"processed_at": processedAt,
	})
}

func (r *DocumentRepository) MarkFailed(ctx context.Context, documentId string) error {
	return r.setStatus(ctx, documentId, map[string]any{
		"status": string(commonModels.DocumentError),
	})
}

// setStatus only moves documents out of processing, so a terminal state is never overwritten.
func (r *DocumentRepository) setStatus(ctx context.Context, documentId string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&DocumentRow{}).
		Where("id = ? AND status = ?", documentId, string(commonModels.DocumentProcessing)).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%w: update document status: %v", commonModels.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: document %s is not processing", commonModels.ErrNotFound, documentId)
	}
	return nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, documentId string) (commonModels.Document, error) {
	if _, err := uuid.Parse(documentId); err != nil {
		return commonModels.Document{}, commonModels.ErrNotFound
	}
	var row DocumentRow
	err := r.db.WithContext(ctx).Where("id = ?", documentId).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commonModels.Document{}, commonModels.ErrNotFound
	}
	if err != nil {
		return commonModels.Document{}, fmt.Errorf("%w: get document: %v", commonModels.ErrPersistence, err)
	}
	return row.toDomain(), nil
}
