package postgres

import (
	"context"
	"fmt"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// SaveMessage writes the message and its citations in one transaction.
func (r *MessageRepository) SaveMessage(ctx context.Context, message commonModels.Message, citations []commonModels.Citation) error {
	if message.Id == "" {
		message.Id = uuid.New().String()
	}
	row := MessageRow{
		ID:          message.Id,
		SessionID:   message.SessionId,
		Role:        message.Role,
		Content:     message.Content,
		JsonPayload: toJSON(message.JsonPayload),
		CreatedAt:   message.CreatedAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(citations) == 0 {
			return nil
		}
		rows := make([]CitationRow, 0, len(citations))
		for _, c := range citations {
			citation := CitationRow{
				ID:        uuid.New().String(),
				MessageID: message.Id,
				Type:      string(c.Type),
				RefID:     c.RefId,
				ChunkID:   optionalString(c.ChunkId),
				URL:       optionalString(c.URL),
			}
			if c.Page > 0 {
				page := c.Page
				citation.Page = &page
			}
			rows = append(rows, citation)
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("%w: save message: %v", commonModels.ErrPersistence, err)
	}
	return nil
}
