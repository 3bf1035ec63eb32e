package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) InsertUsage(ctx context.Context, entry commonModels.UsageLog) error {
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	row := UsageLogRow{
		ID:               entry.Id,
		UserID:           entry.UserId,
		Provider:         entry.Provider,
		Model:            entry.Model,
		PromptTokens:     entry.PromptTokens,
		CompletionTokens: entry.CompletionTokens,
		TotalTokens:      entry.TotalTokens,
		Ms:               entry.Ms,
		CostUSD:          entry.CostUSD,
		SessionID:        optionalString(entry.SessionId),
		Timestamp:        entry.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: insert usage: %v", commonModels.ErrPersistence, err)
	}
	return nil
}

type providerSum struct {
	Provider string
	Tokens   int64
	Cost     decimal.Decimal
	Requests int64
}

func (r *UsageRepository) SumUsageByProvider(ctx context.Context, userId string, since time.Time) (map[string]commonModels.UsageTotals, error) {
	var sums []providerSum
	err := r.db.WithContext(ctx).
		Model(&UsageLogRow{}).
		Select("provider, COALESCE(SUM(total_tokens), 0) AS tokens, COALESCE(SUM(cost_usd), 0) AS cost, COUNT(*) AS requests").
		Where(`user_id = ? AND "timestamp" >= ?`, userId, since).
		Group("provider").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("%w: sum usage: %v", commonModels.ErrPersistence, err)
	}

	result := make(map[string]commonModels.UsageTotals, len(sums))
	for _, s := range sums {
		result[s.Provider] = commonModels.UsageTotals{Tokens: s.Tokens, Cost: s.Cost, Requests: s.Requests}
	}
	return result, nil
}

func (r *UsageRepository) ListUsage(ctx context.Context, userId string, limit int, offset int) ([]commonModels.UsageLog, error) {
	var rows []UsageLogRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order(`"timestamp" DESC`).
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list usage: %v", commonModels.ErrPersistence, err)
	}
	logs := make([]commonModels.UsageLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toDomain())
	}
	return logs, nil
}

func (r *UsageRepository) GetQuota(ctx context.Context, userId string) (*commonModels.Quota, error) {
	var row QuotaRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get quota: %v", commonModels.ErrPersistence, err)
	}
	return &commonModels.Quota{
		UserId:        row.UserID,
		TokensLimit:   row.TokensLimit,
		CostLimit:     row.CostLimit,
		RequestsLimit: row.RequestsLimit,
	}, nil
}
