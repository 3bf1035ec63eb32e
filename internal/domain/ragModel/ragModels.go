package ragModel

import (
	"context"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

type TurnState string

const (
	StateValidating TurnState = "Validating"
	StateRetrieving TurnState = "Retrieving"
	StateAugmenting TurnState = "Augmenting"
	StateStreaming  TurnState = "Streaming"
	StateFinalizing TurnState = "Finalizing"
	StateCompleted  TurnState = "Completed"
	StateFailed     TurnState = "Failed"
)

// DocumentStore owns the document lifecycle rows.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc commonModels.Document) error
	MarkCompleted(ctx context.Context, documentId string, processedAt time.Time) error
	MarkFailed(ctx context.Context, documentId string) error
	// GetDocument returns commonModels.ErrNotFound for unknown ids.
	GetDocument(ctx context.Context, documentId string) (commonModels.Document, error)
}

type MessageStore interface {
	SaveMessage(ctx context.Context, message commonModels.Message, citations []commonModels.Citation) error
}

// UsageStore is the durable usage ledger and quota table.
type UsageStore interface {
	InsertUsage(ctx context.Context, entry commonModels.UsageLog) error
	// SumUsageByProvider aggregates logs with timestamp >= since, keyed by provider.
	SumUsageByProvider(ctx context.Context, userId string, since time.Time) (map[string]commonModels.UsageTotals, error)
	ListUsage(ctx context.Context, userId string, limit int, offset int) ([]commonModels.UsageLog, error)
	// GetQuota returns nil without error when the user has no quota row.
	GetQuota(ctx context.Context, userId string) (*commonModels.Quota, error)
}

// UsageCounter caches the monthly ledger sum. Every ledger insert is followed
// by InvalidateMonth, which bumps the month's version. GetMonth hands back the
// version it saw, and SeedMonth only lands when no insert invalidated the month
// since then, so a cached sum never misses or double counts a row.
type UsageCounter interface {
	GetMonth(ctx context.Context, userId string, month time.Time) (totals commonModels.UsageTotals, found bool, version int64, err error)
	SeedMonth(ctx context.Context, userId string, month time.Time, version int64, totals commonModels.UsageTotals) error
	InvalidateMonth(ctx context.Context, userId string, month time.Time) error
}
