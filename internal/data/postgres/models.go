package postgres

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var AllModels = []any{
	&DocumentRow{},
	&ChunkRow{},
	&MessageRow{},
	&CitationRow{},
	&UsageLogRow{},
	&QuotaRow{},
}

type DocumentRow struct {
	ID          string         `gorm:"primaryKey;type:uuid"`
	UserID      string         `gorm:"size:64;not null;index"`
	Name        string         `gorm:"not null"`
	Type        string         `gorm:"size:100;not null"`
	Size        int64          `gorm:"not null"`
	Status      string         `gorm:"size:20;not null;default:processing;index"`
	UploadedAt  time.Time      `gorm:"not null"`
	ProcessedAt *time.Time
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
}

func (DocumentRow) TableName() string { return "documents" }

type ChunkRow struct {
	ID          string           `gorm:"primaryKey;type:uuid"`
	DocumentID  string           `gorm:"type:uuid;not null;index"`
	Content     string           `gorm:"type:text;not null"`
	TokenCount  int              `gorm:"not null"`
	Page        int              `gorm:"not null"`
	StartOffset int              `gorm:"not null"`
	EndOffset   int              `gorm:"not null"`
	Embedding   *pgvector.Vector `gorm:"type:vector(1536)"`
	Metadata    datatypes.JSON   `gorm:"type:jsonb"`
}

func (ChunkRow) TableName() string { return "chunks" }

type MessageRow struct {
	ID          string         `gorm:"primaryKey;type:uuid"`
	SessionID   string         `gorm:"size:64;not null;index"`
	Role        string         `gorm:"size:20;not null"`
	Content     string         `gorm:"type:text;not null"`
	JsonPayload datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
}

func (MessageRow) TableName() string { return "chat_messages" }

type CitationRow struct {
	ID        string  `gorm:"primaryKey;type:uuid"`
	MessageID string  `gorm:"type:uuid;not null;index"`
	Type      string  `gorm:"size:20;not null"`
	RefID     string  `gorm:"not null"`
	ChunkID   *string `gorm:"type:uuid"`
	Page      *int
	URL       *string
}

func (CitationRow) TableName() string { return "citations" }

type UsageLogRow struct {
	ID               string          `gorm:"primaryKey;type:uuid"`
	UserID           string          `gorm:"size:64;not null;index:idx_usage_user_time,priority:1"`
	Provider         string          `gorm:"size:50;not null"`
	Model            string          `gorm:"size:100;not null"`
	PromptTokens     int             `gorm:"not null"`
	CompletionTokens int             `gorm:"not null"`
	TotalTokens      int             `gorm:"not null"`
	Ms               int64           `gorm:"not null"`
	CostUSD          decimal.Decimal `gorm:"column:cost_usd;type:numeric(10,6);not null"`
	SessionID        *string         `gorm:"size:64"`
	Timestamp        time.Time       `gorm:"not null;index:idx_usage_user_time,priority:2"`
	CreatedAt        time.Time
}

func (UsageLogRow) TableName() string { return "usage_logs" }

type QuotaRow struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	UserID        string          `gorm:"size:64;not null;uniqueIndex"`
	TokensLimit   int64           `gorm:"not null;default:100000"`
	CostLimit     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:10.00"`
	RequestsLimit int64           `gorm:"not null;default:1000"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (QuotaRow) TableName() string { return "quotas" }
