package commonModels

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentStatus string

const (
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentError      DocumentStatus = "error"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type CitationType string

const (
	CitationTerm   CitationType = "term"
	CitationClause CitationType = "clause"
	CitationDoc    CitationType = "doc"
	CitationSec    CitationType = "sec"
)

// Document is one uploaded file. Status only moves forward:
// processing -> completed or processing -> error.
type Document struct {
	Id          string
	UserId      string
	Name        string
	Type        string
	Size        int64
	Status      DocumentStatus
	UploadedAt  time.Time
	ProcessedAt *time.Time
	Metadata    map[string]any
}

// Chunk is a group of consecutive sentences from a document.
// Page is the 1-based group number, Start/End are sentence indices.
// A nil Embedding keeps the chunk out of similarity search.
type Chunk struct {
	Id         string
	DocumentId string
	Content    string
	TokenCount int
	Page       int
	Start      int
	End        int
	Embedding  []float32
	Metadata   map[string]any
}

// ScoredChunk is a similarity search hit, before thresholding.
type ScoredChunk struct {
	ChunkId       string
	DocumentId    string
	DocumentTitle string
	Content       string
	Page          int
	Similarity    float64
}

// RetrievedChunk is a hit that passed the similarity threshold.
// Position is the chunk's stored page column; citations report Position+1.
type RetrievedChunk struct {
	ChunkId       string
	DocumentId    string
	DocumentTitle string
	Content       string
	Position      int
	Similarity    float64
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CitationRef is what the client sees next to streamed content.
type CitationRef struct {
	Type  CitationType `json:"type"`
	Id    string       `json:"id"`
	Title string       `json:"title"`
	Page  int          `json:"page"`
}

type Citation struct {
	Id        string
	MessageId string
	Type      CitationType
	RefId     string
	ChunkId   string
	Page      int
	URL       string
}

type Message struct {
	Id          string
	SessionId   string
	Role        string
	Content     string
	JsonPayload map[string]any
	CreatedAt   time.Time
}

type UsageLog struct {
	Id               string
	UserId           string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Ms               int64
	CostUSD          decimal.Decimal
	SessionId        string
	Timestamp        time.Time
}

type Quota struct {
	UserId        string
	TokensLimit   int64
	CostLimit     decimal.Decimal
	RequestsLimit int64
}

// UsageTotals is an aggregate over a set of usage logs.
type UsageTotals struct {
	Tokens   int64
	Cost     decimal.Decimal
	Requests int64
}

func (t UsageTotals) Add(o UsageTotals) UsageTotals {
	return UsageTotals{
		Tokens:   t.Tokens + o.Tokens,
		Cost:     t.Cost.Add(o.Cost),
		Requests: t.Requests + o.Requests,
	}
}
