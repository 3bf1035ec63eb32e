package config

import (
	"time"
)

const (
	TRACE_ID_KEY = "traceId"

	//retrieval
	SimilarityThreshold = 0.70
	ChatRetrievalLimit  = 5
	MaxSearchLimit      = 50

	//ingestion
	SentencesPerChunk  = 3
	CharsPerTokenGuess = 4
	MaxIngestBodyBytes = 32 << 20 //32mb, base64 inflates by a third

	//must match the vector(1536) column and the qdrant collection
	EmbeddingOutputDimensionality int32 = 1536

	//llm
	ModelTemperature        = 0.7
	ModelMaxTokens          = 4000
	DefaultProvider         = "openai"
	OpenAIChatModel         = "gpt-4o"
	AnthropicChatModel      = "claude-3-5-sonnet-20240620"
	GeminiModelName         = "gemini-2.5-flash"
	OpenAIEmbeddingModel    = "text-embedding-3-small"
	GoogleEmbeddingModel    = "gemini-embedding-001"
	ProviderResponseTimeout = 5 * time.Minute

	//serverTimeouts, write timeout stays 0 so SSE streams are not cut mid-answer
	ReadTimeout            = 10 * time.Second
	WriteTimeout           = 0
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//http transport shared by the provider SDKs
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//usage history paging
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	//redis usage counters live one day past the end of the month they count
	UsageCounterGrace = 24 * time.Hour
	//a cached monthly sum is trusted at most this long, bounding a missed invalidation
	UsageCacheFreshness = 10 * time.Minute

	//qdrant
	QdrantConnectionTimeout = 30 * time.Second
	QdrantKeepAliveTimeout  = 30 * time.Second
	QdrantVectorName        = "content"
)
