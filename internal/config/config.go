package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Vector    VectorConfig
	Qdrant    QdrantConfig
	Providers ProvidersConfig
	Embedding EmbeddingConfig
	RateLimit RateLimitConfig
	Quota     QuotaConfig
}

type ServerConfig struct {
	ListenAddr string
	MCPEnabled bool
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogQueries   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// VectorConfig picks the chunk store backend: "pgvector" or "qdrant".
type VectorConfig struct {
	Backend string
}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	PoolSize   int
	Collection string
}

type ProvidersConfig struct {
	Default   string
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Gemini    ProviderConfig
}

type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type EmbeddingConfig struct {
	Provider    string
	Model       string
	Concurrency int
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// QuotaConfig controls the optional pre-stream quota gate on chat.
type QuotaConfig struct {
	Enforce bool
}

// Load reads defaults, an optional yaml file and RAGCHAT_* env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("RAGCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProd() bool {
	return strings.EqualFold(c.Log.Format, "json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listenAddr", ":3000")
	v.SetDefault("server.mcpEnabled", true)

	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=ragchat sslmode=disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)
	v.SetDefault("database.logQueries", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("vector.backend", "pgvector")

	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.apiKey", "")
	v.SetDefault("qdrant.useTLS", false)
	v.SetDefault("qdrant.poolSize", 1)
	v.SetDefault("qdrant.collection", "document_chunks")

	v.SetDefault("providers.default", DefaultProvider)
	v.SetDefault("providers.openai.apiKey", "")
	v.SetDefault("providers.openai.baseURL", "")
	v.SetDefault("providers.openai.model", OpenAIChatModel)
	v.SetDefault("providers.anthropic.apiKey", "")
	v.SetDefault("providers.anthropic.baseURL", "")
	v.SetDefault("providers.anthropic.model", AnthropicChatModel)
	v.SetDefault("providers.gemini.apiKey", "")
	v.SetDefault("providers.gemini.baseURL", "")
	v.SetDefault("providers.gemini.model", GeminiModelName)

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", OpenAIEmbeddingModel)
	v.SetDefault("embedding.concurrency", 4)

	v.SetDefault("rateLimit.perSecond", 2)
	v.SetDefault("rateLimit.burst", 5)

	v.SetDefault("quota.enforce", false)
}
