package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/customHttpClient"
	"github.com/akolanti/ragchat/internal/data/postgres"
	"github.com/akolanti/ragchat/internal/data/redisStore"
	"github.com/akolanti/ragchat/internal/data/store"
	"github.com/akolanti/ragchat/internal/domain/ragModel"
	"github.com/akolanti/ragchat/internal/handlers"
	"github.com/akolanti/ragchat/internal/mcpserver"
	"github.com/akolanti/ragchat/internal/middleware"
	"github.com/akolanti/ragchat/internal/rag"
	"github.com/akolanti/ragchat/internal/rag/embedding"
	"github.com/akolanti/ragchat/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/ragchat/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/ragchat/internal/rag/ingest"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/internal/rag/llm/anthropicLLM"
	"github.com/akolanti/ragchat/internal/rag/llm/gemini"
	"github.com/akolanti/ragchat/internal/rag/llm/openaiLLM"
	"github.com/akolanti/ragchat/internal/rag/vectorDB"
	"github.com/akolanti/ragchat/internal/rag/vectorDB/pgvectorDB"
	"github.com/akolanti/ragchat/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/ragchat/internal/server"
	"github.com/akolanti/ragchat/internal/usage"
	"github.com/akolanti/ragchat/internal/worker"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type stores struct {
	documents ragModel.DocumentStore
	chunks    vectorDB.ChunkStore
	usage     ragModel.UsageStore
	messages  ragModel.MessageStore
	counter   ragModel.UsageCounter
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a yaml config file")
	flag.Parse()

	//.env is optional, real env vars win
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger_i.NewLogger("main").Error("Could not load config", "error", err)
		os.Exit(1)
	}
	logger_i.Init(cfg.Log)
	var logger = logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	st, err := initStores(serviceContext, cfg, logger)
	if err != nil {
		logger.Error("Vector store failed to initialize. Shutting down.", "backend", cfg.Vector.Backend, "error", err)
		return
	}

	embedder, err := initEmbedder(serviceContext, cfg)
	if err != nil {
		logger.Error("Embedding provider failed to initialize. Shutting down.", "provider", cfg.Embedding.Provider, "error", err)
		return
	}

	registry := initProviders(serviceContext, cfg, logger)
	if len(registry.Names()) == 0 {
		logger.Error("No LLM provider is configured. Shutting down.")
		return
	}
	logger.Debug("Available providers", "providers", registry.Names(), "default", cfg.Providers.Default)

	pool := worker.NewPool(embedder, cfg.Embedding.Concurrency)
	retriever := rag.NewRetriever(embedder, st.chunks)
	usageService := usage.NewService(st.usage, st.counter)

	handler := handlers.NewHandler(handlers.Deps{
		Ingest:       ingest.NewService(st.documents, st.chunks, pool),
		Chat:         rag.NewService(retriever, registry, usageService, st.messages),
		Usage:        usageService,
		Providers:    registry.Names(),
		EnforceQuota: cfg.Quota.Enforce,
	})

	var mcpHandler http.Handler
	if cfg.Server.MCPEnabled {
		mcpHandler = mcpserver.NewServer(retriever).Handler()
	}
	router := server.Routes(handler, middleware.FromConfig(cfg.RateLimit), mcpHandler)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(cfg.Server.ListenAddr, router)

	<-stopExecution
	logger.Info("Server stopped")
}

func initStores(ctx context.Context, cfg *config.Config, logger *logger_i.Logger) (stores, error) {
	var st stores

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("Postgres is offline, using in-memory stores", "error", err)
		db = nil
	}

	if db != nil {
		st.documents = postgres.NewDocumentRepository(db)
		st.usage = postgres.NewUsageRepository(db)
		st.messages = postgres.NewMessageRepository(db)
	} else {
		corpus := store.NewInMemoryCorpus()
		ledger := store.NewInMemoryUsageStore()
		st.documents = corpus
		st.chunks = corpus
		st.usage = ledger
		st.messages = ledger
	}

	st.chunks, err = initChunkStore(ctx, cfg, db, st.chunks)
	if err != nil {
		return st, err
	}

	redis, err := redisStore.NewStore(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Redis is offline, usage counters stay in memory", "error", err)
		st.counter = store.NewInMemoryUsageCounter()
	} else {
		st.counter = store.NewRedisUsageCounter(redis)
	}
	return st, nil
}

// initChunkStore keeps the in-memory corpus when postgres is down and pgvector was asked for.
func initChunkStore(ctx context.Context, cfg *config.Config, db *gorm.DB, fallback vectorDB.ChunkStore) (vectorDB.ChunkStore, error) {
	switch strings.ToLower(cfg.Vector.Backend) {
	case "qdrant":
		qdrantStore, err := qdrantDB.NewStore(ctx, cfg.Qdrant)
		if err != nil {
			return nil, err
		}
		return qdrantStore, nil
	default:
		if db == nil {
			return fallback, nil
		}
		return pgvectorDB.NewStore(db), nil
	}
}

func initEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch strings.ToLower(cfg.Embedding.Provider) {
	case "google", "gemini":
		model := cfg.Embedding.Model
		if model == config.OpenAIEmbeddingModel {
			model = config.GoogleEmbeddingModel
		}
		return googleEmbedding.NewEmbedder(ctx, model, cfg.Providers.Gemini.APIKey)
	default:
		return openaiEmbedding.NewEmbedder(cfg.Providers.OpenAI, cfg.Embedding.Model, customHttpClient.Shared()), nil
	}
}

// initProviders registers every provider that has a key.
func initProviders(ctx context.Context, cfg *config.Config, logger *logger_i.Logger) *llm.Registry {
	var providers []llm.Provider
	if cfg.Providers.OpenAI.APIKey != "" {
		providers = append(providers, openaiLLM.NewProvider(cfg.Providers.OpenAI, customHttpClient.Shared()))
	}
	if cfg.Providers.Anthropic.APIKey != "" {
		providers = append(providers, anthropicLLM.NewProvider(cfg.Providers.Anthropic, customHttpClient.Shared()))
	}
	if cfg.Providers.Gemini.APIKey != "" {
		provider, err := gemini.NewProvider(ctx, cfg.Providers.Gemini)
		if err != nil {
			logger.Error("Gemini provider unavailable", "error", err)
		} else {
			providers = append(providers, provider)
		}
	}
	return llm.NewRegistry(cfg.Providers.Default, providers...)
}
