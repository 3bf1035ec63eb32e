package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var logger = logger_i.NewLogger("Redis Store")

type Store struct {
	client *redis.Client
}

// NewStore connects and pings. A nil store with an error means Redis is
// offline and callers should fall back to an in-memory counter.
func NewStore(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis is offline: %w", err)
	}

	logger.Info("Redis connected", "addr", cfg.Addr, "db", cfg.DB)
	store := &Store{client: client}
	go store.closeOnDone(ctx)
	return store, nil
}

func (s *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Store")
	if err := s.client.Close(); err != nil {
		logger.Error("Error closing redis client", "error", err)
	}
}

func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
