package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var logger = logger_i.NewLogger("postgres")

// Open connects, pings and migrates. It returns an error rather than a nil
// handle so callers can fall back to the in-memory stores.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if cfg.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db.WithContext(ctx)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	go closeOnDone(ctx, db)
	logger.Info("Postgres connected")
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	if err := db.AutoMigrate(AllModels...); err != nil {
		return err
	}
	// ivfflat with one probe misses neighbours in sparse per-user corpora; hnsw
	// keeps recall without per-session tuning. Both need the cosine opclass for <=>.
	if err := db.Exec("DROP INDEX IF EXISTS chunks_embedding_idx").Error; err != nil {
		return err
	}
	return db.Exec("CREATE INDEX IF NOT EXISTS " + ChunkEmbeddingIndex + " ON chunks USING hnsw (embedding vector_cosine_ops)").Error
}

const ChunkEmbeddingIndex = "chunks_embedding_hnsw_idx"

func closeOnDone(ctx context.Context, db *gorm.DB) {
	<-ctx.Done()
	logger.Info("Closing Postgres")
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("could not close Postgres", "error", err)
	}
}
