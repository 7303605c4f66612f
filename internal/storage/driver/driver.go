// Package driver opens the key-value store selected by configuration.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"aieni/internal/platform/config"
	"aieni/internal/platform/database"
	"aieni/internal/storage"
	"aieni/internal/storage/memory"
	"aieni/internal/storage/postgres"
	storageredis "aieni/internal/storage/redis"
	"aieni/internal/storage/sqlite"
)

const (
	Memory   = "memory"
	SQLite   = "sqlite"
	Redis    = "redis"
	Postgres = "postgres"
)

// RedisKeyPrefix namespaces collection keys in a shared Redis.
const RedisKeyPrefix = "aieni:"

// Opened is a ready store plus what the caller needs to probe and release it.
type Opened struct {
	KV     storage.KV
	Driver string
	Ping   func(ctx context.Context) error
	Close  func() error
}

// Open connects the configured driver. redisClient is required only for the
// redis driver and may be nil otherwise.
func Open(ctx context.Context, cfg config.StorageConfig, redisClient storageredis.Cmdable, logger *slog.Logger) (*Opened, error) {
	nop := func() error { return nil }

	switch cfg.Driver {
	case "", Memory:
		kv := memory.New()
		return &Opened{KV: kv, Driver: Memory, Ping: kv.Ping, Close: nop}, nil

	case SQLite:
		kv, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "sqlite storage opened", "path", kv.Path())
		return &Opened{KV: kv, Driver: SQLite, Ping: kv.Ping, Close: kv.Close}, nil

	case Redis:
		if redisClient == nil {
			return nil, fmt.Errorf("storage driver %q requires REDIS_URL", Redis)
		}
		kv := storageredis.New(redisClient, RedisKeyPrefix)
		return &Opened{KV: kv, Driver: Redis, Ping: kv.Ping, Close: nop}, nil

	case Postgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("storage driver %q requires DATABASE_URL", Postgres)
		}
		pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		kv := postgres.New(pool.DB())
		if err := kv.EnsureSchema(ctx); err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.InfoContext(ctx, "postgres storage opened", "host", pool.Host())
		return &Opened{KV: kv, Driver: Postgres, Ping: pool.Health, Close: pool.Close}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Instrument wraps the opened store so every call is reported to observer.
func (o *Opened) Instrument(observer storage.Observer) {
	o.KV = storage.NewInstrumented(o.KV, o.Driver, observer)
}
