package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tripdesk/tripdesk/internal/platform/cache"
	"github.com/tripdesk/tripdesk/internal/platform/db"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/store"
	"github.com/tripdesk/tripdesk/internal/workspace"
)

const redisSlicePrefix = "tripdesk:"

// Backends holds the connections behind the configured slice store.
type Backends struct {
	Redis *redis.Client
	Pool  *pgxpool.Pool
	Store store.Store
}

// OpenBackends connects to Redis and, for the postgres backend, PostgreSQL.
// Redis is optional for the memory backend: when it cannot be reached the
// catalog cache and job queue are disabled and Redis is left nil.
func OpenBackends(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}
	client, err := cache.New(ctx, cfg.RedisAddr)
	switch {
	case err == nil:
		b.Redis = client
	case cfg.StoreBackend == store.BackendMemory:
		logger.Warn("redis unavailable, running without cache and queue", slog.Any("error", err))
	default:
		return nil, err
	}

	switch cfg.StoreBackend {
	case store.BackendRedis:
		b.Store = store.NewRedisStore(b.Redis, redisSlicePrefix)
	case store.BackendPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Pool = pool
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.Store = pg
	case store.BackendMemory:
		b.Store = store.NewMemoryStore()
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	logger.Info("slice store ready", slog.String("backend", cfg.StoreBackend))
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close() {
	if b == nil {
		return
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
}

// WorkspaceOptions maps configuration onto engine options. The config is
// expected to have passed Validate.
func WorkspaceOptions(cfg *Config) workspace.Options {
	stale, _ := pricing.ParseStalePolicy(cfg.LedgerStalePolicy)
	policy, _ := proposals.ParsePolicy(cfg.ProposalPolicy)
	return workspace.Options{
		MaxHotelOptions: cfg.MaxHotelOptions,
		StalePolicy:     stale,
		ProposalPolicy:  policy,
	}
}
