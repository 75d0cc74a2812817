package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stockprice_backend/internal/config"
	pricesadapters "stockprice_backend/internal/feature/prices/adapters"
	"stockprice_backend/internal/platform/cache"
	"stockprice_backend/internal/platform/db"
	platformredis "stockprice_backend/internal/platform/redis"
)

// Infra holds the shared connections of a process.
type Infra struct {
	DB    *gorm.DB
	Redis *redis.Client // nil when Redis is not configured or unreachable
}

// NewInfra opens the database and, when configured, Redis.
// An unreachable Redis is logged and left nil.
func NewInfra(ctx context.Context) (*Infra, error) {
	dbCfg, err := db.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	gdb, err := db.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}

	infra := &Infra{DB: gdb}

	redisCfg, err := platformredis.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if redisCfg.Enabled() {
		rdb, err := platformredis.NewRedisClient(ctx, redisCfg)
		if err != nil {
			slog.Warn("Redis unavailable, running without cache", "error", err)
		} else {
			infra.Redis = rdb
		}
	}
	return infra, nil
}

// Close releases the connections.
func (i *Infra) Close() {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	if sqlDB, err := i.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}

// NewPriceStore wraps the candle store with the Redis read cache.
// Entries never outlive the configured daily refresh time.
func NewPriceStore(i *Infra, cfg config.Cache) (*cache.CachingPriceRepository, error) {
	store := cache.NewCachingPriceRepository(i.Redis, cfg.TTL, pricesadapters.NewPriceRepository(i.DB), "prices")

	hour, minute, err := cfg.RefreshClock()
	if err != nil {
		return nil, err
	}
	if hour >= 0 {
		loc, err := time.LoadLocation(cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("cache location %q: %w", cfg.Location, err)
		}
		store.ExpireDailyAt(hour, minute, loc)
	}
	return store, nil
}
