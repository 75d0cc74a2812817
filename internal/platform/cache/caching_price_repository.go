// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/feature/prices/usecase"
	"stockprice_backend/internal/shared/tradingcal"
)

// PriceStore is the candle store being decorated.
type PriceStore interface {
	usecase.PriceRepository
	ExistingDates(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error)
	UpsertNoOverwrite(ctx context.Context, candles []entity.Candle) (entity.UpsertResult, error)
	UpsertOverwrite(ctx context.Context, candles []entity.Candle) (entity.UpsertResult, error)
}

// CachingPriceRepository decorates a PriceStore with Redis caching of the read path.
// Writes go to the inner store first and then drop every cached entry of the
// affected stocks.
type CachingPriceRepository struct {
	inner     PriceStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	refreshAt func(now time.Time) time.Duration
}

var _ PriceStore = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "prices".
// A nil client disables caching.
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner PriceStore, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// ExpireDailyAt caps every entry's TTL so it never outlives the next hour:minute in loc,
// the time fresh prices land.
func (c *CachingPriceRepository) ExpireDailyAt(hour, minute int, loc *time.Location) *CachingPriceRepository {
	c.refreshAt = func(now time.Time) time.Duration { return TimeUntilNext(now, hour, minute, loc) }
	return c
}

func (c *CachingPriceRepository) entryTTL(now time.Time) time.Duration {
	if c.refreshAt == nil {
		return c.ttl
	}
	return min(c.ttl, c.refreshAt(now))
}

// Latest returns the newest candle of symbol, cached.
func (c *CachingPriceRepository) Latest(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error) {
	return cached(ctx, c, c.latestKey(exchangeID, symbol), func() (entity.Candle, error) {
		return c.inner.Latest(ctx, symbol, exchangeID)
	})
}

// History returns the candles of symbol within [from, to], cached.
func (c *CachingPriceRepository) History(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]entity.Candle, error) {
	key := c.stockPrefix(exchangeID, symbol) + "history:" + tradingcal.FormatDate(from) + ":" + tradingcal.FormatDate(to)
	return cached(ctx, c, key, func() ([]entity.Candle, error) {
		return c.inner.History(ctx, symbol, exchangeID, from, to)
	})
}

// MarketLatest returns the newest candle of every stock on the exchange, cached.
func (c *CachingPriceRepository) MarketLatest(ctx context.Context, exchangeID uint) ([]entity.Candle, error) {
	return cached(ctx, c, c.marketKey(exchangeID), func() ([]entity.Candle, error) {
		return c.inner.MarketLatest(ctx, exchangeID)
	})
}

// ExistingDates is never cached: gap detection must see the store as it is.
func (c *CachingPriceRepository) ExistingDates(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error) {
	return c.inner.ExistingDates(ctx, symbol, exchangeID, from, to)
}

// UpsertNoOverwrite writes through and invalidates the affected stocks when rows were inserted.
func (c *CachingPriceRepository) UpsertNoOverwrite(ctx context.Context, candles []entity.Candle) (entity.UpsertResult, error) {
	res, err := c.inner.UpsertNoOverwrite(ctx, candles)
	if err != nil {
		return res, err
	}
	if res.Inserted > 0 {
		c.invalidate(ctx, candles)
	}
	return res, nil
}

// UpsertOverwrite writes through and invalidates the affected stocks.
func (c *CachingPriceRepository) UpsertOverwrite(ctx context.Context, candles []entity.Candle) (entity.UpsertResult, error) {
	res, err := c.inner.UpsertOverwrite(ctx, candles)
	if err != nil {
		return res, err
	}
	c.invalidate(ctx, candles)
	return res, nil
}

// cached reads key from Redis, falling back to load and storing its result.
// Errors from load are never cached.
func cached[T any](ctx context.Context, c *CachingPriceRepository, key string, load func() (T, error)) (T, error) {
	if c.rdb == nil {
		return load()
	}

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// corrupted entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := load()
	if err != nil {
		return out, err
	}

	// best effort
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.entryTTL(time.Now())).Err()
	}
	return out, nil
}

// invalidate drops cached reads of every stock in candles plus the market view of
// their exchanges. Failures are logged, never returned.
func (c *CachingPriceRepository) invalidate(ctx context.Context, candles []entity.Candle) {
	if c.rdb == nil || len(candles) == 0 {
		return
	}

	markets := map[uint]struct{}{}
	stocks := map[string]struct{}{}
	for _, cd := range candles {
		markets[cd.ExchangeID] = struct{}{}
		stocks[c.stockPrefix(cd.ExchangeID, cd.Symbol)] = struct{}{}
	}

	keys := make([]string, 0, len(markets))
	for id := range markets {
		keys = append(keys, c.marketKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("price cache invalidation failed", "keys", keys, "error", err)
	}
	for prefix := range stocks {
		if err := c.deleteByPattern(ctx, prefix+"*"); err != nil {
			slog.Warn("price cache invalidation failed", "pattern", prefix+"*", "error", err)
		}
	}
}

func (c *CachingPriceRepository) stockPrefix(exchangeID uint, symbol string) string {
	return fmt.Sprintf("%s:%d:%s:", c.namespace, exchangeID, safe(symbol))
}

func (c *CachingPriceRepository) latestKey(exchangeID uint, symbol string) string {
	return c.stockPrefix(exchangeID, symbol) + "latest"
}

func (c *CachingPriceRepository) marketKey(exchangeID uint) string {
	return fmt.Sprintf("%s:%d:_market", c.namespace, exchangeID)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
