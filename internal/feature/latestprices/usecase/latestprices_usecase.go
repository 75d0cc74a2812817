// Package usecase implements the latest-price fetch and seed steps.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockprice_backend/internal/feature/latestprices/domain/entity"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
	stocks "stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/platform/retry"
	"stockprice_backend/internal/shared/ratelimiter"
	"stockprice_backend/internal/shared/tradingcal"
)

// DefaultLatestVariants are the NSE ticker suffixes tried for the latest session.
var DefaultLatestVariants = []string{".NS", "-SM.NS", "-E1.NS", "-E2.NS"}

// RecentProvider serves the recent daily sessions of one provider ticker.
type RecentProvider interface {
	Recent(ctx context.Context, symbol, rng string) ([]prices.Session, error)
}

// StockLister lists the active stocks.
type StockLister interface {
	ListActive(ctx context.Context) ([]stocks.Stock, error)
}

// ArtifactStore persists the artifact between the fetch and seed steps.
type ArtifactStore interface {
	Save(ctx context.Context, a entity.Artifact) error
	Load(ctx context.Context) (entity.Artifact, error)
}

// ExchangeResolver maps exchange codes to ids.
type ExchangeResolver interface {
	ResolveExchangeID(ctx context.Context, code string) (uint, error)
}

// PriceWriter applies latest prices, replacing same-day rows.
type PriceWriter interface {
	UpsertOverwrite(ctx context.Context, candles []prices.Candle) (prices.UpsertResult, error)
}

// Options configures the latest-price steps.
type Options struct {
	ExchangeCode string
	Variants     []string
	Range        string        // provider relative range, e.g. "5d"
	Timeout      time.Duration // deadline of a single provider attempt
	Workers      int
	Retry        retry.Policy
}

// LatestPricesUsecase fetches the newest session of every active stock into an
// artifact and seeds the artifact into price history.
type LatestPricesUsecase struct {
	stocks    StockLister
	provider  RecentProvider
	limiter   ratelimiter.RateLimiterInterface
	store     ArtifactStore
	exchanges ExchangeResolver
	writer    PriceWriter
	opts      Options
	now       func() time.Time
}

// NewLatestPricesUsecase creates a LatestPricesUsecase. limiter may be nil.
func NewLatestPricesUsecase(
	stockLister StockLister,
	provider RecentProvider,
	limiter ratelimiter.RateLimiterInterface,
	store ArtifactStore,
	exchanges ExchangeResolver,
	writer PriceWriter,
	opts Options,
) *LatestPricesUsecase {
	if len(opts.Variants) == 0 {
		opts.Variants = DefaultLatestVariants
	}
	if opts.Range == "" {
		opts.Range = "5d"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &LatestPricesUsecase{
		stocks:    stockLister,
		provider:  provider,
		limiter:   limiter,
		store:     store,
		exchanges: exchanges,
		writer:    writer,
		opts:      opts,
		now:       time.Now,
	}
}

// Fetch prices every active stock and always writes the artifact, even when listing
// the stocks or every single fetch failed.
func (u *LatestPricesUsecase) Fetch(ctx context.Context) (entity.Artifact, error) {
	artifact := entity.Artifact{
		GeneratedAt:   u.now().UTC(),
		Source:        entity.ArtifactSource,
		Prices:        []entity.LatestPrice{},
		FailedSymbols: []entity.FailedSymbol{},
	}

	list, fetchErr := u.stocks.ListActive(ctx)
	if fetchErr != nil {
		fetchErr = fmt.Errorf("list active stocks: %w", fetchErr)
		slog.Error("latest price fetch aborted", "error", fetchErr)
	} else {
		slog.Info("fetching latest prices", "stocks", len(list), "exchange", u.opts.ExchangeCode)
		artifact.Prices, artifact.FailedSymbols = u.fetchAll(ctx, list)
	}
	artifact.SuccessCount = len(artifact.Prices)
	artifact.FailedCount = len(artifact.FailedSymbols)

	// the artifact outlives a canceled run
	if err := u.store.Save(context.WithoutCancel(ctx), artifact); err != nil {
		return artifact, errors.Join(fetchErr, fmt.Errorf("save artifact: %w", err))
	}
	slog.Info("latest price artifact written",
		"success", artifact.SuccessCount, "failed", artifact.FailedCount)
	return artifact, fetchErr
}

// fetchAll keeps the stock order of list in both outputs.
func (u *LatestPricesUsecase) fetchAll(ctx context.Context, list []stocks.Stock) ([]entity.LatestPrice, []entity.FailedSymbol) {
	type outcome struct {
		price  *entity.LatestPrice
		failed *entity.FailedSymbol
	}
	results := make([]outcome, len(list))

	var g errgroup.Group
	g.SetLimit(u.opts.Workers)
	var mu sync.Mutex // guards done
	done := 0
	for i, s := range list {
		g.Go(func() error {
			p, err := u.fetchStock(ctx, s.Symbol)
			if err != nil {
				slog.Warn("latest price unresolved", "symbol", s.Symbol, "error", err)
				results[i].failed = &entity.FailedSymbol{Symbol: s.Symbol, Reason: entity.ReasonUnresolved, LastError: err.Error()}
			} else {
				results[i].price = &p
			}
			mu.Lock()
			done++
			if done%100 == 0 {
				slog.Info("latest price progress", "done", done, "total", len(list))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	pricesOut := make([]entity.LatestPrice, 0, len(list))
	failed := make([]entity.FailedSymbol, 0)
	for _, r := range results {
		if r.price != nil {
			pricesOut = append(pricesOut, *r.price)
		} else {
			failed = append(failed, *r.failed)
		}
	}
	return pricesOut, failed
}

// fetchStock returns the newest complete session of the first variant that has one.
func (u *LatestPricesUsecase) fetchStock(ctx context.Context, symbol string) (entity.LatestPrice, error) {
	var lastErr error
	for _, variant := range prices.ProviderSymbols(symbol, u.opts.Variants) {
		if err := ctx.Err(); err != nil {
			return entity.LatestPrice{}, err
		}
		s, err := retry.Value(ctx, u.opts.Retry, "latest "+variant, func(ctx context.Context) (prices.Session, error) {
			if u.limiter != nil {
				if err := u.limiter.WaitIfNeeded(ctx); err != nil {
					return prices.Session{}, err
				}
			}
			vctx, cancel := context.WithTimeout(ctx, u.opts.Timeout)
			defer cancel()
			return u.lastSession(vctx, variant)
		})
		if err != nil {
			lastErr = err
			continue
		}
		slog.Debug("latest price resolved", "symbol", symbol, "variant", variant)
		return entity.LatestPrice{
			Symbol:         symbol,
			ProviderSymbol: variant,
			Exchange:       u.opts.ExchangeCode,
			PriceDate:      tradingcal.FormatDate(s.Date),
			Open:           *s.Open,
			High:           *s.High,
			Low:            *s.Low,
			Close:          *s.Close,
			Volume:         volumeOf(s),
		}, nil
	}
	return entity.LatestPrice{}, lastErr
}

func (u *LatestPricesUsecase) lastSession(ctx context.Context, variant string) (prices.Session, error) {
	sessions, err := u.provider.Recent(ctx, variant, u.opts.Range)
	if err != nil {
		return prices.Session{}, err
	}
	if len(sessions) == 0 {
		return prices.Session{}, prices.ErrProviderEmpty
	}
	last := sessions[len(sessions)-1]
	if !last.Complete() {
		return prices.Session{}, fmt.Errorf("%w: %s %s", entity.ErrIncompleteSession, variant, tradingcal.FormatDate(last.Date))
	}
	return last, nil
}

func volumeOf(s prices.Session) int64 {
	if s.Volume == nil {
		return 0
	}
	return *s.Volume
}

// Seed applies the stored artifact to price history with the overwrite policy.
// Prices failing OHLC validation or carrying an unparsable date are skipped.
func (u *LatestPricesUsecase) Seed(ctx context.Context) (entity.SeedResult, error) {
	a, err := u.store.Load(ctx)
	if err != nil {
		return entity.SeedResult{}, err
	}
	res := entity.SeedResult{Records: len(a.Prices)}

	exchangeID, err := u.exchanges.ResolveExchangeID(ctx, u.opts.ExchangeCode)
	if err != nil {
		return res, fmt.Errorf("resolve exchange %s: %w", u.opts.ExchangeCode, err)
	}

	candles := make([]prices.Candle, 0, len(a.Prices))
	for _, p := range a.Prices {
		day, err := tradingcal.ParseDate(p.PriceDate)
		if err != nil {
			slog.Warn("skipping latest price", "symbol", p.Symbol, "error", err)
			res.Skipped++
			continue
		}
		c := prices.Candle{
			Symbol:     p.Symbol,
			ExchangeID: exchangeID,
			Date:       day,
			Open:       p.Open,
			High:       p.High,
			Low:        p.Low,
			Close:      p.Close,
			Volume:     p.Volume,
			Source:     prices.SourceYahoo,
		}
		if err := c.Validate(); err != nil {
			slog.Warn("skipping latest price", "symbol", p.Symbol, "error", err)
			res.Skipped++
			continue
		}
		candles = append(candles, c)
	}

	up, err := u.writer.UpsertOverwrite(ctx, candles)
	if err != nil {
		return res, fmt.Errorf("upsert latest prices: %w", err)
	}
	res.Upserted = up.Inserted
	slog.Info("latest prices seeded", "records", res.Records, "upserted", res.Upserted, "skipped", res.Skipped)
	return res, nil
}
