package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockprice_backend/internal/feature/backfill/domain/entity"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
	stocks "stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/shared/tradingcal"
)

// lockKey names the single-runner lock shared by every backfill process.
const lockKey = "backfill:run"

// UnboundedLockTTL is the lock lease of a run without a deadline. The lock is released
// when the run ends, so the lease only matters if the process dies holding it.
const UnboundedLockTTL = 24 * time.Hour

// StockLister lists the stocks a run is responsible for.
type StockLister interface {
	ListActive(ctx context.Context) ([]stocks.Stock, error)
}

// ExchangeResolver maps exchange codes to ids.
type ExchangeResolver interface {
	ResolveExchangeID(ctx context.Context, code string) (uint, error)
}

// PriceStore is the storage the orchestrator reads gaps from and writes candles to.
type PriceStore interface {
	PriceDateReader
	UpsertNoOverwrite(ctx context.Context, candles []prices.Candle) (prices.UpsertResult, error)
}

// CandleSource fetches candles for date ranges of one stock.
type CandleSource interface {
	Fetch(ctx context.Context, symbol, exchangeCode string, exchangeID uint, ranges []tradingcal.Range) ([]prices.Candle, []entity.FetchFailure)
}

// Locker provides the single-runner guarantee. acquired is false when another holder owns key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// Options configures a backfill run.
type Options struct {
	ExchangeCode   string
	RetentionYears int
	Workers        int
	RunTimeout     time.Duration // 0 disables the overall deadline
	LockTTL        time.Duration // 0 means RunTimeout plus a minute, or UnboundedLockTTL
}

// BackfillUsecase drives gap detection, fetch and upsert for every active stock.
type BackfillUsecase struct {
	stocks    StockLister
	exchanges ExchangeResolver
	store     PriceStore
	gaps      *GapDetector
	fetcher   CandleSource
	locker    Locker
	recorder  Recorder
	opts      Options
	now       func() time.Time
}

// NewBackfillUsecase creates a BackfillUsecase. locker and recorder may be nil.
func NewBackfillUsecase(
	stockLister StockLister,
	exchanges ExchangeResolver,
	store PriceStore,
	fetcher CandleSource,
	locker Locker,
	recorder Recorder,
	opts Options,
) *BackfillUsecase {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RetentionYears < 1 {
		opts.RetentionYears = 5
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = UnboundedLockTTL
		if opts.RunTimeout > 0 {
			opts.LockTTL = opts.RunTimeout + time.Minute
		}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &BackfillUsecase{
		stocks:    stockLister,
		exchanges: exchanges,
		store:     store,
		gaps:      NewGapDetector(store),
		fetcher:   fetcher,
		locker:    locker,
		recorder:  recorder,
		opts:      opts,
		now:       time.Now,
	}
}

// Run processes every active stock once. Per-stock failures are counted, never returned.
// It returns entity.ErrRunInProgress when another run holds the lock, and the run
// deadline error when stocks were left unprocessed; the stats are valid in both cases.
func (u *BackfillUsecase) Run(ctx context.Context) (entity.Stats, error) {
	startedAt := time.Now()

	if u.locker != nil {
		release, acquired, err := u.locker.TryLock(ctx, lockKey, u.opts.LockTTL)
		if err != nil {
			u.recorder.RunFinished(OutcomeFailed, entity.Stats{}, time.Since(startedAt))
			return entity.Stats{}, fmt.Errorf("acquire backfill lock: %w", err)
		}
		if !acquired {
			slog.Warn("backfill run skipped, another run holds the lock")
			u.recorder.RunFinished(OutcomeSkipped, entity.Stats{}, time.Since(startedAt))
			return entity.Stats{}, entity.ErrRunInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("failed to release backfill lock", "error", err)
			}
		}()
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if u.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, u.opts.RunTimeout)
	}
	defer cancel()

	slog.Info("starting backfill run", "exchange", u.opts.ExchangeCode,
		"retentionYears", u.opts.RetentionYears, "workers", u.opts.Workers)

	stats, err := u.run(runCtx)

	outcome := OutcomeCompleted
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case runCtx.Err() != nil:
		outcome = OutcomeDeadline
		err = fmt.Errorf("backfill run stopped early: %w", runCtx.Err())
	}

	elapsed := time.Since(startedAt)
	u.recorder.RunFinished(outcome, stats, elapsed)
	if outcome == OutcomeFailed {
		slog.Error("backfill run failed", append(stats.LogAttrs(), "error", err)...)
		return stats, err
	}
	slog.Info("backfill run completed", append(stats.LogAttrs(),
		"outcome", outcome, "durationSeconds", int(elapsed.Round(time.Second).Seconds()))...)
	return stats, err
}

func (u *BackfillUsecase) run(ctx context.Context) (entity.Stats, error) {
	exchangeID, err := u.exchanges.ResolveExchangeID(ctx, u.opts.ExchangeCode)
	if err != nil {
		return entity.Stats{}, fmt.Errorf("resolve exchange %s: %w", u.opts.ExchangeCode, err)
	}
	list, err := u.stocks.ListActive(ctx)
	if err != nil {
		return entity.Stats{}, fmt.Errorf("list active stocks: %w", err)
	}
	slog.Info("active stocks fetched", "count", len(list))

	today := tradingcal.Day(u.now())

	var (
		mu    sync.Mutex
		stats entity.Stats
		g     errgroup.Group
	)
	g.SetLimit(u.opts.Workers)
	for _, s := range list {
		g.Go(func() error {
			res := u.processStock(ctx, exchangeID, s, today)
			mu.Lock()
			stats.Add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // tasks never fail
	return stats, nil
}

// processStock runs one stock's pass and returns its contribution to the run stats.
// Every failure, a panic included, is contained here.
func (u *BackfillUsecase) processStock(ctx context.Context, exchangeID uint, s stocks.Stock, today time.Time) (res entity.Stats) {
	res.StocksProcessed = 1

	defer func() {
		if p := recover(); p != nil {
			slog.Error("backfill panicked for stock", panicAttrs(s.Symbol, p)...)
			res.FailedStocks = 1
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.Error("backfill not started for stock", "symbol", s.Symbol, "error", err)
		res.FailedStocks = 1
		return res
	}

	if err := u.backfillStock(ctx, exchangeID, s, today, &res); err != nil {
		slog.Error("backfill failed for stock", "symbol", s.Symbol, "error", err)
		res.FailedStocks = 1
	}
	return res
}

// panicAttrs are the log attributes of a recovered per-stock panic, stack included.
func panicAttrs(symbol string, p any) []any {
	return []any{"symbol", symbol, "panic", p, "stack", string(debug.Stack())}
}

func (u *BackfillUsecase) backfillStock(ctx context.Context, exchangeID uint, s stocks.Stock, today time.Time, res *entity.Stats) error {
	start := RetentionStart(today, u.opts.RetentionYears, s.ListedDate)

	gap, err := u.gaps.Detect(ctx, s.Symbol, exchangeID, start, today)
	if err != nil {
		return fmt.Errorf("detect gaps: %w", err)
	}
	if len(gap.MissingDates) == 0 {
		slog.Debug("no gaps detected", "symbol", s.Symbol)
		return nil
	}
	res.StocksWithGaps = 1
	res.TotalMissingDates = len(gap.MissingDates)

	ranges := tradingcal.GroupRanges(gap.MissingDates)
	res.TotalRanges = len(ranges)
	slog.Info("backfill gaps detected", "symbol", s.Symbol,
		"missingDates", len(gap.MissingDates), "ranges", len(ranges))

	candles, failures := u.fetcher.Fetch(ctx, s.Symbol, u.opts.ExchangeCode, exchangeID, ranges)
	res.CandlesFetched = len(candles)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch interrupted: %w", errors.Join(err, failuresErr(failures)))
	}
	if len(candles) == 0 {
		slog.Warn("no candles fetched for gaps", "symbol", s.Symbol, "failedAttempts", len(failures))
		return nil
	}

	up, err := u.store.UpsertNoOverwrite(ctx, candles)
	if err != nil {
		return fmt.Errorf("upsert candles: %w", err)
	}
	res.CandlesInserted = up.Inserted
	slog.Info("backfill completed for stock", "symbol", s.Symbol,
		"fetched", len(candles), "inserted", up.Inserted)
	return nil
}

// RetentionStart is the later of the listing date and today minus years.
func RetentionStart(today time.Time, years int, listed *time.Time) time.Time {
	start := tradingcal.Day(today).AddDate(-years, 0, 0)
	if listed != nil {
		if l := tradingcal.Day(*listed); l.After(start) {
			return l
		}
	}
	return start
}

func failuresErr(failures []entity.FetchFailure) error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}
