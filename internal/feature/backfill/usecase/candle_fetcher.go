package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"stockprice_backend/internal/feature/backfill/domain/entity"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/shared/ratelimiter"
	"stockprice_backend/internal/shared/tradingcal"
)

// DefaultHistoryVariants are the NSE ticker suffixes tried for historical ranges, most common first.
var DefaultHistoryVariants = []string{".NS", "-SM.NS", "-E1.NS"}

// ChartProvider serves daily sessions for one provider ticker.
type ChartProvider interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]prices.Session, error)
}

// FetcherOptions tunes the candle fetcher.
type FetcherOptions struct {
	Variants       []string      // ticker suffixes, tried in order
	VariantTimeout time.Duration // deadline of a single variant attempt
}

// CandleFetcher fetches candles for date ranges, falling back across symbol variants.
type CandleFetcher struct {
	provider ChartProvider
	limiter  ratelimiter.RateLimiterInterface
	recorder Recorder
	opts     FetcherOptions
}

// NewCandleFetcher creates a CandleFetcher. limiter and recorder may be nil.
func NewCandleFetcher(provider ChartProvider, limiter ratelimiter.RateLimiterInterface, recorder Recorder, opts FetcherOptions) *CandleFetcher {
	if len(opts.Variants) == 0 {
		opts.Variants = DefaultHistoryVariants
	}
	if opts.VariantTimeout <= 0 {
		opts.VariantTimeout = 15 * time.Second
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CandleFetcher{provider: provider, limiter: limiter, recorder: recorder, opts: opts}
}

// Fetch returns the valid candles of every range the provider could serve and one
// FetchFailure per failed variant attempt. A range no variant could serve contributes
// zero candles. Fetch stops early only when ctx is done.
func (f *CandleFetcher) Fetch(ctx context.Context, symbol, exchangeCode string, exchangeID uint, ranges []tradingcal.Range) ([]prices.Candle, []entity.FetchFailure) {
	var (
		candles  []prices.Candle
		failures []entity.FetchFailure
	)
	variants := prices.ProviderSymbols(symbol, f.opts.Variants)

	for _, r := range ranges {
		served := false
		for _, variant := range variants {
			got, failure := f.fetchVariant(ctx, symbol, exchangeID, variant, r)
			if failure != nil {
				failures = append(failures, *failure)
				f.recorder.FetchFailed(string(failure.Kind))
				if !failure.Kind.TryNext() {
					return candles, failures
				}
				slog.Warn("provider fetch failed for variant",
					"symbol", symbol, "variant", variant, "range", r.String(),
					"kind", failure.Kind, "error", failure.Err)
				continue
			}
			candles = append(candles, got...)
			served = true
			slog.Debug("provider range fetch successful",
				"symbol", symbol, "exchange", exchangeCode, "variant", variant,
				"range", r.String(), "candles", len(got))
			break
		}
		if !served {
			slog.Error("all symbol variants failed", "symbol", symbol, "exchange", exchangeCode, "range", r.String())
		}
	}
	return candles, failures
}

func (f *CandleFetcher) fetchVariant(ctx context.Context, symbol string, exchangeID uint, variant string, r tradingcal.Range) ([]prices.Candle, *entity.FetchFailure) {
	fail := func(kind entity.FailureKind, err error) *entity.FetchFailure {
		return &entity.FetchFailure{Variant: variant, Range: r, Kind: kind, Err: err}
	}

	if f.limiter != nil {
		if err := f.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, fail(entity.KindCanceled, err)
		}
	}

	vctx, cancel := context.WithTimeout(ctx, f.opts.VariantTimeout)
	defer cancel()

	sessions, err := f.provider.History(vctx, variant, r.Start, r.End)
	if err != nil {
		return nil, fail(classify(ctx, err), err)
	}

	out := make([]prices.Candle, 0, len(sessions))
	dropped := 0
	for _, s := range sessions {
		if !s.Complete() || s.Date.Before(r.Start) || s.Date.After(r.End) {
			dropped++
			continue
		}
		c := s.Candle(symbol, exchangeID, prices.SourceYahoo)
		if err := c.Validate(); err != nil {
			slog.Warn("dropping invalid candle", "symbol", symbol, "variant", variant, "error", err)
			dropped++
			continue
		}
		out = append(out, c)
	}
	if dropped > 0 {
		slog.Debug("sessions dropped", "symbol", symbol, "variant", variant, "range", r.String(), "dropped", dropped)
	}
	if len(out) == 0 {
		return nil, fail(entity.KindEmpty, fmt.Errorf("%w: no valid session for %s in %s", prices.ErrProviderEmpty, variant, r))
	}
	return out, nil
}

// classify maps a provider error to a FailureKind. parent is the caller's context,
// so a done parent is told apart from the per-variant deadline.
func classify(parent context.Context, err error) entity.FailureKind {
	if parent.Err() != nil {
		return entity.KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return entity.KindTimeout
	}
	switch {
	case errors.Is(err, prices.ErrProviderMalformed):
		return entity.KindMalformed
	case errors.Is(err, prices.ErrProviderEmpty):
		return entity.KindEmpty
	}
	var t interface{ Transient() bool }
	if errors.As(err, &t) && !t.Transient() {
		return entity.KindRejected
	}
	return entity.KindTransient
}
