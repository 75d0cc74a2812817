// Package usecase computes market data health snapshots.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stockprice_backend/internal/feature/markethealth/domain/entity"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/shared/tradingcal"
)

// DefaultStaleDays is the staleness threshold when the caller gives none.
const DefaultStaleDays = 2

// ErrInvalidStaleDays is returned for a negative staleness threshold.
var ErrInvalidStaleDays = errors.New("staleDays must be a non-negative integer")

// HealthRepository holds the aggregate price queries.
type HealthRepository interface {
	LatestTradingDate(ctx context.Context, exchangeID uint) (time.Time, bool, error)
	CoverageCount(ctx context.Context, exchangeID uint, date time.Time) (int64, error)
	StaleStocks(ctx context.Context, exchangeID uint, cutoff time.Time) ([]prices.StaleStock, error)
}

// ActiveStockCounter counts the active stock universe.
type ActiveStockCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// ExchangeResolver maps exchange codes to ids.
type ExchangeResolver interface {
	ResolveExchangeID(ctx context.Context, code string) (uint, error)
}

// MarketHealthUsecase is stateless between calls.
type MarketHealthUsecase struct {
	repo      HealthRepository
	stocks    ActiveStockCounter
	exchanges ExchangeResolver
	now       func() time.Time
}

// NewMarketHealthUsecase creates a MarketHealthUsecase.
func NewMarketHealthUsecase(repo HealthRepository, stocks ActiveStockCounter, exchanges ExchangeResolver) *MarketHealthUsecase {
	return &MarketHealthUsecase{repo: repo, stocks: stocks, exchanges: exchanges, now: time.Now}
}

// Snapshot audits the price history of an exchange. A stock is stale when its
// newest candle is older than today minus staleDays.
func (u *MarketHealthUsecase) Snapshot(ctx context.Context, exchangeCode string, staleDays int) (entity.Snapshot, error) {
	if staleDays < 0 {
		return entity.Snapshot{}, ErrInvalidStaleDays
	}
	exchangeID, err := u.exchanges.ResolveExchangeID(ctx, exchangeCode)
	if err != nil {
		return entity.Snapshot{}, err
	}

	snap := entity.Snapshot{Exchange: exchangeCode, StaleThresholdDays: staleDays}

	latest, ok, err := u.repo.LatestTradingDate(ctx, exchangeID)
	if err != nil {
		return entity.Snapshot{}, err
	}
	if !ok {
		slog.Warn("no price data found for exchange", "exchange", exchangeCode)
		snap.Status = entity.StatusNoData
		return snap, nil
	}
	snap.LatestTradingDate = latest

	if snap.StocksWithPrices, err = u.repo.CoverageCount(ctx, exchangeID, latest); err != nil {
		return entity.Snapshot{}, err
	}
	if snap.ActiveStocks, err = u.stocks.CountActive(ctx); err != nil {
		return entity.Snapshot{}, err
	}
	cutoff := tradingcal.Day(u.now()).AddDate(0, 0, -staleDays)
	if snap.StaleStocks, err = u.repo.StaleStocks(ctx, exchangeID, cutoff); err != nil {
		return entity.Snapshot{}, err
	}

	snap.CoveragePercent = entity.CoveragePercent(snap.ActiveStocks, snap.StocksWithPrices)
	snap.Status = entity.Classify(snap.ActiveStocks, snap.StocksWithPrices, len(snap.StaleStocks))

	slog.Info("market health computed",
		"exchange", exchangeCode,
		"latestDate", tradingcal.FormatDate(latest),
		"activeStocks", snap.ActiveStocks,
		"stocksWithPrices", snap.StocksWithPrices,
		"coveragePercent", snap.CoveragePercent.String(),
		"staleCount", len(snap.StaleStocks),
		"status", snap.Status,
	)
	return snap, nil
}
