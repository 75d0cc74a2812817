// Package usecase implements gap detection, candle fetching and the backfill orchestrator.
package usecase

import (
	"context"
	"time"

	"stockprice_backend/internal/feature/backfill/domain/entity"
	"stockprice_backend/internal/shared/tradingcal"
)

// PriceDateReader reads the session dates already stored for a (stock, exchange) pair.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceDateReader interface {
	ExistingDates(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error)
}

// GapDetector finds the trading dates missing from storage inside a window.
type GapDetector struct {
	dates PriceDateReader
}

// NewGapDetector creates a GapDetector.
func NewGapDetector(dates PriceDateReader) *GapDetector {
	return &GapDetector{dates: dates}
}

// Detect returns the trading dates in [start, end] that have no stored candle.
// Storage errors are returned unchanged.
func (d *GapDetector) Detect(ctx context.Context, symbol string, exchangeID uint, start, end time.Time) (entity.GapResult, error) {
	expected := tradingcal.Dates(start, end)
	res := entity.GapResult{
		Symbol:        symbol,
		ExchangeID:    exchangeID,
		ExpectedDates: len(expected),
		MissingDates:  []time.Time{},
	}
	if len(expected) == 0 {
		return res, nil
	}

	existing, err := d.dates.ExistingDates(ctx, symbol, exchangeID, expected[0], expected[len(expected)-1])
	if err != nil {
		return entity.GapResult{}, err
	}
	present := make(map[time.Time]struct{}, len(existing))
	for _, t := range existing {
		present[tradingcal.Day(t)] = struct{}{}
	}

	for _, day := range expected {
		if _, ok := present[day]; !ok {
			res.MissingDates = append(res.MissingDates, day)
		}
	}
	res.ExistingDates = len(expected) - len(res.MissingDates)
	return res, nil
}
