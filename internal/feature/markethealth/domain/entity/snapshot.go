// Package entity defines the market health snapshot.
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	prices "stockprice_backend/internal/feature/prices/domain/entity"
)

// Status is the overall data health of an exchange.
type Status string

const (
	StatusHealthy  Status = "HEALTHY"
	StatusDegraded Status = "DEGRADED"
	StatusNoData   Status = "NO_DATA"
)

// Snapshot is computed on demand from the price and stock stores.
type Snapshot struct {
	Exchange           string
	Status             Status
	LatestTradingDate  time.Time // zero when Status is NO_DATA
	ActiveStocks       int64
	StocksWithPrices   int64
	CoveragePercent    decimal.Decimal
	StaleThresholdDays int
	StaleStocks        []prices.StaleStock
}

// Classify derives the status from coverage and staleness. Full coverage of a
// non-empty universe with no stale stock is healthy.
func Classify(active, covered int64, staleCount int) Status {
	if active > 0 && covered == active && staleCount == 0 {
		return StatusHealthy
	}
	return StatusDegraded
}

// CoveragePercent is covered/active as a percentage rounded to two decimals.
// An empty universe has zero coverage.
func CoveragePercent(active, covered int64) decimal.Decimal {
	if active == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(covered).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(active), 2)
}
