// Package entity defines the domain models of a backfill run.
package entity

import "time"

// GapResult is the outcome of one gap detection call for a (stock, exchange) pair.
// ExpectedDates == ExistingDates + len(MissingDates).
type GapResult struct {
	Symbol        string
	ExchangeID    uint
	ExpectedDates int
	ExistingDates int
	MissingDates  []time.Time // ascending
}
