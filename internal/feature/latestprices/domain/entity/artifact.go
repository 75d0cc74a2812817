// Package entity defines the latest-price snapshot exchanged between the fetch and seed steps.
package entity

import (
	"errors"
	"time"
)

// ArtifactSource labels artifacts produced from the Yahoo chart API.
const ArtifactSource = "Yahoo Finance"

// ReasonUnresolved is recorded for a stock no symbol variant could serve.
const ReasonUnresolved = "No valid Yahoo symbol found"

// LatestPrice is the newest daily session of one stock.
type LatestPrice struct {
	Symbol         string  `json:"symbol"`
	ProviderSymbol string  `json:"yahoo_symbol"`
	Exchange       string  `json:"exchange"`
	PriceDate      string  `json:"price_date"`
	Open           float64 `json:"open"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Close          float64 `json:"close"`
	Volume         int64   `json:"volume"`
}

// FailedSymbol is a stock the fetch step could not price.
type FailedSymbol struct {
	Symbol    string `json:"symbol"`
	Reason    string `json:"reason"`
	LastError string `json:"last_error,omitempty"`
}

// Artifact is the output of one fetch step. It is written even when every stock failed.
type Artifact struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	Source        string         `json:"source"`
	SuccessCount  int            `json:"success_count"`
	FailedCount   int            `json:"failed_count"`
	Prices        []LatestPrice  `json:"prices"`
	FailedSymbols []FailedSymbol `json:"failed_symbols"`
}

// SeedResult summarizes a seed step.
type SeedResult struct {
	Records  int `json:"records"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
}

// ErrIncompleteSession is returned when the newest session lacks open, high, low or close.
var ErrIncompleteSession = errors.New("incomplete latest session")

// ErrArtifactNotFound is returned when no artifact has been written yet.
var ErrArtifactNotFound = errors.New("latest price artifact not found")
