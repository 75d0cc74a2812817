// Package entity defines the domain models for the stocks feature.
package entity

import (
	"errors"
	"time"
)

// Stock is a listed equity tracked by the price pipeline.
type Stock struct {
	Symbol     string
	Name       string
	ISIN       string
	Active     bool
	ListedDate *time.Time // nil when the listing date is unknown
}

// MasterRecord is one equity from the broker's instrument master list.
type MasterRecord struct {
	Symbol      string
	CompanyName string
	Exchange    string
	ISIN        string
	Segment     string
	Instrument  string
	DhanID      string
	Slug        string
}

// SyncResult summarizes a stock master sync.
type SyncResult struct {
	Pages       int
	Received    int // equity records kept after filtering and de-duplication
	Upserted    int
	Deactivated int
}

// ErrEmptyMaster is returned when a sync would run on an empty master list.
// Syncing it would mark every stock inactive.
var ErrEmptyMaster = errors.New("stock master list is empty")
