// Package entity defines the domain models for the prices feature.
package entity

import (
	"fmt"
	"time"
)

// SourceYahoo tags candles ingested from the Yahoo chart API.
const SourceYahoo = "YAHOO"

// Candle is one daily OHLCV session for a stock on an exchange.
// (Symbol, ExchangeID, Date) is the natural key.
type Candle struct {
	Symbol     string    // base stock symbol without provider suffix (e.g. "TCS")
	ExchangeID uint      // resolved exchange id
	Date       time.Time // session date, midnight UTC
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	Source     string
}

// Validate rejects candles whose high/low do not bound open and close.
func (c Candle) Validate() error {
	if c.High < max(c.Open, c.Close) || c.Low > min(c.Open, c.Close) {
		return fmt.Errorf("%w: %s %s o=%g h=%g l=%g c=%g",
			ErrInvalidOHLC, c.Symbol, c.Date.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close)
	}
	return nil
}

// Session is a single row of a provider time series. Nil fields were reported as null.
type Session struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
}

// Complete reports whether open, high, low and close are all present.
func (s Session) Complete() bool {
	return s.Open != nil && s.High != nil && s.Low != nil && s.Close != nil
}

// Candle converts a complete session into a Candle. A missing volume becomes 0.
func (s Session) Candle(symbol string, exchangeID uint, source string) Candle {
	var vol int64
	if s.Volume != nil {
		vol = *s.Volume
	}
	return Candle{
		Symbol:     symbol,
		ExchangeID: exchangeID,
		Date:       s.Date,
		Open:       *s.Open,
		High:       *s.High,
		Low:        *s.Low,
		Close:      *s.Close,
		Volume:     vol,
		Source:     source,
	}
}

// UpsertResult summarizes one transactional upsert batch.
type UpsertResult struct {
	Attempted int
	// Inserted counts rows written. For the no-overwrite policy this is only new rows.
	Inserted int
}

// StaleStock is a stock whose newest stored candle is older than a threshold.
type StaleStock struct {
	Symbol        string
	LastPriceDate time.Time
}

// ProviderSymbols expands a base symbol into the provider tickers to try, in order.
func ProviderSymbols(symbol string, suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, symbol+s)
	}
	return out
}
