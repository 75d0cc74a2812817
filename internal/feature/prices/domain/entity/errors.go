package entity

import "errors"

var (
	// ErrExchangeNotFound is returned when an exchange code is not registered.
	ErrExchangeNotFound = errors.New("exchange not found")
	// ErrPriceNotFound is returned when no candle exists for the requested key.
	ErrPriceNotFound = errors.New("price not found")
	// ErrInvalidOHLC marks a candle that violates low <= min(open, close) and high >= max(open, close).
	ErrInvalidOHLC = errors.New("invalid OHLC")
	// ErrInvalidDateRange is returned when a query range ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrProviderMalformed is returned when a provider response cannot be decoded
	// or its series arrays are inconsistent.
	ErrProviderMalformed = errors.New("malformed provider response")
	// ErrProviderEmpty is returned when a provider response carries no time series.
	ErrProviderEmpty = errors.New("empty provider response")
)
