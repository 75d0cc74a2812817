// Package usecase implements the read path over stored daily prices.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockprice_backend/internal/feature/prices/domain/entity"
)

// DefaultExchangeCode is used when a request does not name an exchange.
const DefaultExchangeCode = "NSE"

// PriceRepository abstracts the candle store for reads.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceRepository interface {
	Latest(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error)
	History(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]entity.Candle, error)
	MarketLatest(ctx context.Context, exchangeID uint) ([]entity.Candle, error)
}

// ExchangeRepository resolves exchange codes to ids.
type ExchangeRepository interface {
	ResolveExchangeID(ctx context.Context, code string) (uint, error)
}

// PricesUsecase serves latest, historical and market-wide price reads.
type PricesUsecase struct {
	prices    PriceRepository
	exchanges ExchangeRepository
}

// NewPricesUsecase creates a PricesUsecase.
func NewPricesUsecase(prices PriceRepository, exchanges ExchangeRepository) *PricesUsecase {
	return &PricesUsecase{prices: prices, exchanges: exchanges}
}

// NormalizeExchange upper-cases code and falls back to DefaultExchangeCode.
func NormalizeExchange(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultExchangeCode
	}
	return code
}

// Latest returns the newest candle for symbol on the exchange.
func (u *PricesUsecase) Latest(ctx context.Context, exchangeCode, symbol string) (entity.Candle, error) {
	id, err := u.exchanges.ResolveExchangeID(ctx, NormalizeExchange(exchangeCode))
	if err != nil {
		return entity.Candle{}, err
	}
	return u.prices.Latest(ctx, strings.ToUpper(symbol), id)
}

// History returns the candles of symbol within [from, to] in ascending date order.
func (u *PricesUsecase) History(ctx context.Context, exchangeCode, symbol string, from, to time.Time) ([]entity.Candle, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is before %s", entity.ErrInvalidDateRange,
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	id, err := u.exchanges.ResolveExchangeID(ctx, NormalizeExchange(exchangeCode))
	if err != nil {
		return nil, err
	}
	return u.prices.History(ctx, strings.ToUpper(symbol), id, from, to)
}

// MarketLatest returns one newest candle per stock listed on the exchange.
func (u *PricesUsecase) MarketLatest(ctx context.Context, exchangeCode string) ([]entity.Candle, error) {
	id, err := u.exchanges.ResolveExchangeID(ctx, NormalizeExchange(exchangeCode))
	if err != nil {
		return nil, err
	}
	return u.prices.MarketLatest(ctx, id)
}
