// Package usecase implements the stock directory and stock master sync.
package usecase

import (
	"context"

	"stockprice_backend/internal/feature/stocks/domain/entity"
)

// StockRepository abstracts read access to the stock directory.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockRepository interface {
	ListActive(ctx context.Context) ([]entity.Stock, error)
	CountActive(ctx context.Context) (int64, error)
}

// StocksUsecase provides read access to the active stock universe.
type StocksUsecase struct {
	repo StockRepository
}

// NewStocksUsecase creates a StocksUsecase.
func NewStocksUsecase(r StockRepository) *StocksUsecase {
	return &StocksUsecase{repo: r}
}

// ListActiveStocks returns all active stocks ordered by symbol.
func (u *StocksUsecase) ListActiveStocks(ctx context.Context) ([]entity.Stock, error) {
	return u.repo.ListActive(ctx)
}
