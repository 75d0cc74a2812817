// Package handler provides the HTTP handlers of the stocks feature.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/feature/stocks/transport/http/dto"
	"stockprice_backend/internal/shared/tradingcal"
)

// StocksUsecase lists the stock universe.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type StocksUsecase interface {
	ListActiveStocks(ctx context.Context) ([]entity.Stock, error)
}

// StockHandler serves the stock directory.
type StockHandler struct {
	uc StocksUsecase
}

// NewStockHandler creates a StockHandler.
func NewStockHandler(uc StocksUsecase) *StockHandler {
	return &StockHandler{uc: uc}
}

// List returns the active stocks.
//
// GET /api/stocks
func (h *StockHandler) List(c *gin.Context) {
	stocks, err := h.uc.ListActiveStocks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.StockItem, 0, len(stocks))
	for _, s := range stocks {
		item := dto.StockItem{Symbol: s.Symbol, Name: s.Name, ISIN: s.ISIN}
		if s.ListedDate != nil {
			item.ListedDate = tradingcal.FormatDate(*s.ListedDate)
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}
