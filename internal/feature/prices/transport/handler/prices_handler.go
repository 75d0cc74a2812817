// Package handler provides the HTTP handlers of the prices feature.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/feature/prices/transport/http/dto"
	"stockprice_backend/internal/feature/prices/usecase"
	"stockprice_backend/internal/shared/tradingcal"
)

// PricesUsecase is the read path the handler depends on.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type PricesUsecase interface {
	Latest(ctx context.Context, exchangeCode, symbol string) (entity.Candle, error)
	History(ctx context.Context, exchangeCode, symbol string, from, to time.Time) ([]entity.Candle, error)
	MarketLatest(ctx context.Context, exchangeCode string) ([]entity.Candle, error)
}

// PricesHandler serves the price endpoints.
type PricesHandler struct {
	uc              PricesUsecase
	defaultExchange string
}

// NewPricesHandler creates a PricesHandler. Requests without ?exchange= use defaultExchange.
func NewPricesHandler(uc PricesUsecase, defaultExchange string) *PricesHandler {
	return &PricesHandler{uc: uc, defaultExchange: usecase.NormalizeExchange(defaultExchange)}
}

// Latest returns the newest candle of a stock.
//
// GET /api/stocks/:symbol/latest?exchange=NSE
func (h *PricesHandler) Latest(c *gin.Context) {
	exchange := h.exchange(c.Query("exchange"))
	symbol := strings.ToUpper(c.Param("symbol"))

	price, err := h.uc.Latest(c.Request.Context(), exchange, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(price, exchange))
}

// History returns the candles of a stock between from and to, both inclusive.
//
// GET /api/stocks/:symbol/prices?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *PricesHandler) History(c *gin.Context) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "from and to dates are required"})
		return
	}
	from, err := tradingcal.ParseDate(fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "from must be YYYY-MM-DD"})
		return
	}
	to, err := tradingcal.ParseDate(toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "to must be YYYY-MM-DD"})
		return
	}

	exchange := h.exchange(c.Query("exchange"))
	symbol := strings.ToUpper(c.Param("symbol"))

	prices, err := h.uc.History(c.Request.Context(), exchange, symbol, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.PriceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toResponse(p, exchange))
	}
	c.JSON(http.StatusOK, out)
}

// MarketLatest returns the newest candle of every stock on an exchange.
//
// GET /api/markets/:exchange/latest
func (h *PricesHandler) MarketLatest(c *gin.Context) {
	exchange := h.exchange(c.Param("exchange"))

	prices, err := h.uc.MarketLatest(c.Request.Context(), exchange)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.PriceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toResponse(p, exchange))
	}
	c.JSON(http.StatusOK, dto.MarketLatestResponse{Exchange: exchange, Count: len(out), Prices: out})
}

func (h *PricesHandler) exchange(code string) string {
	if strings.TrimSpace(code) == "" {
		return h.defaultExchange
	}
	return usecase.NormalizeExchange(code)
}

func toResponse(p entity.Candle, exchange string) dto.PriceResponse {
	source := p.Source
	if source == "" {
		source = entity.SourceYahoo
	}
	return dto.PriceResponse{
		Symbol:    p.Symbol,
		Exchange:  exchange,
		PriceDate: tradingcal.FormatDate(p.Date),
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
		Source:    source,
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrPriceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Price not found"})
	case errors.Is(err, entity.ErrExchangeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Exchange not found"})
	case errors.Is(err, entity.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
