// Package handler provides the admin market health endpoint.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockprice_backend/internal/feature/markethealth/domain/entity"
	"stockprice_backend/internal/feature/markethealth/transport/http/dto"
	"stockprice_backend/internal/feature/markethealth/usecase"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
	pricesusecase "stockprice_backend/internal/feature/prices/usecase"
	"stockprice_backend/internal/shared/tradingcal"
)

// MarketHealthUsecase computes snapshots.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type MarketHealthUsecase interface {
	Snapshot(ctx context.Context, exchangeCode string, staleDays int) (entity.Snapshot, error)
}

// MarketHealthHandler serves the market health endpoint.
type MarketHealthHandler struct {
	uc               MarketHealthUsecase
	defaultExchange  string
	defaultStaleDays int
}

// NewMarketHealthHandler creates a MarketHealthHandler.
func NewMarketHealthHandler(uc MarketHealthUsecase, defaultExchange string, defaultStaleDays int) *MarketHealthHandler {
	return &MarketHealthHandler{
		uc:               uc,
		defaultExchange:  pricesusecase.NormalizeExchange(defaultExchange),
		defaultStaleDays: defaultStaleDays,
	}
}

// MarketHealth reports coverage and staleness of the price history.
//
// GET /api/admin/health/market?exchange=NSE&staleDays=2
func (h *MarketHealthHandler) MarketHealth(c *gin.Context) {
	exchange := h.defaultExchange
	if q := c.Query("exchange"); q != "" {
		exchange = pricesusecase.NormalizeExchange(q)
	}

	staleDays := h.defaultStaleDays
	if q := c.Query("staleDays"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": usecase.ErrInvalidStaleDays.Error()})
			return
		}
		staleDays = n
	}

	snap, err := h.uc.Snapshot(c.Request.Context(), exchange, staleDays)
	if err != nil {
		switch {
		case errors.Is(err, prices.ErrExchangeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Exchange not found"})
		case errors.Is(err, usecase.ErrInvalidStaleDays):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			slog.Error("market health check failed", "exchange", exchange, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if snap.Status == entity.StatusNoData {
		c.JSON(http.StatusOK, dto.NoDataResponse{
			Exchange: snap.Exchange,
			Status:   string(entity.StatusNoData),
			Message:  "No price data available",
		})
		return
	}
	c.JSON(http.StatusOK, toResponse(snap))
}

func toResponse(s entity.Snapshot) dto.MarketHealthResponse {
	stale := make([]dto.StaleStock, 0, len(s.StaleStocks))
	for _, st := range s.StaleStocks {
		stale = append(stale, dto.StaleStock{Symbol: st.Symbol, LastPriceDate: tradingcal.FormatDate(st.LastPriceDate)})
	}
	return dto.MarketHealthResponse{
		Exchange:           s.Exchange,
		LatestTradingDate:  tradingcal.FormatDate(s.LatestTradingDate),
		ActiveStocks:       s.ActiveStocks,
		StocksWithPrices:   s.StocksWithPrices,
		CoveragePercent:    s.CoveragePercent.InexactFloat64(),
		StaleThresholdDays: s.StaleThresholdDays,
		StaleCount:         len(stale),
		StaleStocks:        stale,
		Status:             string(s.Status),
	}
}
