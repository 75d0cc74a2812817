// Package router assembles the HTTP routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	healthhandler "stockprice_backend/internal/feature/markethealth/transport/handler"
	priceshandler "stockprice_backend/internal/feature/prices/transport/handler"
	stockshandler "stockprice_backend/internal/feature/stocks/transport/handler"
	platformhandler "stockprice_backend/internal/platform/http/handler"
	jwtmw "stockprice_backend/internal/platform/jwt"
)

// Instrumentation is the HTTP metrics middleware and exposition handler.
type Instrumentation interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
}

// Handlers groups the endpoint handlers.
type Handlers struct {
	Health       *platformhandler.HealthHandler
	Prices       *priceshandler.PricesHandler
	Stocks       *stockshandler.StockHandler
	MarketHealth *healthhandler.MarketHealthHandler
}

// NewRouter builds the engine. metrics may be nil.
func NewRouter(h Handlers, jwtSecret string, metrics Instrumentation) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if metrics != nil {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// no auth
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	api := r.Group("/api")
	{
		api.GET("/stocks", h.Stocks.List)
		api.GET("/stocks/:symbol/latest", h.Prices.Latest)
		api.GET("/stocks/:symbol/prices", h.Prices.History)
		api.GET("/markets/:exchange/latest", h.Prices.MarketLatest)
	}

	admin := r.Group("/api/admin")
	admin.Use(jwtmw.AuthRequired(jwtSecret, jwtmw.RoleAdmin))
	{
		admin.GET("/health/market", h.MarketHealth.MarketHealth)
	}

	return r
}
