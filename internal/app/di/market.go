// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"

	"stockprice_backend/internal/config"
	"stockprice_backend/internal/platform/externalapi/dhan"
	"stockprice_backend/internal/platform/externalapi/yahoo"
	platformhttp "stockprice_backend/internal/platform/http"
	"stockprice_backend/internal/shared/ratelimiter"
)

// NewYahooClient creates a fully configured Yahoo chart client.
func NewYahooClient() (*yahoo.Client, error) {
	cfg, err := yahoo.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load yahoo config: %w", err)
	}
	return yahoo.NewClient(cfg, platformhttp.NewHTTPClient(cfg.Timeout, cfg.UserAgent)), nil
}

// NewDhanClient creates a fully configured Dhan screener client.
func NewDhanClient() (*dhan.Client, error) {
	cfg, err := dhan.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load dhan config: %w", err)
	}
	return dhan.NewClient(cfg, platformhttp.NewHTTPClient(cfg.Timeout, "")), nil
}

// NewProviderLimiter paces provider calls shared by every worker. A limit below 1 disables pacing.
func NewProviderLimiter(cfg config.Provider) *ratelimiter.RateLimiter {
	return ratelimiter.NewRateLimiter(cfg.RateLimit, cfg.RateInterval)
}
