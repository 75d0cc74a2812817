// Package dto defines the JSON shape of the market health endpoint.
package dto

// StaleStock is a stock whose newest candle is older than the threshold.
type StaleStock struct {
	Symbol        string `json:"symbol"`
	LastPriceDate string `json:"lastPriceDate"`
}

// MarketHealthResponse is the snapshot of an exchange with price data.
type MarketHealthResponse struct {
	Exchange           string       `json:"exchange"`
	LatestTradingDate  string       `json:"latestTradingDate"`
	ActiveStocks       int64        `json:"activeStocks"`
	StocksWithPrices   int64        `json:"stocksWithPrices"`
	CoveragePercent    float64      `json:"coveragePercent"`
	StaleThresholdDays int          `json:"staleThresholdDays"`
	StaleCount         int          `json:"staleCount"`
	StaleStocks        []StaleStock `json:"staleStocks"`
	Status             string       `json:"status"`
}

// NoDataResponse is returned while the exchange has no candles at all.
type NoDataResponse struct {
	Exchange string `json:"exchange"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}
