// Package dto holds the JSON shapes of the price endpoints.
package dto

// PriceResponse is one daily candle as returned by the price endpoints.
type PriceResponse struct {
	Symbol    string  `json:"symbol"`
	Exchange  string  `json:"exchange"`
	PriceDate string  `json:"price_date"` // YYYY-MM-DD
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	Source    string  `json:"source"`
}

// MarketLatestResponse wraps the newest candle of every stock on an exchange.
type MarketLatestResponse struct {
	Exchange string          `json:"exchange"`
	Count    int             `json:"count"`
	Prices   []PriceResponse `json:"prices"`
}
