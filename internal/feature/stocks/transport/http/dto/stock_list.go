// Package dto defines data transfer objects for the stocks HTTP API.
package dto

// StockItem is a stock in the list response.
type StockItem struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	ISIN       string `json:"isin,omitempty"`
	ListedDate string `json:"listed_date,omitempty"`
}
