// Package dhan provides a client for the Dhan instrument screener used as the stock master list.
package dhan

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultBaseURL is the screener endpoint serving the all-stocks list.
const DefaultBaseURL = "https://ow-scanx-analytics.dhan.co/customscan/fetchdt"

// Config holds configuration for the Dhan client.
type Config struct {
	BaseURL  string        `envconfig:"DHAN_BASE_URL"`
	Timeout  time.Duration `envconfig:"DHAN_TIMEOUT"`
	PageSize int           `envconfig:"DHAN_PAGE_SIZE"`
	Exchange string        `envconfig:"DHAN_EXCHANGE"`
}

// LoadConfig loads the Dhan configuration from the environment on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		BaseURL:  DefaultBaseURL,
		Timeout:  20 * time.Second,
		PageSize: 50,
		Exchange: "NSE",
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
