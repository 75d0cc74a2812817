// Package yahoo provides a client for the Yahoo Finance chart API.
package yahoo

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultBaseURL is the public v8 chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Config holds configuration for the Yahoo chart client.
type Config struct {
	BaseURL   string        `envconfig:"YAHOO_BASE_URL"`
	Timeout   time.Duration `envconfig:"YAHOO_TIMEOUT"`
	UserAgent string        `envconfig:"YAHOO_USER_AGENT"`
}

// LoadConfig loads the Yahoo configuration from the environment on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   20 * time.Second,
		UserAgent: "Mozilla/5.0",
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
