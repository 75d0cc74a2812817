// Package config loads the application settings: defaults, then an optional YAML
// file named by CONFIG_FILE, then environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Port         string `yaml:"port" envconfig:"PORT"`
	LogLevel     string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	JWTSecret    string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	ExchangeCode string `yaml:"exchange_code" envconfig:"EXCHANGE_CODE"`

	Backfill  Backfill  `yaml:"backfill" envconfig:"BACKFILL"`
	Latest    Latest    `yaml:"latest" envconfig:"LATEST"`
	Provider  Provider  `yaml:"provider" envconfig:"PROVIDER"`
	Retry     Retry     `yaml:"retry" envconfig:"RETRY"`
	Master    Master    `yaml:"master" envconfig:"MASTER"`
	Health    Health    `yaml:"health" envconfig:"HEALTH"`
	Cache     Cache     `yaml:"cache" envconfig:"CACHE"`
	Scheduler Scheduler `yaml:"scheduler" envconfig:"SCHEDULER"`
}

// Backfill configures historical gap filling.
type Backfill struct {
	RetentionYears int           `yaml:"retention_years" envconfig:"RETENTION_YEARS"`
	Workers        int           `yaml:"workers" envconfig:"WORKERS"`
	RunTimeout     time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT"`
	VariantTimeout time.Duration `yaml:"variant_timeout" envconfig:"VARIANT_TIMEOUT"`
	Variants       []string      `yaml:"variants" envconfig:"VARIANTS"`
	LockTTL        time.Duration `yaml:"lock_ttl" envconfig:"LOCK_TTL"`
}

// Latest configures the latest-price fetch and seed.
type Latest struct {
	Variants     []string      `yaml:"variants" envconfig:"VARIANTS"`
	Range        string        `yaml:"range" envconfig:"RANGE"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	Workers      int           `yaml:"workers" envconfig:"WORKERS"`
	ArtifactPath string        `yaml:"artifact_path" envconfig:"ARTIFACT_PATH"`
}

// Provider paces calls to the price provider across all workers.
type Provider struct {
	RateLimit    int           `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	RateInterval time.Duration `yaml:"rate_interval" envconfig:"RATE_INTERVAL"`
}

// Retry is the bounded retry policy for transient provider failures.
type Retry struct {
	Attempts int           `yaml:"attempts" envconfig:"ATTEMPTS"`
	Unit     time.Duration `yaml:"unit" envconfig:"UNIT"`
}

// Master configures the stock master sync.
type Master struct {
	PagePause time.Duration `yaml:"page_pause" envconfig:"PAGE_PAUSE"`
	MaxPages  int           `yaml:"max_pages" envconfig:"MAX_PAGES"`
}

// Health holds the market health endpoint defaults.
type Health struct {
	StaleDays int `yaml:"stale_days" envconfig:"STALE_DAYS"`
}

// Cache configures the price read cache. RefreshAt is "HH:MM" in Location.
type Cache struct {
	TTL       time.Duration `yaml:"ttl" envconfig:"TTL"`
	RefreshAt string        `yaml:"refresh_at" envconfig:"REFRESH_AT"`
	Location  string        `yaml:"location" envconfig:"LOCATION"`
}

// Scheduler configures the in-process cron jobs. Specs are standard 5-field cron expressions.
type Scheduler struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	Location     string `yaml:"location" envconfig:"LOCATION"`
	BackfillCron string `yaml:"backfill_cron" envconfig:"BACKFILL_CRON"`
	LatestCron   string `yaml:"latest_cron" envconfig:"LATEST_CRON"`
	MasterCron   string `yaml:"master_cron" envconfig:"MASTER_CRON"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:         "8080",
		LogLevel:     "info",
		ExchangeCode: "NSE",
		Backfill: Backfill{
			RetentionYears: 5,
			Workers:        4,
			RunTimeout:     2 * time.Hour,
			VariantTimeout: 15 * time.Second,
			Variants:       []string{".NS", "-SM.NS", "-E1.NS"},
		},
		Latest: Latest{
			Variants:     []string{".NS", "-SM.NS", "-E1.NS", "-E2.NS"},
			Range:        "5d",
			Timeout:      10 * time.Second,
			Workers:      4,
			ArtifactPath: "data/yahoo_latest_prices.json",
		},
		Provider: Provider{RateLimit: 5, RateInterval: time.Second},
		Retry:    Retry{Attempts: 3, Unit: 2 * time.Second},
		Master:   Master{PagePause: time.Second},
		Health:   Health{StaleDays: 2},
		Cache:    Cache{TTL: 6 * time.Hour, RefreshAt: "18:30", Location: "Asia/Kolkata"},
		Scheduler: Scheduler{
			Location:     "Asia/Kolkata",
			BackfillCron: "30 19 * * 1-5",
			LatestCron:   "0 18 * * 1-5",
			MasterCron:   "0 7 * * 1",
		},
	}
}

// Load builds the configuration. A CONFIG_FILE that cannot be read is an error.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Backfill.RetentionYears < 1:
		return fmt.Errorf("backfill.retention_years must be at least 1, got %d", c.Backfill.RetentionYears)
	case c.Backfill.Workers < 1:
		return fmt.Errorf("backfill.workers must be at least 1, got %d", c.Backfill.Workers)
	case c.Latest.Workers < 1:
		return fmt.Errorf("latest.workers must be at least 1, got %d", c.Latest.Workers)
	case c.Retry.Attempts < 1:
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	case c.Health.StaleDays < 0:
		return fmt.Errorf("health.stale_days must not be negative, got %d", c.Health.StaleDays)
	}
	if _, _, err := c.Cache.RefreshClock(); err != nil {
		return err
	}
	return nil
}

// RefreshClock parses RefreshAt. An empty value disables the daily cap.
func (c Cache) RefreshClock() (hour, minute int, err error) {
	if c.RefreshAt == "" {
		return -1, -1, nil
	}
	t, err := time.Parse("15:04", c.RefreshAt)
	if err != nil {
		return 0, 0, fmt.Errorf("cache.refresh_at %q: want HH:MM", c.RefreshAt)
	}
	return t.Hour(), t.Minute(), nil
}
