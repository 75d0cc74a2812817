// Package db opens the PostgreSQL connection pool and migrates the schema.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pricesadapters "stockprice_backend/internal/feature/prices/adapters"
	stocksadapters "stockprice_backend/internal/feature/stocks/adapters"
)

// Config holds the connection settings read from the environment.
type Config struct {
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          string `envconfig:"DB_PORT" default:"5432"`
	User          string `envconfig:"DB_USER" default:"postgres"`
	Password      string `envconfig:"DB_PASSWORD"`
	Name          string `envconfig:"DB_NAME" default:"stockprice"`
	SSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns  int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
}

// LoadConfigFromEnv reads Config from DB_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load db config: %w", err)
	}
	return cfg, nil
}

// BuildDSN renders cfg as a postgres:// URL.
func BuildDSN(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// Opener opens a gorm handle for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// OpenPostgres opens dsn through the pgx stdlib driver and hands the pool to gorm.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connCfg)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

// ConnectWithRetry calls opener every interval until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retryIn", interval)
		time.Sleep(interval)
	}
}

// Open connects with cfg, retrying for up to a minute, and migrates when RunMigrations is set.
func Open(ctx context.Context, cfg Config) (*gorm.DB, error) {
	gdb, err := ConnectWithRetry(BuildDSN(cfg), 60*time.Second, 3*time.Second, OpenPostgres)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := gdb.DB(); err == nil && cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.RunMigrations {
		if err := Migrate(ctx, gdb); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

// DefaultExchanges are registered by Migrate.
var DefaultExchanges = map[string]string{
	"NSE": "National Stock Exchange of India",
}

// Migrate creates the schema and registers DefaultExchanges.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	if err := gdb.WithContext(ctx).AutoMigrate(
		&pricesadapters.ExchangeModel{},
		&stocksadapters.StockModel{},
		&stocksadapters.StockExchangeModel{},
		&pricesadapters.PriceModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	exchanges := pricesadapters.NewExchangeRepository(gdb)
	for code, name := range DefaultExchanges {
		if _, err := exchanges.Ensure(ctx, code, name); err != nil {
			return err
		}
	}
	return nil
}
