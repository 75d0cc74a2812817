package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockprice_backend/internal/app/di"
	"stockprice_backend/internal/app/router"
	"stockprice_backend/internal/app/scheduler"
	"stockprice_backend/internal/config"
	healthhandler "stockprice_backend/internal/feature/markethealth/transport/handler"
	priceshandler "stockprice_backend/internal/feature/prices/transport/handler"
	stockshandler "stockprice_backend/internal/feature/stocks/transport/handler"
	platformhandler "stockprice_backend/internal/platform/http/handler"
	"stockprice_backend/internal/platform/logger"
	"stockprice_backend/internal/platform/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := di.NewInfra(ctx)
	if err != nil {
		log.Fatal("failed to connect: ", err)
	}
	defer infra.Close()

	metricsCfg, err := metrics.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	registry := metrics.New(metricsCfg)

	// Usecase
	read, err := di.NewReadUsecases(cfg, infra)
	if err != nil {
		log.Fatal(err)
	}

	// Handler
	checks := map[string]platformhandler.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := infra.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if infra.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return infra.Redis.Ping(ctx).Err() }
	}
	handlers := router.Handlers{
		Health:       platformhandler.NewHealthHandler(checks),
		Prices:       priceshandler.NewPricesHandler(read.Prices, cfg.ExchangeCode),
		Stocks:       stockshandler.NewStockHandler(read.Stocks),
		MarketHealth: healthhandler.NewMarketHealthHandler(read.MarketHealth, cfg.ExchangeCode, cfg.Health.StaleDays),
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, admin endpoints will reject every request")
	}

	if cfg.Scheduler.Enabled {
		sched, err := newScheduler(ctx, cfg, infra, registry)
		if err != nil {
			log.Fatal(err)
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(handlers, cfg.JWTSecret, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newScheduler(ctx context.Context, cfg config.Config, infra *di.Infra, registry *metrics.Registry) (*scheduler.Scheduler, error) {
	backfill, err := di.NewBackfillUsecase(cfg, infra, registry)
	if err != nil {
		return nil, err
	}
	latest, err := di.NewLatestPricesUsecase(cfg, infra)
	if err != nil {
		return nil, err
	}
	master, err := di.NewMasterUsecase(cfg, infra)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Scheduler.Location)
	if err != nil {
		return nil, err
	}
	return scheduler.New(ctx, loc,
		scheduler.Jobs{Backfill: backfill, Latest: latest, Master: master, ExchangeCode: cfg.ExchangeCode},
		scheduler.Specs{Backfill: cfg.Scheduler.BackfillCron, Latest: cfg.Scheduler.LatestCron, Master: cfg.Scheduler.MasterCron},
	)
}
