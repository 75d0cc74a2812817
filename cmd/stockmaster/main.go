package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stockprice_backend/internal/app/di"
	"stockprice_backend/internal/config"
	"stockprice_backend/internal/platform/logger"
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

	uc, err := di.NewMasterUsecase(cfg, infra)
	if err != nil {
		log.Fatal(err)
	}

	res, err := uc.Sync(ctx, cfg.ExchangeCode)
	if err != nil {
		slog.Error("stock master sync failed", "exchange", cfg.ExchangeCode, "error", err)
		infra.Close()
		os.Exit(1)
	}
	slog.Info("stock master sync completed", "exchange", cfg.ExchangeCode,
		"pages", res.Pages, "received", res.Received, "upserted", res.Upserted, "deactivated", res.Deactivated)
}
