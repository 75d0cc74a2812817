package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stockprice_backend/internal/app/di"
	"stockprice_backend/internal/config"
	"stockprice_backend/internal/feature/backfill/domain/entity"
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

	uc, err := di.NewBackfillUsecase(cfg, infra, nil)
	if err != nil {
		log.Fatal(err)
	}

	stats, err := uc.Run(ctx)
	if errors.Is(err, entity.ErrRunInProgress) {
		slog.Info("backfill skipped, another run is in progress")
		return
	}
	if err != nil {
		slog.Error("backfill failed", append(stats.LogAttrs(), "error", err)...)
		infra.Close()
		os.Exit(1)
	}
}
