package main

import (
	"context"
	"flag"
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
	mode := flag.String("mode", "all", "fetch, seed or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	doFetch := *mode == "fetch" || *mode == "all"
	doSeed := *mode == "seed" || *mode == "all"
	if !doFetch && !doSeed {
		log.Fatalf("unknown -mode %q: want fetch, seed or all", *mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := di.NewInfra(ctx)
	if err != nil {
		log.Fatal("failed to connect: ", err)
	}
	defer infra.Close()

	uc, err := di.NewLatestPricesUsecase(cfg, infra)
	if err != nil {
		log.Fatal(err)
	}

	if doFetch {
		artifact, err := uc.Fetch(ctx)
		if err != nil {
			slog.Error("latest price fetch failed", "error", err)
			infra.Close()
			os.Exit(1)
		}
		slog.Info("latest price fetch completed",
			"success", artifact.SuccessCount, "failed", artifact.FailedCount, "artifact", cfg.Latest.ArtifactPath)
	}

	if doSeed {
		res, err := uc.Seed(ctx)
		if err != nil {
			slog.Error("latest price seed failed", "error", err)
			infra.Close()
			os.Exit(1)
		}
		slog.Info("latest price seed completed", "records", res.Records, "upserted", res.Upserted, "skipped", res.Skipped)
	}
}
