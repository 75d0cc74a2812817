// Package scheduler runs the ingestion jobs on cron schedules inside the server process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	backfillentity "stockprice_backend/internal/feature/backfill/domain/entity"
	latestentity "stockprice_backend/internal/feature/latestprices/domain/entity"
	stocksentity "stockprice_backend/internal/feature/stocks/domain/entity"
)

// Backfiller runs one historical backfill.
type Backfiller interface {
	Run(ctx context.Context) (backfillentity.Stats, error)
}

// LatestIngester fetches and seeds the latest prices.
type LatestIngester interface {
	Fetch(ctx context.Context) (latestentity.Artifact, error)
	Seed(ctx context.Context) (latestentity.SeedResult, error)
}

// MasterSyncer refreshes the stock directory.
type MasterSyncer interface {
	Sync(ctx context.Context, exchangeCode string) (stocksentity.SyncResult, error)
}

// Jobs are the work units the scheduler can run. Nil jobs are not scheduled.
type Jobs struct {
	Backfill     Backfiller
	Latest       LatestIngester
	Master       MasterSyncer
	ExchangeCode string
}

// Specs are 5-field cron expressions. Empty specs are not scheduled.
type Specs struct {
	Backfill string
	Latest   string
	Master   string
}

// Scheduler manages the scheduled jobs.
type Scheduler struct {
	cron *gocron.Scheduler
	jobs Jobs
	ctx  context.Context
}

// New creates a Scheduler evaluating specs in loc. Jobs run with ctx, so cancelling
// it stops in-flight work.
func New(ctx context.Context, loc *time.Location, jobs Jobs, specs Specs) (*Scheduler, error) {
	s := &Scheduler{cron: gocron.NewScheduler(loc), jobs: jobs, ctx: ctx}
	// a run still in flight when its next tick fires is not started twice
	s.cron.SingletonModeAll()

	add := func(name, spec string, fn func()) error {
		if spec == "" {
			return nil
		}
		if _, err := s.cron.Cron(spec).Tag(name).Do(fn); err != nil {
			return fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		slog.Info("job scheduled", "job", name, "cron", spec)
		return nil
	}

	if jobs.Backfill != nil {
		if err := add("backfill", specs.Backfill, s.runBackfill); err != nil {
			return nil, err
		}
	}
	if jobs.Latest != nil {
		if err := add("latest", specs.Latest, s.runLatest); err != nil {
			return nil, err
		}
	}
	if jobs.Master != nil {
		if err := add("master", specs.Master, s.runMaster); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	slog.Info("scheduler started", "jobs", len(s.cron.Jobs()))
}

// Stop stops scheduling new runs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) runBackfill() {
	stats, err := s.jobs.Backfill.Run(s.ctx)
	switch {
	case errors.Is(err, backfillentity.ErrRunInProgress):
		slog.Info("scheduled backfill skipped, another run holds the lock")
	case err != nil:
		slog.Error("scheduled backfill failed", append(stats.LogAttrs(), "error", err)...)
	}
}

func (s *Scheduler) runLatest() {
	artifact, err := s.jobs.Latest.Fetch(s.ctx)
	if err != nil {
		slog.Error("scheduled latest price fetch failed", "error", err)
		return
	}
	if artifact.SuccessCount == 0 {
		slog.Warn("scheduled latest price fetch returned nothing, seed skipped", "failed", artifact.FailedCount)
		return
	}
	res, err := s.jobs.Latest.Seed(s.ctx)
	if err != nil {
		slog.Error("scheduled latest price seed failed", "error", err)
		return
	}
	slog.Info("scheduled latest price ingest completed",
		"fetched", artifact.SuccessCount, "upserted", res.Upserted, "skipped", res.Skipped)
}

func (s *Scheduler) runMaster() {
	res, err := s.jobs.Master.Sync(s.ctx, s.jobs.ExchangeCode)
	if err != nil {
		slog.Error("scheduled stock master sync failed", "exchange", s.jobs.ExchangeCode, "error", err)
		return
	}
	slog.Info("scheduled stock master sync completed",
		"pages", res.Pages, "received", res.Received, "upserted", res.Upserted, "deactivated", res.Deactivated)
}
