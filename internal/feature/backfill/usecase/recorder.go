package usecase

import (
	"time"

	"stockprice_backend/internal/feature/backfill/domain/entity"
)

// Run outcomes reported to the Recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeDeadline  = "deadline_exceeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Recorder receives run and fetch telemetry.
type Recorder interface {
	FetchFailed(kind string)
	RunFinished(outcome string, stats entity.Stats, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) FetchFailed(string) {}
func (nopRecorder) RunFinished(string, entity.Stats, time.Duration) {}
