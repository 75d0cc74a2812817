package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prices "stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/shared/tradingcal"
)

type mockDateReader struct {
	ExistingDatesFunc func(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error)
}

func (m *mockDateReader) ExistingDates(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error) {
	return m.ExistingDatesFunc(ctx, symbol, exchangeID, from, to)
}

func TestGapDetector_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    string
		end      string
		existing []string
		missing  []string
	}{
		{
			name:    "success: nothing stored",
			start:   "2026-01-05",
			end:     "2026-01-09",
			missing: []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"},
		},
		{
			name:     "success: fully covered",
			start:    "2026-01-05",
			end:      "2026-01-09",
			existing: []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"},
			missing:  []string{},
		},
		{
			name:     "success: holes across a weekend",
			start:    "2026-01-08",
			end:      "2026-01-13",
			existing: []string{"2026-01-08", "2026-01-12"},
			missing:  []string{"2026-01-09", "2026-01-13"},
		},
		{
			name:     "edge case: stored weekend row is not counted",
			start:    "2026-01-09",
			end:      "2026-01-12",
			existing: []string{"2026-01-10"},
			missing:  []string{"2026-01-09", "2026-01-12"},
		},
		{
			name:    "edge case: weekend-only window",
			start:   "2026-01-10",
			end:     "2026-01-11",
			missing: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reader := &mockDateReader{ExistingDatesFunc: func(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error) {
				assert.Equal(t, "TCS", symbol)
				assert.Equal(t, uint(3), exchangeID)
				out := make([]time.Time, 0, len(tt.existing))
				for _, s := range tt.existing {
					out = append(out, mustDay(s))
				}
				return out, nil
			}}

			got, err := NewGapDetector(reader).Detect(context.Background(), "TCS", 3, mustDay(tt.start), mustDay(tt.end))

			require.NoError(t, err)
			formatted := make([]string, 0, len(got.MissingDates))
			for _, d := range got.MissingDates {
				formatted = append(formatted, tradingcal.FormatDate(d))
			}
			assert.Equal(t, tt.missing, formatted)
			assert.Equal(t, got.ExpectedDates, got.ExistingDates+len(got.MissingDates))
		})
	}
}

// TestGapDetector_DetectIsSetDifference stores an irregular subset of a window and
// checks that exactly the complement is reported missing.
func TestGapDetector_DetectIsSetDifference(t *testing.T) {
	t.Parallel()

	start, end := mustDay("2025-03-03"), mustDay("2025-08-29")
	window := tradingcal.Dates(start, end)

	store := newMemStore()
	stored := map[time.Time]bool{}
	var batch []prices.Candle
	for i, d := range window {
		if i%3 == 0 || i%5 == 1 {
			batch = append(batch, prices.Candle{Symbol: "INFY", ExchangeID: 1, Date: d, Open: 1, High: 1, Low: 1, Close: 1})
			stored[d] = true
		}
	}
	_, err := store.UpsertNoOverwrite(context.Background(), batch)
	require.NoError(t, err)

	got, err := NewGapDetector(store).Detect(context.Background(), "INFY", 1, start, end)

	require.NoError(t, err)
	assert.Equal(t, len(window), got.ExpectedDates)
	assert.Equal(t, len(batch), got.ExistingDates)
	require.Len(t, got.MissingDates, len(window)-len(batch))
	for i, d := range got.MissingDates {
		assert.False(t, stored[d], "%s is stored", tradingcal.FormatDate(d))
		if i > 0 {
			assert.True(t, d.After(got.MissingDates[i-1]))
		}
	}
}

func TestGapDetector_Detect_StorageError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection reset")
	reader := &mockDateReader{ExistingDatesFunc: func(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error) {
		return nil, wantErr
	}}

	_, err := NewGapDetector(reader).Detect(context.Background(), "TCS", 1, mustDay("2026-01-05"), mustDay("2026-01-09"))

	assert.ErrorIs(t, err, wantErr)
}
