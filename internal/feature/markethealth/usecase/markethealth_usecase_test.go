package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockprice_backend/internal/feature/markethealth/domain/entity"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
)

type mockHealthRepository struct {
	LatestTradingDateFunc func(ctx context.Context, exchangeID uint) (time.Time, bool, error)
	CoverageCountFunc     func(ctx context.Context, exchangeID uint, date time.Time) (int64, error)
	StaleStocksFunc       func(ctx context.Context, exchangeID uint, cutoff time.Time) ([]prices.StaleStock, error)
}

func (m *mockHealthRepository) LatestTradingDate(ctx context.Context, exchangeID uint) (time.Time, bool, error) {
	return m.LatestTradingDateFunc(ctx, exchangeID)
}

func (m *mockHealthRepository) CoverageCount(ctx context.Context, exchangeID uint, date time.Time) (int64, error) {
	return m.CoverageCountFunc(ctx, exchangeID, date)
}

func (m *mockHealthRepository) StaleStocks(ctx context.Context, exchangeID uint, cutoff time.Time) ([]prices.StaleStock, error) {
	return m.StaleStocksFunc(ctx, exchangeID, cutoff)
}

type mockActiveCounter struct {
	n   int64
	err error
}

func (m *mockActiveCounter) CountActive(ctx context.Context) (int64, error) {
	return m.n, m.err
}

type mockExchangeResolver struct {
	err error
}

func (m *mockExchangeResolver) ResolveExchangeID(ctx context.Context, code string) (uint, error) {
	return 4, m.err
}

var latest = time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

func healthRepo(covered int64, stale []prices.StaleStock) *mockHealthRepository {
	return &mockHealthRepository{
		LatestTradingDateFunc: func(ctx context.Context, exchangeID uint) (time.Time, bool, error) {
			return latest, true, nil
		},
		CoverageCountFunc: func(ctx context.Context, exchangeID uint, date time.Time) (int64, error) {
			return covered, nil
		},
		StaleStocksFunc: func(ctx context.Context, exchangeID uint, cutoff time.Time) ([]prices.StaleStock, error) {
			return stale, nil
		},
	}
}

func newTestUsecase(repo HealthRepository, active *mockActiveCounter, exchanges ExchangeResolver) *MarketHealthUsecase {
	uc := NewMarketHealthUsecase(repo, active, exchanges)
	uc.now = func() time.Time { return time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC) }
	return uc
}

func TestMarketHealthUsecase_Snapshot(t *testing.T) {
	t.Parallel()

	stale := []prices.StaleStock{{Symbol: "OLD", LastPriceDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}}

	tests := []struct {
		name     string
		active   int64
		covered  int64
		stale    []prices.StaleStock
		status   entity.Status
		coverage string
	}{
		{name: "healthy", active: 10, covered: 10, stale: nil, status: entity.StatusHealthy, coverage: "100"},
		{name: "degraded by coverage", active: 10, covered: 8, stale: nil, status: entity.StatusDegraded, coverage: "80"},
		{name: "degraded by staleness", active: 10, covered: 10, stale: stale, status: entity.StatusDegraded, coverage: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := newTestUsecase(healthRepo(tt.covered, tt.stale), &mockActiveCounter{n: tt.active}, &mockExchangeResolver{})

			snap, err := uc.Snapshot(context.Background(), "NSE", 2)

			require.NoError(t, err)
			assert.Equal(t, "NSE", snap.Exchange)
			assert.Equal(t, tt.status, snap.Status)
			assert.Equal(t, latest, snap.LatestTradingDate)
			assert.Equal(t, tt.active, snap.ActiveStocks)
			assert.Equal(t, tt.covered, snap.StocksWithPrices)
			assert.Equal(t, tt.coverage, snap.CoveragePercent.String())
			assert.Equal(t, 2, snap.StaleThresholdDays)
			assert.Equal(t, tt.stale, snap.StaleStocks)
		})
	}
}

func TestMarketHealthUsecase_Snapshot_Cutoff(t *testing.T) {
	t.Parallel()

	var gotCutoff time.Time
	repo := healthRepo(1, nil)
	repo.StaleStocksFunc = func(ctx context.Context, exchangeID uint, cutoff time.Time) ([]prices.StaleStock, error) {
		assert.Equal(t, uint(4), exchangeID)
		gotCutoff = cutoff
		return nil, nil
	}
	uc := newTestUsecase(repo, &mockActiveCounter{n: 1}, &mockExchangeResolver{})

	_, err := uc.Snapshot(context.Background(), "NSE", 5)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), gotCutoff)
}

func TestMarketHealthUsecase_Snapshot_NoData(t *testing.T) {
	t.Parallel()

	repo := &mockHealthRepository{
		LatestTradingDateFunc: func(ctx context.Context, exchangeID uint) (time.Time, bool, error) {
			return time.Time{}, false, nil
		},
	}
	uc := newTestUsecase(repo, &mockActiveCounter{n: 10}, &mockExchangeResolver{})

	snap, err := uc.Snapshot(context.Background(), "NSE", 2)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusNoData, snap.Status)
	assert.True(t, snap.LatestTradingDate.IsZero())
}

func TestMarketHealthUsecase_Snapshot_Errors(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("db down")

	t.Run("error: negative stale days", func(t *testing.T) {
		t.Parallel()
		uc := newTestUsecase(healthRepo(1, nil), &mockActiveCounter{n: 1}, &mockExchangeResolver{})
		_, err := uc.Snapshot(context.Background(), "NSE", -1)
		assert.ErrorIs(t, err, ErrInvalidStaleDays)
	})

	t.Run("error: unknown exchange", func(t *testing.T) {
		t.Parallel()
		uc := newTestUsecase(healthRepo(1, nil), &mockActiveCounter{n: 1}, &mockExchangeResolver{err: prices.ErrExchangeNotFound})
		_, err := uc.Snapshot(context.Background(), "BSE", 2)
		assert.ErrorIs(t, err, prices.ErrExchangeNotFound)
	})

	t.Run("error: active count fails", func(t *testing.T) {
		t.Parallel()
		uc := newTestUsecase(healthRepo(1, nil), &mockActiveCounter{err: dbErr}, &mockExchangeResolver{})
		_, err := uc.Snapshot(context.Background(), "NSE", 2)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("error: stale query fails", func(t *testing.T) {
		t.Parallel()
		repo := healthRepo(1, nil)
		repo.StaleStocksFunc = func(ctx context.Context, exchangeID uint, cutoff time.Time) ([]prices.StaleStock, error) {
			return nil, dbErr
		}
		uc := newTestUsecase(repo, &mockActiveCounter{n: 1}, &mockExchangeResolver{})
		_, err := uc.Snapshot(context.Background(), "NSE", 2)
		assert.ErrorIs(t, err, dbErr)
	})
}
