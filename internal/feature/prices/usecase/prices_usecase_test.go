package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockprice_backend/internal/feature/prices/domain/entity"
)

var ErrDB = errors.New("database error")

// mockPriceRepository is a mock implementation of PriceRepository.
type mockPriceRepository struct {
	LatestFunc       func(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error)
	HistoryFunc      func(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]entity.Candle, error)
	MarketLatestFunc func(ctx context.Context, exchangeID uint) ([]entity.Candle, error)
}

func (m *mockPriceRepository) Latest(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error) {
	return m.LatestFunc(ctx, symbol, exchangeID)
}

func (m *mockPriceRepository) History(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]entity.Candle, error) {
	return m.HistoryFunc(ctx, symbol, exchangeID, from, to)
}

func (m *mockPriceRepository) MarketLatest(ctx context.Context, exchangeID uint) ([]entity.Candle, error) {
	return m.MarketLatestFunc(ctx, exchangeID)
}

// mockExchangeRepository resolves from a fixed table.
type mockExchangeRepository struct {
	ids      map[string]uint
	Resolved []string
}

func (m *mockExchangeRepository) ResolveExchangeID(ctx context.Context, code string) (uint, error) {
	m.Resolved = append(m.Resolved, code)
	id, ok := m.ids[code]
	if !ok {
		return 0, entity.ErrExchangeNotFound
	}
	return id, nil
}

func TestNormalizeExchange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NSE", NormalizeExchange(""))
	assert.Equal(t, "NSE", NormalizeExchange("  "))
	assert.Equal(t, "BSE", NormalizeExchange("bse"))
}

func TestPricesUsecase_Latest(t *testing.T) {
	t.Parallel()

	testDate := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		exchangeCode string
		symbol       string
		latestFunc   func(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error)
		wantClose    float64
		wantErr      error
	}{
		{
			name:         "success: default exchange and upper-cased symbol",
			exchangeCode: "",
			symbol:       "tcs",
			latestFunc: func(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error) {
				assert.Equal(t, "TCS", symbol)
				assert.Equal(t, uint(1), exchangeID)
				return entity.Candle{Symbol: symbol, Date: testDate, Close: 4100}, nil
			},
			wantClose: 4100,
		},
		{
			name:         "error: unknown exchange",
			exchangeCode: "lse",
			symbol:       "TCS",
			latestFunc: func(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error) {
				t.Error("Latest should not be called")
				return entity.Candle{}, nil
			},
			wantErr: entity.ErrExchangeNotFound,
		},
		{
			name:         "error: repository error is propagated",
			exchangeCode: "NSE",
			symbol:       "TCS",
			latestFunc: func(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error) {
				return entity.Candle{}, ErrDB
			},
			wantErr: ErrDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := NewPricesUsecase(
				&mockPriceRepository{LatestFunc: tt.latestFunc},
				&mockExchangeRepository{ids: map[string]uint{"NSE": 1}},
			)

			got, err := uc.Latest(context.Background(), tt.exchangeCode, tt.symbol)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClose, got.Close)
		})
	}
}

func TestPricesUsecase_History(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	t.Run("success: delegates to repository", func(t *testing.T) {
		t.Parallel()
		repo := &mockPriceRepository{
			HistoryFunc: func(ctx context.Context, symbol string, exchangeID uint, f, tt time.Time) ([]entity.Candle, error) {
				assert.Equal(t, from, f)
				assert.Equal(t, to, tt)
				return []entity.Candle{{Date: from}, {Date: to}}, nil
			},
		}
		uc := NewPricesUsecase(repo, &mockExchangeRepository{ids: map[string]uint{"NSE": 1}})

		got, err := uc.History(context.Background(), "NSE", "TCS", from, to)

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("error: reversed range", func(t *testing.T) {
		t.Parallel()
		exchanges := &mockExchangeRepository{ids: map[string]uint{"NSE": 1}}
		uc := NewPricesUsecase(&mockPriceRepository{}, exchanges)

		_, err := uc.History(context.Background(), "NSE", "TCS", to, from)

		assert.ErrorIs(t, err, entity.ErrInvalidDateRange)
		assert.Empty(t, exchanges.Resolved, "exchange must not be resolved for an invalid range")
	})
}

func TestPricesUsecase_MarketLatest(t *testing.T) {
	t.Parallel()

	exchanges := &mockExchangeRepository{ids: map[string]uint{"NSE": 1, "BSE": 2}}
	repo := &mockPriceRepository{
		MarketLatestFunc: func(ctx context.Context, exchangeID uint) ([]entity.Candle, error) {
			assert.Equal(t, uint(2), exchangeID)
			return []entity.Candle{{Symbol: "TCS"}}, nil
		},
	}
	uc := NewPricesUsecase(repo, exchanges)

	got, err := uc.MarketLatest(context.Background(), "bse")

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"BSE"}, exchanges.Resolved)
}
