package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockprice_backend/internal/feature/backfill/domain/entity"
	prices "stockprice_backend/internal/feature/prices/domain/entity"
	stocks "stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/shared/tradingcal"
)

func mustDay(s string) time.Time {
	d, err := tradingcal.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64 { return &v }

// session builds a complete, valid session for day.
func session(day time.Time, closePrice float64) prices.Session {
	return prices.Session{
		Date:   day,
		Open:   f64(closePrice - 1),
		High:   f64(closePrice + 5),
		Low:    f64(closePrice - 5),
		Close:  f64(closePrice),
		Volume: i64(1000),
	}
}

// fullChart answers every request with a complete session for each trading day asked for.
func fullChart(ctx context.Context, symbol string, from, to time.Time) ([]prices.Session, error) {
	var out []prices.Session
	for i, d := range tradingcal.Dates(from, to) {
		out = append(out, session(d, 100+float64(i)))
	}
	return out, nil
}

type historyCall struct {
	Symbol   string
	From, To time.Time
}

// mockChartProvider is a mock implementation of ChartProvider that records calls.
type mockChartProvider struct {
	mu          sync.Mutex
	calls       []historyCall
	HistoryFunc func(ctx context.Context, symbol string, from, to time.Time) ([]prices.Session, error)
}

func (m *mockChartProvider) History(ctx context.Context, symbol string, from, to time.Time) ([]prices.Session, error) {
	m.mu.Lock()
	m.calls = append(m.calls, historyCall{Symbol: symbol, From: from, To: to})
	m.mu.Unlock()
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, symbol, from, to)
	}
	return nil, nil
}

func (m *mockChartProvider) symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Symbol)
	}
	return out
}

type priceKey struct {
	Symbol     string
	ExchangeID uint
	Date       time.Time
}

// memStore is an in-memory PriceStore with the no-overwrite conflict policy.
type memStore struct {
	mu   sync.Mutex
	rows map[priceKey]prices.Candle

	ExistingDatesErr map[string]error
	UpsertErr        map[string]error
}

func newMemStore() *memStore {
	return &memStore{rows: map[priceKey]prices.Candle{}}
}

func (s *memStore) ExistingDates(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error) {
	if err := s.ExistingDatesErr[symbol]; err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for k := range s.rows {
		if k.Symbol == symbol && k.ExchangeID == exchangeID && !k.Date.Before(from) && !k.Date.After(to) {
			out = append(out, k.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *memStore) UpsertNoOverwrite(ctx context.Context, candles []prices.Candle) (prices.UpsertResult, error) {
	res := prices.UpsertResult{Attempted: len(candles)}
	if len(candles) == 0 {
		return res, nil
	}
	if err := s.UpsertErr[candles[0].Symbol]; err != nil {
		return prices.UpsertResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range candles {
		k := priceKey{c.Symbol, c.ExchangeID, c.Date}
		if _, ok := s.rows[k]; ok {
			continue
		}
		s.rows[k] = c
		res.Inserted++
	}
	return res, nil
}

func (s *memStore) count(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.rows {
		if k.Symbol == symbol {
			n++
		}
	}
	return n
}

type mockStockLister struct {
	ListActiveFunc func(ctx context.Context) ([]stocks.Stock, error)
	calls          int
}

func (m *mockStockLister) ListActive(ctx context.Context) ([]stocks.Stock, error) {
	m.calls++
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func listOf(ss ...stocks.Stock) *mockStockLister {
	return &mockStockLister{ListActiveFunc: func(ctx context.Context) ([]stocks.Stock, error) {
		return ss, nil
	}}
}

type mockExchangeResolver struct {
	ResolveFunc func(ctx context.Context, code string) (uint, error)
}

func (m *mockExchangeResolver) ResolveExchangeID(ctx context.Context, code string) (uint, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, code)
	}
	return 1, nil
}

type mockLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	released int
	ttls     []time.Duration
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls = append(m.ttls, ttl)
	if m.err != nil {
		return nil, false, m.err
	}
	if m.held {
		return nil, false, nil
	}
	m.held = true
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.held = false
		m.released++
		return nil
	}, true, nil
}

type runRecord struct {
	Outcome string
	Stats   entity.Stats
}

// mockRecorder captures telemetry.
type mockRecorder struct {
	mu       sync.Mutex
	failures map[string]int
	runs     []runRecord
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{failures: map[string]int{}}
}

func (m *mockRecorder) FetchFailed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *mockRecorder) RunFinished(outcome string, stats entity.Stats, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, runRecord{Outcome: outcome, Stats: stats})
}
