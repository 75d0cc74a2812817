package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"stockprice_backend/internal/shared/tradingcal"
)

func TestStats_Add(t *testing.T) {
	t.Parallel()

	s := Stats{StocksProcessed: 1, CandlesFetched: 10}
	s.Add(Stats{StocksProcessed: 1, StocksWithGaps: 1, TotalMissingDates: 5, TotalRanges: 2, CandlesFetched: 5, CandlesInserted: 4})
	s.Add(Stats{StocksProcessed: 1, FailedStocks: 1})

	assert.Equal(t, Stats{
		StocksProcessed:   3,
		StocksWithGaps:    1,
		TotalMissingDates: 5,
		TotalRanges:       2,
		CandlesFetched:    15,
		CandlesInserted:   4,
		FailedStocks:      1,
	}, s)
	assert.Len(t, s.LogAttrs(), 14)
}

func TestFetchFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	start, _ := tradingcal.ParseDate("2026-01-05")
	end, _ := tradingcal.ParseDate("2026-01-09")
	f := FetchFailure{Variant: "TCS.NS", Range: tradingcal.Range{Start: start, End: end}, Kind: KindTransient, Err: cause}

	assert.ErrorIs(t, f, cause)
	assert.Equal(t, "TCS.NS 2026-01-05..2026-01-09: transient: boom", f.Error())
}

func TestFailureKind_TryNext(t *testing.T) {
	t.Parallel()

	for _, k := range []FailureKind{KindTimeout, KindTransient, KindRejected, KindMalformed, KindEmpty} {
		assert.True(t, k.TryNext(), string(k))
	}
	assert.False(t, KindCanceled.TryNext())
}
