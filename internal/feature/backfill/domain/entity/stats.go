package entity

import "errors"

// Stats accumulates the counters of one backfill run.
type Stats struct {
	StocksProcessed   int
	StocksWithGaps    int
	TotalMissingDates int
	TotalRanges       int
	CandlesFetched    int
	CandlesInserted   int
	FailedStocks      int
}

// Add merges o into s.
func (s *Stats) Add(o Stats) {
	s.StocksProcessed += o.StocksProcessed
	s.StocksWithGaps += o.StocksWithGaps
	s.TotalMissingDates += o.TotalMissingDates
	s.TotalRanges += o.TotalRanges
	s.CandlesFetched += o.CandlesFetched
	s.CandlesInserted += o.CandlesInserted
	s.FailedStocks += o.FailedStocks
}

// LogAttrs flattens the counters for a structured log line.
func (s Stats) LogAttrs() []any {
	return []any{
		"stocksProcessed", s.StocksProcessed,
		"stocksWithGaps", s.StocksWithGaps,
		"totalMissingDates", s.TotalMissingDates,
		"totalRanges", s.TotalRanges,
		"candlesFetched", s.CandlesFetched,
		"candlesInserted", s.CandlesInserted,
		"failedStocks", s.FailedStocks,
	}
}

// ErrRunInProgress is returned when another backfill run holds the single-runner lock.
var ErrRunInProgress = errors.New("backfill run already in progress")
