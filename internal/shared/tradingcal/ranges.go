package tradingcal

import (
	"sort"
	"time"
)

// Range is a closed interval of trading dates with no trading day missing inside it.
type Range struct {
	Start time.Time
	End   time.Time
}

// String renders the range as "start..end".
func (r Range) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}

// TradingDays returns the trading dates covered by the range.
func (r Range) TradingDays() []time.Time {
	return Dates(r.Start, r.End)
}

// GroupRanges compresses dates into the minimal set of contiguous ranges under the
// trading calendar. Friday followed by the next Monday counts as contiguous.
//
// Input order does not matter and duplicates are ignored. Ranges come back sorted
// by start and never overlap.
func GroupRanges(dates []time.Time) []Range {
	if len(dates) == 0 {
		return []Range{}
	}

	sorted := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		sorted = append(sorted, Day(d))
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	// calendar built once, index lookups are O(1)
	calendar := Dates(sorted[0], sorted[len(sorted)-1])
	index := make(map[time.Time]int, len(calendar))
	for i, d := range calendar {
		index[d] = i
	}

	ranges := make([]Range, 0, 4)
	start, prev := sorted[0], sorted[0]
	for _, cur := range sorted[1:] {
		if cur.Equal(prev) {
			continue
		}
		prevIdx, okPrev := index[prev]
		curIdx, okCur := index[cur]
		if okPrev && okCur && curIdx == prevIdx+1 {
			prev = cur
			continue
		}
		ranges = append(ranges, Range{Start: start, End: prev})
		start, prev = cur, cur
	}
	ranges = append(ranges, Range{Start: start, End: prev})

	return ranges
}
