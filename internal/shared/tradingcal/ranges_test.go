package tradingcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(t *testing.T, ss ...string) []time.Time {
	t.Helper()
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		out = append(out, mustDate(t, s))
	}
	return out
}

func TestGroupRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "success: empty input",
			input:    nil,
			expected: []string{},
		},
		{
			name:     "success: single date is a degenerate range",
			input:    []string{"2026-01-07"},
			expected: []string{"2026-01-07..2026-01-07"},
		},
		{
			name:     "success: consecutive weekdays merge",
			input:    []string{"2026-01-05", "2026-01-06", "2026-01-07"},
			expected: []string{"2026-01-05..2026-01-07"},
		},
		{
			name:     "success: friday and next monday are contiguous",
			input:    []string{"2026-01-08", "2026-01-09", "2026-01-12"},
			expected: []string{"2026-01-08..2026-01-12"},
		},
		{
			name:     "success: a skipped trading day splits the range",
			input:    []string{"2026-01-05", "2026-01-07", "2026-01-08"},
			expected: []string{"2026-01-05..2026-01-05", "2026-01-07..2026-01-08"},
		},
		{
			name:     "success: unsorted input with duplicates",
			input:    []string{"2026-01-14", "2026-01-05", "2026-01-13", "2026-01-05", "2026-01-06"},
			expected: []string{"2026-01-05..2026-01-06", "2026-01-13..2026-01-14"},
		},
		{
			name:     "edge case: weekend date never merges",
			input:    []string{"2026-01-09", "2026-01-10", "2026-01-12"},
			expected: []string{"2026-01-09..2026-01-09", "2026-01-10..2026-01-10", "2026-01-12..2026-01-12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := GroupRanges(dates(t, tt.input...))

			formatted := make([]string, 0, len(got))
			for _, r := range got {
				formatted = append(formatted, r.String())
			}
			assert.Equal(t, tt.expected, formatted)
		})
	}
}

// TestGroupRanges_Partition checks that ranges cover every input date exactly once and
// that no two neighbouring ranges could have been merged.
func TestGroupRanges_Partition(t *testing.T) {
	t.Parallel()

	window := Dates(mustDate(t, "2025-06-02"), mustDate(t, "2025-09-30"))
	var input []time.Time
	for i, d := range window {
		// drop a deterministic, irregular subset
		if i%7 == 3 || i%11 == 0 || (i > 20 && i < 26) {
			continue
		}
		input = append(input, d)
	}

	ranges := GroupRanges(input)

	covered := map[time.Time]int{}
	for _, r := range ranges {
		for _, d := range r.TradingDays() {
			covered[d]++
		}
	}
	require.Len(t, covered, len(input))
	for _, d := range input {
		assert.Equal(t, 1, covered[d], "date %s", FormatDate(d))
	}

	calendar := Dates(input[0], input[len(input)-1])
	pos := map[time.Time]int{}
	for i, d := range calendar {
		pos[d] = i
	}
	for i := 1; i < len(ranges); i++ {
		assert.Greater(t, pos[ranges[i].Start], pos[ranges[i-1].End]+1,
			"ranges %s and %s are adjacent", ranges[i-1], ranges[i])
	}
}

func TestGroupRanges_FullWindowIsSingleRange(t *testing.T) {
	t.Parallel()

	missing := Dates(mustDate(t, "2025-12-01"), mustDate(t, "2026-01-16"))
	require.Len(t, missing, 35)

	ranges := GroupRanges(missing)

	require.Len(t, ranges, 1)
	assert.Equal(t, "2025-12-01..2026-01-16", ranges[0].String())
}
