package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		active     int64
		covered    int64
		staleCount int
		expected   Status
	}{
		{name: "full coverage, nothing stale", active: 10, covered: 10, staleCount: 0, expected: StatusHealthy},
		{name: "partial coverage", active: 10, covered: 8, staleCount: 0, expected: StatusDegraded},
		{name: "partial coverage and stale", active: 10, covered: 8, staleCount: 3, expected: StatusDegraded},
		{name: "full coverage with stale stocks", active: 10, covered: 10, staleCount: 1, expected: StatusDegraded},
		{name: "no active stocks", active: 0, covered: 0, staleCount: 0, expected: StatusDegraded},
		{name: "inactive stocks still priced", active: 10, covered: 12, staleCount: 0, expected: StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Classify(tt.active, tt.covered, tt.staleCount))
		})
	}
}

func TestCoveragePercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		active   int64
		covered  int64
		expected string
	}{
		{active: 10, covered: 10, expected: "100"},
		{active: 10, covered: 8, expected: "80"},
		{active: 3, covered: 2, expected: "66.67"},
		{active: 3, covered: 1, expected: "33.33"},
		{active: 2104, covered: 2097, expected: "99.67"},
		{active: 0, covered: 0, expected: "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CoveragePercent(tt.active, tt.covered).String(), "%d/%d", tt.covered, tt.active)
	}
}
