package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeUntilNext(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{name: "later today", now: time.Date(2026, 1, 5, 10, 0, 0, 0, ist), want: 8*time.Hour + 30*time.Minute},
		{name: "already passed today", now: time.Date(2026, 1, 5, 20, 0, 0, 0, ist), want: 22*time.Hour + 30*time.Minute},
		{name: "exactly on time", now: time.Date(2026, 1, 5, 18, 30, 0, 0, ist), want: 24 * time.Hour},
		{name: "now in another zone", now: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC), want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TimeUntilNext(tt.now, 18, 30, ist))
		})
	}
}

func TestCachingPriceRepository_EntryTTL(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	repo := NewCachingPriceRepository(nil, time.Hour, &mockPriceStore{}, "")

	assert.Equal(t, time.Hour, repo.entryTTL(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)))

	repo.ExpireDailyAt(18, 30, ist)
	// 17:00 UTC is 22:30 IST, the next refresh is 20 hours away
	assert.Equal(t, time.Hour, repo.entryTTL(time.Date(2026, 1, 5, 17, 0, 0, 0, time.UTC)))
	// 12:45 UTC is 18:15 IST, the refresh is 15 minutes away
	assert.Equal(t, 15*time.Minute, repo.entryTTL(time.Date(2026, 1, 5, 12, 45, 0, 0, time.UTC)))
}
