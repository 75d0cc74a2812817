package cache

import (
	"time"
)

// TimeUntilNext returns the duration from now until the next hour:minute wall clock time in loc.
// When now is exactly on that time it returns a full day.
func TimeUntilNext(now time.Time, hour, minute int, loc *time.Location) time.Duration {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
