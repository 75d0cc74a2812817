package lock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"
)

// AdvisoryLocker implements the lock with a Postgres session advisory lock.
// The lock lives as long as the pinned connection, so ttl is ignored.
type AdvisoryLocker struct {
	db *sql.DB
}

// NewAdvisoryLocker creates an AdvisoryLocker on db.
func NewAdvisoryLocker(db *sql.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

// advisoryKey maps a lock name to the bigint key space of pg_advisory_lock.
func advisoryKey(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// TryLock calls pg_try_advisory_lock on a dedicated connection held until release.
func (l *AdvisoryLocker) TryLock(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("advisory lock %q: %w", key, err)
	}

	id := advisoryKey(key)
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("advisory lock %q: %w", key, err)
	}
	if !ok {
		_ = conn.Close()
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		defer func() { _ = conn.Close() }()
		var released bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", id).Scan(&released); err != nil {
			return fmt.Errorf("advisory unlock %q: %w", key, err)
		}
		if !released {
			return fmt.Errorf("advisory unlock %q: %w", key, ErrNotHeld)
		}
		return nil
	}
	return release, true, nil
}
