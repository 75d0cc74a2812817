// Package retry runs calls under a bounded retry policy with linear backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retried call. The wait after failed attempt n is n*Unit.
type Policy struct {
	MaxAttempts int
	Unit        time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Nil means IsTransient.
	Retryable func(error) bool
}

// DefaultPolicy is three attempts waiting 2s then 4s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Unit: 2 * time.Second}
}

// linear is a backoff.BackOff whose n-th delay is n*unit.
type linear struct {
	unit    time.Duration
	attempt int
}

func (l *linear) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.unit
}

func (l *linear) Reset() { l.attempt = 0 }

// Do calls fn until it succeeds, returns a non-retryable error, the attempt
// budget is spent or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for calls that return a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&linear{unit: p.Unit}, uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil && (!retryable(err) || ctx.Err() != nil) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b, func(err error, wait time.Duration) {
		slog.Warn("retrying after failure", "op", op, "attempt", attempt, "wait", wait, "error", err)
	})
}

// IsTransient reports whether err is worth retrying: network timeouts, deadline
// expiry of a single attempt, and errors that classify themselves via Transient().
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
