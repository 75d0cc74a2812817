// Package pgerr annotates storage errors with their PostgreSQL SQLSTATE.
package pgerr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories care about.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	SerializationFailed = "40001"
	DeadlockDetected    = "40P01"
)

// Wrap prefixes err with op. PostgreSQL errors also carry their SQLSTATE so the
// code survives into logs. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: sqlstate %s: %w", op, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Code returns the SQLSTATE of err, or "" when err is not a PostgreSQL error.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Retryable reports whether the transaction failed on a serialization conflict
// or deadlock and can be replayed as a whole.
func Retryable(err error) bool {
	switch Code(err) {
	case SerializationFailed, DeadlockDetected:
		return true
	default:
		return false
	}
}
