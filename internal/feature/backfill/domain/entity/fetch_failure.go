package entity

import (
	"fmt"

	"stockprice_backend/internal/shared/tradingcal"
)

// FailureKind classifies why one symbol variant could not serve a date range.
type FailureKind string

const (
	// KindTimeout: the variant attempt ran past its own deadline.
	KindTimeout FailureKind = "timeout"
	// KindCanceled: the run itself was canceled or hit its deadline. No further variant is tried.
	KindCanceled FailureKind = "canceled"
	// KindTransient: network failure, 5xx or throttling.
	KindTransient FailureKind = "transient"
	// KindRejected: the provider refused the request (4xx other than 429).
	KindRejected FailureKind = "rejected"
	// KindMalformed: the body did not have the parallel-array shape.
	KindMalformed FailureKind = "malformed"
	// KindEmpty: the provider had no series for the variant.
	KindEmpty FailureKind = "empty"
)

// TryNext reports whether the next variant should be attempted after this kind.
func (k FailureKind) TryNext() bool {
	return k != KindCanceled
}

// FetchFailure is one failed variant attempt for a range.
type FetchFailure struct {
	Variant string
	Range   tradingcal.Range
	Kind    FailureKind
	Err     error
}

func (f FetchFailure) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", f.Variant, f.Range, f.Kind, f.Err)
}

func (f FetchFailure) Unwrap() error {
	return f.Err
}
