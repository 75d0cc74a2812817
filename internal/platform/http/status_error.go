package http

import (
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from a market data provider.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

// Transient reports whether the same request may succeed later: server errors and throttling.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// CheckStatus returns a *StatusError unless res carries a 2xx status.
func CheckStatus(provider string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	return &StatusError{Provider: provider, StatusCode: res.StatusCode}
}
