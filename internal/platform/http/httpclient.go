// Package http provides the outbound HTTP client shared by the market data providers.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient creates a client for provider calls.
//
//   - Proxy honors HTTP_PROXY and friends.
//   - Dialer and TLS handshake timeouts are shorter than the defaults.
//   - Client.Timeout bounds the whole request, body included.
//   - Every request carries userAgent unless the caller set one. Yahoo answers
//     anonymous Go clients with 429.
//
// http.DefaultClient has no timeout; never use it for provider calls.
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	var rt http.RoundTripper = t
	if userAgent != "" {
		rt = &userAgentTransport{next: t, userAgent: userAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	// RoundTrip must not modify the caller's request
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", u.userAgent)
	return u.next.RoundTrip(r)
}
