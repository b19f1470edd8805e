// Package netutil implements the per-domain HTTP fetcher and its failure
// taxonomy.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// FailureKind classifies a fetch failure for logging and counters.
type FailureKind string

const (
	FailureHTTP        FailureKind = "http"
	FailureTimeout     FailureKind = "timeout"
	FailureUnreachable FailureKind = "unreachable"
)

// HTTPStatusError indicates the server responded, but with a non-200 status.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}

// NonRetryableError indicates request setup failed before any transport
// attempt was made (for example, malformed URL).
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("fetcher: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// Classify maps a fetch error onto the failure taxonomy.
func Classify(err error) FailureKind {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return FailureHTTP
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureUnreachable
}

// Fetcher issues one GET per (domain, language) endpoint. It owns the
// connect/read timeout policy and never retries; a refresh cycle makes
// exactly one attempt per domain.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	readTimeout time.Duration
}

// NewFetcher creates a Fetcher with the given connect and read timeouts.
func NewFetcher(connectTimeout, readTimeout time.Duration, userAgent string) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Fetcher{
		client:      &http.Client{Transport: transport},
		userAgent:   userAgent,
		readTimeout: readTimeout,
	}
}

// Fetch downloads url and returns the response body. A caller deadline
// tighter than the read timeout wins; otherwise the read timeout applies.
// The underlying connection is released on every exit path.
func (f *Fetcher) Fetch(ctx context.Context, url, accept string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && f.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.readTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NonRetryableError{Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}
	return body, nil
}

// Close releases the fetcher's idle connection pool. Called from the
// explicit cache-reset path.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}
