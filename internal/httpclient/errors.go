package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// TimeoutError indicates a request exceeded its deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s: %s", e.Timeout, e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError indicates a connection-level failure (DNS resolution,
// connection refused, connection reset) before a response was received.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError indicates the server responded with status >= 400.
// The client never retries these; retryability is the caller's decision.
type StatusError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
