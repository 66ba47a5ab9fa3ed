package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrClosed is returned for requests made after Close.
var ErrClosed = errors.New("httpclient: client is closed")

// DefaultTimeout applies to requests when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Response is the normalized outcome of a successful request (status < 400).
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string { return string(r.Body) }

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers  http.Header
	query    url.Values
	form     url.Values
	jsonBody any
	hasJSON  bool
	timeout  time.Duration
}

// WithHeader sets a single request header.
func WithHeader(key, value string) RequestOption {
	return func(c *requestConfig) {
		if c.headers == nil {
			c.headers = http.Header{}
		}
		c.headers.Set(key, value)
	}
}

// WithHeaders sets multiple request headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(c *requestConfig) {
		if c.headers == nil {
			c.headers = http.Header{}
		}
		for k, v := range headers {
			c.headers.Set(k, v)
		}
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(query url.Values) RequestOption {
	return func(c *requestConfig) { c.query = query }
}

// WithForm sends values as an application/x-www-form-urlencoded body.
// Mutually exclusive with WithJSON; the last option applied wins.
func WithForm(form url.Values) RequestOption {
	return func(c *requestConfig) {
		c.form = form
		c.jsonBody = nil
		c.hasJSON = false
	}
}

// WithJSON sends v as an application/json body.
// Mutually exclusive with WithForm; the last option applied wins.
func WithJSON(v any) RequestOption {
	return func(c *requestConfig) {
		c.jsonBody = v
		c.hasJSON = true
		c.form = nil
	}
}

// WithTimeout overrides the client's default timeout for this request.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(c *requestConfig) { c.timeout = timeout }
}

// Client issues outbound HTTP requests and normalizes their outcomes.
// Failures are classified as *TimeoutError, *NetworkError or *StatusError;
// the client itself never retries.
//
// The underlying pooled http.Client is created lazily on first use and
// reused across calls. Safe for concurrent use.
type Client struct {
	timeout time.Duration

	mu     sync.Mutex
	client *http.Client
	closed bool
}

// New creates a Client with the given default per-request timeout.
// A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{timeout: timeout}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, opts)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, url, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, url, opts)
}

// Close releases the underlying connection pool. Idempotent and safe to
// call even if no request was ever made; requests after Close fail with
// ErrClosed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
		slog.Debug("http client closed")
	}
}

// httpClient lazily creates the pooled http.Client on first use.
func (c *Client) httpClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.client == nil {
		// Redirects are followed by default; per-request deadlines come
		// from the context rather than http.Client.Timeout so callers can
		// override them per call.
		c.client = &http.Client{}
		slog.Debug("http client initialized", "default_timeout", c.timeout)
	}
	return c.client, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, opts []RequestOption) (*Response, error) {
	cfg := requestConfig{timeout: c.timeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient, err := c.httpClient()
	if err != nil {
		return nil, err
	}

	reqURL := rawURL
	if len(cfg.query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		reqURL = rawURL + sep + cfg.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case cfg.form != nil:
		body = strings.NewReader(cfg.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case cfg.hasJSON:
		data, err := json.Marshal(cfg.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range cfg.headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	slog.Debug("making request", "method", method, "url", rawURL, "timeout", cfg.timeout)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, cfg.timeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(rawURL, cfg.timeout, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		slog.Debug("request failed",
			"method", method,
			"url", rawURL,
			"status_code", resp.StatusCode,
		)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			Header:     resp.Header,
			URL:        rawURL,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// classifyTransportError maps connection-level failures to the error
// taxonomy callers key their retry decisions on.
func classifyTransportError(reqURL string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &TimeoutError{URL: reqURL, Timeout: timeout, Err: err}
	}
	return &NetworkError{URL: reqURL, Err: err}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
