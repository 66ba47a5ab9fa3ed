// Package upstream provides an HTTP client for calling the third-party API
// with bearer credentials produced by the oauth Manager.
//
// A failed token refresh means the credential is unavailable: the outbound
// call is never attempted and the error wraps ErrCredentialUnavailable,
// which callers must report distinctly from an upstream rejection of a
// successfully authenticated call.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/beelinehq/beeline/internal/oauth"
)

// ErrCredentialUnavailable marks failures to obtain a valid bearer token.
var ErrCredentialUnavailable = errors.New("upstream: credential unavailable")

// Response is the normalized upstream outcome for callers.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client issues authenticated requests against a single upstream base URL.
// The Authorization header is injected by oauth2.Transport using the token
// source, which refreshes transparently as tokens expire.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a Client for the given base URL and token source.
func New(baseURL string, source oauth2.TokenSource, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}

	return &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: source},
		},
	}, nil
}

// Do performs an authenticated request to path (relative to the base URL).
// Token acquisition failures wrap ErrCredentialUnavailable; upstream error
// statuses are returned as normal responses for the caller to interpret.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	reqURL := c.baseURL.JoinPath(path).String()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// oauth2.Transport surfaces token source failures through Do.
		if isTokenSourceError(err) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
		}
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// isTokenSourceError distinguishes "could not obtain a credential" from
// transport-level failures on the authenticated call itself. oauth2.Transport
// returns the token source error before any bytes go out; http.Client wraps
// it in a *url.Error, so unwrap down to the manager's tagged error type.
func isTokenSourceError(err error) bool {
	var oauthErr *oauth.Error
	return errors.As(err, &oauthErr)
}
