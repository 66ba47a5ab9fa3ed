package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"

	"github.com/beelinehq/beeline/internal/httpclient"
	"github.com/beelinehq/beeline/internal/tokencache"
)

// DefaultMaxRetryAttempts bounds the retry loop of a single RequestToken call.
const DefaultMaxRetryAttempts = 3

// Config holds the static client-credentials settings.
// Empty values are allowed at construction time; RequestToken fails with a
// configuration error before any network attempt if one is missing.
type Config struct {
	ClientID         string
	ClientSecret     string
	TokenURL         string
	MaxRetryAttempts int
}

// configured reports whether all required settings are present.
func (c Config) configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TokenURL != ""
}

// TokenInfo is the diagnostic record exposed to callers.
type TokenInfo struct {
	tokencache.Info
	OAuthConfigured bool   `json:"oauth_configured"`
	TokenURL        string `json:"token_url"`
}

// Manager produces currently-valid bearer tokens for the client-credentials
// flow, hiding cache consultation, serialized refresh and bounded retries
// from its callers. At most one token refresh is in flight per Manager.
type Manager struct {
	client *httpclient.Client
	cache  *tokencache.Cache
	cfg    Config

	// refresh serializes token refreshes. A weighted semaphore rather than
	// a plain mutex so waiters can abandon the wait on context cancellation
	// without affecting whoever holds it.
	refresh *semaphore.Weighted
}

// Compile-time check that Manager can feed an oauth2.Transport.
var _ oauth2.TokenSource = (*Manager)(nil)

// NewManager creates a Manager around the given transport client and cache.
func NewManager(client *httpclient.Client, cache *tokencache.Cache, cfg Config) *Manager {
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = DefaultMaxRetryAttempts
	}

	slog.Info("oauth manager initialized",
		"token_url", cfg.TokenURL,
		"has_client_id", cfg.ClientID != "",
		"has_client_secret", cfg.ClientSecret != "",
		"max_retry_attempts", cfg.MaxRetryAttempts,
	)

	return &Manager{
		client:  client,
		cache:   cache,
		cfg:     cfg,
		refresh: semaphore.NewWeighted(1),
	}
}

// CachedToken returns the cached token if one is valid. It never performs
// network I/O and never triggers a refresh; a missing token is a normal
// outcome, not an error.
func (m *Manager) CachedToken() (string, bool) {
	return m.cache.Fetch()
}

// ValidToken returns a valid token, refreshing through the provider when the
// cache is empty or expired. Under N concurrent callers observing an expired
// cache, exactly one performs the network refresh; the rest wait and receive
// its result.
func (m *Manager) ValidToken(ctx context.Context) (string, error) {
	// Hot path: no lock.
	if token, ok := m.cache.Fetch(); ok {
		return token, nil
	}

	slog.InfoContext(ctx, "token expired or missing, acquiring refresh lock")
	if err := m.refresh.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for token refresh: %w", err)
	}
	defer m.refresh.Release(1)

	// Double-check: another caller may have refreshed while we waited.
	if token, ok := m.cache.Fetch(); ok {
		slog.InfoContext(ctx, "token was refreshed by another caller")
		return token, nil
	}

	token, err := m.RequestToken(ctx)
	if err != nil {
		var oauthErr *Error
		if errors.As(err, &oauthErr) {
			slog.ErrorContext(ctx, "token refresh failed",
				"kind", oauthErr.Kind,
				"provider_code", oauthErr.ProviderCode,
			)
		}
		return "", err
	}
	return token, nil
}

// RequestToken requests a new token from the provider and stores it in the
// cache. Retryable failures (5xx, 429, timeouts, network errors, anything
// unclassified) consume attempts up to the configured budget; configuration
// errors, malformed responses and other 4xx responses fail immediately.
func (m *Manager) RequestToken(ctx context.Context) (string, error) {
	if err := m.checkConfig(); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "requesting new oauth token",
		"token_url", m.cfg.TokenURL,
		"max_retry_attempts", m.cfg.MaxRetryAttempts,
	)

	var lastErr *Error
	for attempt := 1; attempt <= m.cfg.MaxRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return "", lastErr
			}
			return "", &Error{Kind: KindUnexpected, Message: "token request aborted", err: err}
		}

		if attempt > 1 {
			slog.InfoContext(ctx, "retrying token request",
				"attempt", attempt,
				"max_attempts", m.cfg.MaxRetryAttempts,
			)
		}

		token, err := m.requestOnce(ctx)
		if err == nil {
			slog.InfoContext(ctx, "oauth token acquired", "attempt", attempt)
			return token, nil
		}

		oauthErr := asOAuthError(err)
		if !oauthErr.Retryable() {
			slog.ErrorContext(ctx, "non-retryable oauth error",
				"kind", oauthErr.Kind,
				"attempt", attempt,
			)
			return "", oauthErr
		}

		lastErr = oauthErr
		slog.WarnContext(ctx, "retryable oauth error",
			"kind", oauthErr.Kind,
			"provider_code", oauthErr.ProviderCode,
			"attempt", attempt,
			"will_retry", attempt < m.cfg.MaxRetryAttempts,
		)
	}

	if lastErr != nil {
		return "", lastErr
	}
	// Unreachable with a positive attempt budget; kept as a terminal guard.
	return "", &Error{Kind: KindUnexpected, Message: "token request failed after all retry attempts"}
}

// ClearToken empties the token cache. It deliberately does not take the
// refresh lock: an in-flight refresh may repopulate the cache immediately
// after, which callers must tolerate.
func (m *Manager) ClearToken() {
	m.cache.Clear()
}

// TokenInfo merges the cache snapshot with the configuration status.
// Pure read: no I/O, no locking beyond the cache's own.
func (m *Manager) TokenInfo() TokenInfo {
	return TokenInfo{
		Info:            m.cache.Describe(),
		OAuthConfigured: m.cfg.configured(),
		TokenURL:        m.cfg.TokenURL,
	}
}

// Token implements oauth2.TokenSource so the Manager plugs directly into an
// oauth2.Transport for outbound authenticated calls.
func (m *Manager) Token() (*oauth2.Token, error) {
	accessToken, err := m.ValidToken(context.Background())
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
	if info := m.cache.Describe(); info.ExpiresAt != nil {
		token.Expiry = *info.ExpiresAt
	}
	return token, nil
}

func (m *Manager) checkConfig() error {
	switch {
	case m.cfg.ClientID == "":
		return &Error{Kind: KindConfiguration, Message: "OAuth client ID not configured"}
	case m.cfg.ClientSecret == "":
		return &Error{Kind: KindConfiguration, Message: "OAuth client secret not configured"}
	case m.cfg.TokenURL == "":
		return &Error{Kind: KindConfiguration, Message: "OAuth token URL not configured"}
	}
	return nil
}

// tokenResponse is the provider's success body. ExpiresIn is a pointer so a
// missing field is distinguishable from a zero lifetime.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   *int64 `json:"expires_in"`
}

// requestOnce performs a single token POST and stores a validated result.
func (m *Manager) requestOnce(ctx context.Context) (string, error) {
	resp, err := m.client.Post(ctx, m.cfg.TokenURL,
		httpclient.WithForm(url.Values{
			"client_id":     {m.cfg.ClientID},
			"client_secret": {m.cfg.ClientSecret},
			"grant_type":    {"client_credentials"},
		}),
	)
	if err != nil {
		return "", classifyRequestError(err)
	}

	var body tokenResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return "", &Error{Kind: KindInvalidResponse, Message: "OAuth response is not valid JSON", err: err}
	}
	if body.AccessToken == "" {
		return "", &Error{Kind: KindInvalidResponse, Message: "OAuth response missing access_token field"}
	}
	if body.ExpiresIn == nil {
		return "", &Error{Kind: KindInvalidResponse, Message: "OAuth response missing expires_in field"}
	}

	tokenType := body.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	m.cache.Store(body.AccessToken, *body.ExpiresIn)

	slog.DebugContext(ctx, "token response accepted",
		"token_type", tokenType,
		"expires_in", *body.ExpiresIn,
	)

	return body.AccessToken, nil
}

// classifyRequestError maps transport failures onto the closed error set.
func classifyRequestError(err error) *Error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		providerCode, providerDesc := parseProviderError(statusErr.Body)
		oauthErr := &Error{
			Message:             fmt.Sprintf("OAuth token request failed: %v", statusErr),
			ProviderCode:        providerCode,
			ProviderDescription: providerDesc,
			err:                 err,
		}
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 && statusErr.StatusCode != 429 {
			oauthErr.Kind = KindProviderRejected
		} else {
			oauthErr.Kind = KindProviderUnavailable
		}
		return oauthErr
	}

	var timeoutErr *httpclient.TimeoutError
	var networkErr *httpclient.NetworkError
	if errors.As(err, &timeoutErr) || errors.As(err, &networkErr) {
		return &Error{
			Kind:    KindProviderUnavailable,
			Message: fmt.Sprintf("OAuth token request failed: %v", err),
			err:     err,
		}
	}

	return &Error{
		Kind:    KindUnexpected,
		Message: fmt.Sprintf("unexpected error during token request: %v", err),
		err:     err,
	}
}

// asOAuthError normalizes any attempt failure into an *Error.
func asOAuthError(err error) *Error {
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return &Error{
		Kind:    KindUnexpected,
		Message: fmt.Sprintf("unexpected error during token request: %v", err),
		err:     err,
	}
}

// parseProviderError extracts error/error_description from a JSON failure
// body. Unparseable bodies simply yield empty fields.
func parseProviderError(body []byte) (code, description string) {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	return payload.Error, payload.ErrorDescription
}
