// Package oauth manages OAuth 2.0 client-credentials tokens for outbound
// API authentication.
//
// The Manager acquires tokens from the provider's token endpoint, caches
// them with a safety-buffered expiry and refreshes them transparently.
// Concurrent callers never trigger redundant token requests: refreshes are
// serialized behind a lock with a double-check of the cache, so exactly one
// network refresh happens no matter how many callers observe an expired
// cache at once.
//
// Transient provider failures (5xx, 429, timeouts, network errors) are
// retried up to a bounded attempt budget; configuration errors, malformed
// responses and other 4xx rejections fail immediately. Every failure crosses
// the package boundary as an *Error carrying one of the closed Kind values.
//
// Manager implements oauth2.TokenSource, so it can back an oauth2.Transport:
//
//	client := &http.Client{Transport: &oauth2.Transport{Source: manager}}
package oauth
