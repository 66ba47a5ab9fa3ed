package tokencache

import (
	"log/slog"
	"sync"
	"time"
)

// Info is a diagnostic snapshot of the cache state.
// ExpiresAt and SecondsRemaining are set only while a token is cached;
// SecondsRemaining additionally requires the token to still be valid.
type Info struct {
	HasToken         bool       `json:"has_token"`
	Expired          bool       `json:"is_expired"`
	ExpiresAt        *time.Time `json:"expiration_time,omitempty"`
	SecondsRemaining *int64     `json:"seconds_until_expiration,omitempty"`
}

// Cache holds at most one bearer token together with its safety-adjusted
// expiry instant. The expiry is intentionally earlier than the provider's
// declared lifetime: the configured buffer is subtracted at store time so
// the token is treated as expired while there is still time to refresh it.
//
// Cache is a single-writer/multi-reader store: reads take a shared lock,
// writes an exclusive one. The token and its expiry are always set and
// cleared together.
type Cache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	buffer time.Duration

	// now is swapped out in tests for deterministic expiry checks.
	now func() time.Time
}

// New creates an empty Cache with the given safety buffer.
func New(buffer time.Duration) *Cache {
	return &Cache{
		buffer: buffer,
		now:    time.Now,
	}
}

// Store caches a token whose provider-declared lifetime is expiresIn seconds.
// The effective lifetime is expiresIn minus the safety buffer, floored at
// zero; a zero effective lifetime stores the token already expired rather
// than silently treating it as valid.
//
// A non-positive expiresIn means the provider gave us nothing cacheable:
// the call is a no-op and the previous cache state is preserved.
func (c *Cache) Store(token string, expiresIn int64) {
	if expiresIn <= 0 {
		slog.Warn("invalid expires_in value, token not cached", "expires_in", expiresIn)
		return
	}

	effective := max(expiresIn-int64(c.buffer.Seconds()), 0)

	c.mu.Lock()
	c.token = token
	c.expiresAt = c.now().Add(time.Duration(effective) * time.Second)
	c.mu.Unlock()

	slog.Info("token cached",
		"expires_in", expiresIn,
		"buffer_seconds", int64(c.buffer.Seconds()),
		"effective_lifetime_seconds", effective,
	)
}

// Fetch returns the cached token if one is present and not yet expired.
func (c *Cache) Fetch() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" || !c.now().Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// IsExpired reports whether the cache is empty or the token has reached its
// safety-adjusted expiry. The boundary is inclusive: at exactly the expiry
// instant the token counts as expired.
func (c *Cache) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isExpiredLocked()
}

func (c *Cache) isExpiredLocked() bool {
	return c.token == "" || !c.now().Before(c.expiresAt)
}

// Clear unconditionally empties the cache. Idempotent.
func (c *Cache) Clear() {
	c.mu.Lock()
	hadToken := c.token != ""
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	if hadToken {
		slog.Info("token cleared from cache")
	}
}

// Describe returns a diagnostic snapshot of the cache. The token value
// itself is never included.
func (c *Cache) Describe() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := Info{
		HasToken: c.token != "",
		Expired:  c.isExpiredLocked(),
	}
	if c.token != "" {
		expiresAt := c.expiresAt
		info.ExpiresAt = &expiresAt
	}
	if c.token != "" && !info.Expired {
		remaining := int64(c.expiresAt.Sub(c.now()).Seconds())
		info.SecondsRemaining = &remaining
	}
	return info
}
