// Package tokencache provides in-memory storage for a single bearer token
// with safety-buffered expiry tracking.
//
// The cache applies a configurable buffer to the provider-declared token
// lifetime so that tokens are reported expired before the provider actually
// rejects them, leaving time for a proactive refresh:
//
//	cache := tokencache.New(5 * time.Minute)
//	cache.Store("eyJhbGc...", 3600) // reported expired after 3300s
//
//	if token, ok := cache.Fetch(); ok {
//		req.Header.Set("Authorization", "Bearer "+token)
//	}
//
// The cache is safe for concurrent use but holds tokens in process memory
// only; nothing survives a restart.
package tokencache
