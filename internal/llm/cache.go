package llm

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/engine"
)

// cacheEntry represents a cached classifier answer.
type cacheEntry struct {
	expiry     time.Time
	suggestion engine.Suggestion
}

// suggestionCache provides thread-safe caching of answers per merchant.
type suggestionCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newSuggestionCache creates a new cache with the specified TTL.
func newSuggestionCache(ttl time.Duration) *suggestionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &suggestionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// cacheKey identifies a request independent of its transaction id. Validation
// requests are keyed separately per proposed category. Requests without a
// merchant are never cached.
func cacheKey(req engine.ClassificationRequest) string {
	if strings.TrimSpace(req.Merchant) == "" {
		return ""
	}
	return strings.ToLower(req.Merchant) + "|" + strings.ToLower(req.Candidate)
}

// get retrieves a suggestion from the cache if it exists and hasn't expired.
func (c *suggestionCache) get(key string) (engine.Suggestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return engine.Suggestion{}, false
	}

	if time.Now().After(entry.expiry) {
		return engine.Suggestion{}, false
	}

	return entry.suggestion, true
}

// set stores a suggestion in the cache.
func (c *suggestionCache) set(key string, suggestion engine.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		suggestion: suggestion,
		expiry:     time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *suggestionCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *suggestionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *suggestionCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}
