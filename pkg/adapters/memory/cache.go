package memory

import (
	"context"
	"sync"
	"time"

	"github.com/isaid22/agentloop/pkg/domain"
)

type cacheEntry struct {
	result  domain.ActionResult
	expires time.Time // zero means never
}

// Cache implements ports.ResultCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// CacheOption configures the Cache.
type CacheOption func(*Cache)

// WithTTL sets how long entries stay valid. Zero keeps them forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a new in-memory result cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached result for key. Expired entries count as misses.
func (c *Cache) Get(ctx context.Context, key string) (domain.ActionResult, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return domain.ActionResult{}, false, nil
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, still := c.data[key]; still && cur.expires.Equal(entry.expires) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return domain.ActionResult{}, false, nil
	}
	return entry.result, true, nil
}

// Set stores result under key.
func (c *Cache) Set(ctx context.Context, key string, result domain.ActionResult) error {
	entry := cacheEntry{result: result}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
