// Package countcache holds total counts per pattern hash with LRU and TTL
// eviction, together with the set of keys whose count is being resolved.
package countcache

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
)

const (
	DefaultMaxSize = 1000
	DefaultTTL     = 3 * time.Hour
)

type entry struct {
	count     int64
	expiresAt time.Time
}

// Cache is safe for concurrent use. Entries are evicted when they expire
// or when the cache grows past its maximum size, least recently used first.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries *lru.Cache
	expires map[string]time.Time // key -> expiry, for sweeps without touching recency
	pending map[string]struct{}
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a cache. Non-positive arguments select the defaults.
func New(maxSize int, ttl time.Duration, m *metrics.Metrics) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if m == nil {
		m = metrics.New()
	}
	c := &Cache{
		ttl:     ttl,
		entries: lru.New(maxSize),
		expires: make(map[string]time.Time),
		pending: make(map[string]struct{}),
		metrics: m,
		now:     time.Now,
	}
	// Called with mu held, from Add on overflow and from Remove.
	c.entries.OnEvicted = func(key lru.Key, _ interface{}) {
		delete(c.expires, key.(string))
		c.metrics.CacheEvictions.Inc()
		c.metrics.CacheSize.Set(float64(c.entries.Len()))
	}
	return c
}

// Get returns the count for key and marks it as recently used.
func (c *Cache) Get(key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries.Get(key)
	if !ok {
		c.metrics.CacheMisses.Inc()
		return 0, false
	}

	e := value.(entry)
	if !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		c.metrics.CacheMisses.Inc()
		return 0, false
	}

	c.metrics.CacheHits.Inc()
	return e.count, true
}

// Set stores a count, evicting the least recently used entry when full.
func (c *Cache) Set(key string, count int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	c.expires[key] = expiresAt
	c.entries.Add(key, entry{count: count, expiresAt: expiresAt})
	c.metrics.CacheSize.Set(float64(c.entries.Len()))
}

// Len returns the number of stored entries, expired ones included until
// they are noticed.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Acquire marks key as being resolved. It returns false when another
// resolution of key is already in progress.
func (c *Cache) Acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.pending[key]; busy {
		return false
	}
	c.pending[key] = struct{}{}
	return true
}

// Release ends the resolution of key.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
}

// RemoveExpired drops every expired entry and returns how many were dropped.
func (c *Cache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []string
	for key, expiresAt := range c.expires {
		if !now.Before(expiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.entries.Remove(key)
	}
	return len(expired)
}

// RunCleanup removes expired entries every interval until ctx is done.
func (c *Cache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RemoveExpired()
		}
	}
}
