package countcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(maxSize int, ttl time.Duration) (*Cache, *fakeClock, *metrics.Metrics) {
	m := metrics.New()
	c := New(maxSize, ttl, m)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.now
	return c, clock, m
}

func TestGetSet(t *testing.T) {
	c, _, m := newTestCache(10, time.Hour)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 150000)
	n, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(150000), n)

	c.Set("a", 160000)
	n, _ = c.Get("a")
	assert.Equal(t, int64(160000), n)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
}

func TestExpiry(t *testing.T) {
	c, clock, _ := newTestCache(10, 3*time.Hour)

	c.Set("a", 1)
	clock.t = clock.t.Add(3*time.Hour - time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.t = clock.t.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c, _, m := newTestCache(3, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// touch a so that b becomes least recently used
	_, _ = c.Get("a")
	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictions))
}

func TestCapacityBound(t *testing.T) {
	c, _, _ := newTestCache(0, 0)
	for i := 0; i < DefaultMaxSize+50; i++ {
		c.Set(fmt.Sprintf("k%d", i), int64(i))
	}
	assert.Equal(t, DefaultMaxSize, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
}

func TestRemoveExpired(t *testing.T) {
	c, clock, _ := newTestCache(10, time.Minute)

	c.Set("old", 1)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("new", 2)
	clock.t = clock.t.Add(45 * time.Second)

	assert.Equal(t, 1, c.RemoveExpired())
	assert.Equal(t, 1, c.Len())
}

func TestAcquireRelease(t *testing.T) {
	c, _, _ := newTestCache(10, time.Hour)

	assert.True(t, c.Acquire("a"))
	assert.False(t, c.Acquire("a"))
	assert.True(t, c.Acquire("b"))

	c.Release("a")
	assert.True(t, c.Acquire("a"))
}

func TestEvictionMetrics(t *testing.T) {
	c, clock, m := newTestCache(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheSize))

	c.Set("c", 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictions))

	clock.t = clock.t.Add(time.Minute)
	assert.Equal(t, 2, c.RemoveExpired())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheSize))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheEvictions))

	// the evicted key left no expiry behind
	assert.Equal(t, 0, c.RemoveExpired())
}
