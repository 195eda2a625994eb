// Package estimator resolves approximate total counts for quad patterns.
//
// A count is answered from the cache when possible. While a count for the
// same pattern is already being fetched, callers get the default estimate
// immediately instead of waiting or issuing a second request. Cold patterns
// trigger one count request that races a timer; when the timer wins the
// caller gets the default estimate and the request keeps running so that
// its result can still be cached for later callers.
package estimator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/countcache"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/encoding"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

const (
	DefaultTimeout = 3 * time.Second

	// DefaultCacheThreshold is the smallest count worth caching. Smaller
	// counts are cheap for the endpoint to recompute.
	DefaultCacheThreshold = 100000
)

// Counter fetches the exact number of edges matching a pattern.
type Counter interface {
	Count(ctx context.Context, pattern store.Pattern) (int64, error)
}

// Options configures an Estimator. Zero values select the defaults.
type Options struct {
	// Endpoint namespaces cache keys.
	Endpoint       string
	Timeout        time.Duration
	CacheThreshold int64

	// Store optionally persists cached counts across restarts.
	Store   *store.CountStore
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Estimator is safe for concurrent use.
type Estimator struct {
	counter   Counter
	cache     *countcache.Cache
	store     *store.CountStore
	group     singleflight.Group
	endpoint  string
	timeout   time.Duration
	threshold int64
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an estimator that resolves counts with counter and keeps
// them in cache.
func New(counter Counter, cache *countcache.Cache, opts Options) *Estimator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheThreshold <= 0 {
		opts.CacheThreshold = DefaultCacheThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Estimator{
		counter:   counter,
		cache:     cache,
		store:     opts.Store,
		endpoint:  opts.Endpoint,
		timeout:   opts.Timeout,
		threshold: opts.CacheThreshold,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Estimate returns the total count for pattern. It never blocks longer than
// the configured timeout. Errors are only returned when the count request
// itself fails before the timeout.
func (e *Estimator) Estimate(ctx context.Context, pattern store.Pattern) (store.Metadata, error) {
	key := encoding.PatternKey(e.endpoint, pattern)

	if count, ok := e.cache.Get(key); ok {
		e.metrics.CountEstimates.WithLabelValues(metrics.CountHit).Inc()
		return store.Metadata{TotalCount: count, HasExactCount: true}, nil
	}
	if count, ok := e.loadPersisted(key); ok {
		e.cache.Set(key, count)
		e.metrics.CountEstimates.WithLabelValues(metrics.CountPersisted).Inc()
		return store.Metadata{TotalCount: count, HasExactCount: true}, nil
	}

	if !e.cache.Acquire(key) {
		e.metrics.CountEstimates.WithLabelValues(metrics.CountPending).Inc()
		return store.DefaultCountEstimate, nil
	}

	// Acquire admits one resolution per key, so DoChan never has a second
	// caller to merge; it runs the resolution detached and hands back the
	// result channel. The resolution outlives this call when the timer wins,
	// so it must not be cancelled together with the caller.
	resolveCtx := context.WithoutCancel(ctx)
	results := e.group.DoChan(key, func() (any, error) {
		defer e.cache.Release(key)
		return e.resolve(resolveCtx, key, pattern)
	})

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.Err != nil {
			e.metrics.CountEstimates.WithLabelValues(metrics.CountError).Inc()
			return store.Metadata{}, res.Err
		}
		e.metrics.CountEstimates.WithLabelValues(metrics.CountExact).Inc()
		return store.Metadata{TotalCount: res.Val.(int64), HasExactCount: true}, nil
	case <-timer.C:
		e.metrics.CountEstimates.WithLabelValues(metrics.CountTimeout).Inc()
		e.logger.Debug("count estimate timed out", "key", key, "timeout", e.timeout)
		return store.DefaultCountEstimate, nil
	case <-ctx.Done():
		return store.Metadata{}, ctx.Err()
	}
}

func (e *Estimator) resolve(ctx context.Context, key string, pattern store.Pattern) (int64, error) {
	count, err := e.counter.Count(ctx, pattern)
	if err != nil {
		e.logger.Debug("count request failed", "key", key, "error", err)
		return 0, err
	}

	if count > e.threshold {
		e.cache.Set(key, count)
		if e.store != nil {
			if err := e.store.SaveCount(key, count); err != nil {
				e.logger.Warn("failed to persist count", "key", key, "error", err)
			}
		}
	}
	return count, nil
}

func (e *Estimator) loadPersisted(key string) (int64, bool) {
	if e.store == nil {
		return 0, false
	}
	count, ok, err := e.store.LoadCount(key)
	if err != nil {
		e.logger.Warn("failed to load persisted count", "key", key, "error", err)
		return 0, false
	}
	return count, ok
}
