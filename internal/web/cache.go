// Package web implements a read-through page cache with a per-URL access
// counter. Pages live in the key-value store under cache:<url> for a fixed
// TTL; count:<url> counts every request, served from cache or not.
package web

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"redis_basic/internal/cache"
	"redis_basic/internal/instrument"
	"redis_basic/internal/logger"
	"redis_basic/internal/storage"
)

// DefaultTTL is how long a fetched page stays cached.
const DefaultTTL = 10 * time.Second

// CacheKey is where the content of url is cached.
func CacheKey(url string) string {
	return "cache:" + url
}

// CountKey is where requests for url are counted.
func CountKey(url string) string {
	return "count:" + url
}

// Cache serves pages from the store and falls back to the fetcher.
type Cache struct {
	store    storage.KeyValueStore
	fetcher  Fetcher
	ttl      time.Duration
	registry prometheus.Registerer
	metrics  *cacheMetrics
	fetch    instrument.Op[string, string]
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithMetrics registers hit, miss and fetch metrics with registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(c *Cache) {
		c.registry = registerer
	}
}

// New creates a Cache over store using fetcher for misses.
func New(store storage.KeyValueStore, fetcher Fetcher, opts ...Option) (*Cache, error) {
	c := &Cache{
		store:   store,
		fetcher: fetcher,
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.ttl <= 0 {
		return nil, fmt.Errorf("invalid cache TTL %s", c.ttl)
	}

	if c.registry != nil {
		m, err := newCacheMetrics(c.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register web cache metrics: %w", err)
		}
		c.metrics = m
	}

	// count:<url> wraps the expiring lookup, so every request is counted
	// before the cache is consulted.
	c.fetch = instrument.CountBy(store, CountKey,
		instrument.Expiring(store, CacheKey, c.ttl, c.origin,
			instrument.OnHit(func(string) { c.metrics.recordHit() }),
			instrument.OnMiss(func(string) { c.metrics.recordMiss() }),
		),
	)

	return c, nil
}

// Fetch returns the content of url, from the cache when a live copy exists.
// Origin failures are returned as-is and nothing is cached; the access
// counter has already been incremented by then.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	return c.fetch(ctx, url)
}

// Count returns how many times url has been requested.
func (c *Cache) Count(ctx context.Context, url string) (int64, error) {
	raw, ok, err := c.store.Get(ctx, CountKey(url))
	if err != nil || !ok {
		return 0, err
	}
	return cache.DecodeInt64(raw)
}

// TTL returns the cache lifetime of fetched pages.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// origin performs the uncached fetch.
func (c *Cache) origin(ctx context.Context, url string) (string, error) {
	start := time.Now()
	content, err := c.fetcher.Fetch(ctx, url)
	c.metrics.recordFetch(time.Since(start).Seconds(), err)

	if err != nil {
		logger.Warn().Str("url", url).Err(err).Msg("origin fetch failed")
		return "", err
	}

	logger.Debug().Str("url", url).Int("bytes", len(content)).Dur("ttl", c.ttl).Msg("page fetched")
	return content, nil
}
