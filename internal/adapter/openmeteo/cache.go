package openmeteo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedProvider wraps a ForecastProvider with an in-memory LRU cache whose
// entries expire after a fixed TTL.
type CachedProvider struct {
	inner   domain.ForecastProvider
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a forecast provider.
func NewCachedProvider(inner domain.ForecastProvider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

// Fetch serves a cached forecast for the coordinate when one is still fresh.
// Coordinates are rounded to four decimals (about 11 m) for the key.
// A non-positive TTL disables caching and every call goes to the inner provider.
func (c *CachedProvider) Fetch(ctx context.Context, lat, lon float64) (domain.Forecast, error) {
	if c.ttl <= 0 {
		return c.inner.Fetch(ctx, lat, lon)
	}
	key := fmt.Sprintf("%.4f,%.4f", round4(lat), round4(lon))
	now := c.clock.Now()

	if f, ok := c.cache.get(key, now); ok {
		c.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return f, nil
	}
	c.metrics.ForecastCache.WithLabelValues("miss").Inc()

	f, err := c.inner.Fetch(ctx, lat, lon)
	if err != nil {
		return f, err
	}
	// Only successes are cached so upstream outages are retried on the next request.
	c.cache.put(key, f, now.Add(c.ttl))
	return f, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// lruCache is a simple thread-safe LRU cache of forecasts with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.Forecast
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key string, now time.Time) (domain.Forecast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Forecast{}, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.Forecast{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Forecast, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
