package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
)

// CachedSource wraps an ObservationSource with an in-memory LRU cache keyed by
// dataset, region, and year.
type CachedSource struct {
	inner   domain.ObservationSource
	cache   *lruCache[[]domain.Observation]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner domain.ObservationSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache[[]domain.Observation](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Observations(ctx context.Context, ds domain.Dataset, region domain.Region, year domain.YearBucket) ([]domain.Observation, error) {
	key := cacheKey(ds, region, year)
	if obs, ok := c.cache.get(key); ok {
		c.metrics.CatalogCache.WithLabelValues(ds.ID, "hit").Inc()
		return obs, nil
	}
	c.metrics.CatalogCache.WithLabelValues(ds.ID, "miss").Inc()

	obs, err := c.inner.Observations(ctx, ds, region, year)
	if err != nil {
		// Errors, including unavailable years, are not cached so a later
		// request sees newly published data.
		return nil, err
	}
	c.cache.put(key, obs)
	return obs, nil
}

func cacheKey(ds domain.Dataset, region domain.Region, year domain.YearBucket) string {
	box, _ := region.BBox()
	return fmt.Sprintf("%s|%s|%s|%s|%d", ds.ID, ds.Band, region.ID, box, year)
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
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

func (c *lruCache[V]) remove(e *entry[V]) {
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

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
