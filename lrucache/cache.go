/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConfiguration is returned by the constructors when the cache cannot be built with the passed parameters.
var ErrInvalidConfiguration = errors.New("invalid cache configuration")

type cacheEntry[K comparable, V any] struct {
	key        K
	value      V
	insertedAt time.Time
}

// LRUCache represents an LRU cache with lazy expiration of entries and Prometheus metrics.
// Expired entries are never removed in background,
// they are purged only when touched by Get, Add or by the eviction scan.
type LRUCache[K comparable, V any] struct {
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	lruList *list.List          // front is the most recently used entry
	cache   map[K]*list.Element // map of cache entries, value is a lruList element

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	metricsCollector MetricsCollector
}

// Options represents options for the cache.
type Options struct {
	// Now returns the current time. It's used for calculating age of the entries.
	// time.Now is used if it's not set.
	Now func() time.Time
}

// New creates a new LRUCache with the provided maximum number of entries, TTL and metrics collector.
func New[K comparable, V any](maxEntries int, ttl time.Duration, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](maxEntries, ttl, metricsCollector, Options{})
}

// NewWithOpts creates a new LRUCache with the provided maximum number of entries, TTL, metrics collector, and options.
// Metrics collector is used to collect statistics about cache usage.
// It can be nil, in this case, metrics will be disabled.
func NewWithOpts[K comparable, V any](
	maxEntries int, ttl time.Duration, metricsCollector MetricsCollector, opts Options,
) (*LRUCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: maxEntries must be greater than 0, got %d", ErrInvalidConfiguration, maxEntries)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be greater than 0, got %s", ErrInvalidConfiguration, ttl)
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &LRUCache[K, V]{
		maxEntries:       maxEntries,
		ttl:              ttl,
		now:              opts.Now,
		lruList:          list.New(),
		cache:            make(map[K]*list.Element),
		metricsCollector: metricsCollector,
	}, nil
}

// Get returns a value from the cache by the provided key.
// On hit the entry becomes the most recently used one.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, hit := c.cache[key]
	if !hit {
		c.misses++
		c.metricsCollector.IncMisses()
		return value, false
	}
	entry := elem.Value.(*cacheEntry[K, V])
	if c.isExpired(entry, c.now()) {
		c.removeElement(elem)
		c.expirations++
		c.metricsCollector.AddExpirations(1)
		c.metricsCollector.SetAmount(len(c.cache))
		c.misses++
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.lruList.MoveToFront(elem)
	c.hits++
	c.metricsCollector.IncHits()
	return entry.value, true
}

// Add adds a value to the cache with the provided key or overwrites the existing one.
// Age of the entry is reset to zero.
// If the key is new and the cache is full, exactly one entry is removed first:
// an expired entry from the least recently used end if there is one, otherwise the least recently used live entry.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value = &cacheEntry[K, V]{key: key, value: value, insertedAt: now}
		return
	}

	for len(c.cache) >= c.maxEntries {
		elem := c.lruList.Back()
		if elem == nil {
			break
		}
		c.removeElement(elem)
		if c.isExpired(elem.Value.(*cacheEntry[K, V]), now) {
			c.expirations++
			c.metricsCollector.AddExpirations(1)
			continue
		}
		c.evictions++
		c.metricsCollector.AddEvictions(1)
	}

	c.cache[key] = c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value, insertedAt: now})
	c.metricsCollector.SetAmount(len(c.cache))
}

// Remove removes a value from the cache by the provided key.
// Removed entries are counted neither as evictions nor as expirations.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	c.metricsCollector.SetAmount(len(c.cache))
	return true
}

// Purge clears the cache.
// Keep in mind that this method does not reset cumulative statistics (hits, misses, evictions and expirations),
// they reflect the lifetime usage of the cache, not its current contents.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metricsCollector.SetAmount(0)
	c.cache = make(map[K]*list.Element)
	c.lruList.Init()
}

// Len returns the number of items in the cache.
// Expired entries which were not touched yet are counted too.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Capacity returns the maximum number of entries in the cache.
func (c *LRUCache[K, V]) Capacity() int {
	return c.maxEntries
}

// TTL returns the time-to-live of the cache entries.
func (c *LRUCache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Stats returns a snapshot of the cache statistics.
func (c *LRUCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:        len(c.cache),
		Capacity:    c.maxEntries,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		HitRate:     formatHitRate(c.hits, c.misses),
	}
}

func (c *LRUCache[K, V]) isExpired(entry *cacheEntry[K, V], now time.Time) bool {
	return now.Sub(entry.insertedAt) > c.ttl
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.lruList.Remove(elem)
	delete(c.cache, elem.Value.(*cacheEntry[K, V]).key)
}
