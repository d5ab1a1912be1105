// Package cache holds recognition results keyed by image fingerprint.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/Veraticus/foodlens/internal/model"
)

// Defaults for a ResultCache.
const (
	DefaultCapacity = 50
	DefaultTTL      = time.Hour
)

// cacheEntry represents a cached recognition result.
type cacheEntry struct {
	insertedAt time.Time
	key        string
	value      model.RecognitionResult
}

// Stats reports cache activity since construction.
type Stats struct {
	Entries     int   `json:"entries"`
	Capacity    int   `json:"capacity"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
}

// ResultCache is a bounded, time-limited map from fingerprint to result.
//
// Every operation holds one mutex, so a get/evict/put sequence from
// overlapping requests can never break the capacity bound. Eviction removes
// the entry inserted earliest; reads do not refresh an entry's position.
// Expired entries are dropped lazily when read, there is no sweeper.
type ResultCache struct {
	now      func() time.Time
	entries  map[string]*list.Element
	order    *list.List
	ttl      time.Duration
	capacity int
	stats    Stats
	mu       sync.Mutex
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		c.now = now
	}
}

// New creates a cache holding at most capacity entries for ttl each.
// Non-positive values fall back to DefaultCapacity and DefaultTTL.
func New(capacity int, ttl time.Duration, opts ...Option) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &ResultCache{
		now:      time.Now,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		ttl:      ttl,
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the live result stored under key.
func (c *ResultCache) Get(key string) (model.RecognitionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return model.RecognitionResult{}, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.insertedAt) > c.ttl {
		c.remove(elem)
		c.stats.Expirations++
		c.stats.Misses++
		return model.RecognitionResult{}, false
	}

	c.stats.Hits++
	return entry.value.Clone(), true
}

// Put stores a copy of value under key. Storing an existing key replaces the
// value and restarts its TTL. A new key at capacity evicts the oldest insert.
func (c *ResultCache) Put(key string, value model.RecognitionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value.Clone()
		entry.insertedAt = now
		c.order.MoveToBack(elem)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.remove(oldest)
		c.stats.Evictions++
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:        key,
		value:      value.Clone(),
		insertedAt: now,
	})
}

// Clear removes all entries from the cache.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Len returns the number of stored entries, including ones that have
// expired but not been read since.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	s.Capacity = c.capacity
	return s
}

// remove must be called with mu held.
func (c *ResultCache) remove(elem *list.Element) {
	entry := c.order.Remove(elem).(*cacheEntry)
	delete(c.entries, entry.key)
}
