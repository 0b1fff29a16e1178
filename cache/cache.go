package cache

import (
	"fmt"
	"sync"
)

// Policy selects how lookups affect eviction order.
type Policy uint8

const (
	// FIFO evicts in pure insertion order. Lookups do not reorder entries.
	FIFO Policy = iota

	// LRU evicts the least recently inserted or looked-up entry.
	LRU
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case FIFO:
		return "fifo"
	case LRU:
		return "lru"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// Cache is a fixed-capacity map with FIFO or LRU eviction.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[K, V]
	order    queue[K]
	capacity int
	policy   Policy

	hits      uint64
	misses    uint64
	evictions uint64
}

// entry holds a cached value with its queue node.
type entry[K comparable, V any] struct {
	value V
	node  *queueNode[K]
}

// New creates a cache holding at most capacity entries.
// New panics if capacity is less than 1 or policy is unknown.
func New[K comparable, V any](capacity int, policy Policy) *Cache[K, V] {
	if capacity < 1 {
		panic(fmt.Sprintf("cache: capacity %d, must be at least 1", capacity))
	}
	if policy != FIFO && policy != LRU {
		panic(fmt.Sprintf("cache: unknown policy %v", policy))
	}
	return &Cache[K, V]{
		entries:  make(map[K]*entry[K, V], capacity+1),
		capacity: capacity,
		policy:   policy,
	}
}

// Insert adds or overwrites the entry for key. An overwrite counts as a new
// insertion and moves key to the newest position.
//
// If the cache exceeds capacity, the oldest entry is removed and its key is
// returned with evicted set to true.
func (c *Cache[K, V]) Insert(key K, value V) (evictedKey K, evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.order.MoveToFront(e.node)
		return evictedKey, false
	}

	c.entries[key] = &entry[K, V]{
		value: value,
		node:  c.order.PushFront(key),
	}

	if len(c.entries) > c.capacity {
		if oldest, ok := c.order.RemoveOldest(); ok {
			delete(c.entries, oldest)
			c.evictions++
			return oldest, true
		}
	}
	return evictedKey, false
}

// Lookup returns the value for key.
// Under LRU a hit moves key to the newest position; under FIFO it does not.
func (c *Cache[K, V]) Lookup(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	if c.policy == LRU {
		c.order.MoveToFront(e.node)
	}
	return e.value, true
}

// Contains reports whether key is present without touching statistics or
// eviction order.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	return ok
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.Remove(e.node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V], c.capacity+1)
	c.order.Clear()
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Policy returns the eviction policy.
func (c *Cache[K, V]) Policy() Policy {
	return c.policy
}

// Keys returns the cached keys in eviction order, oldest first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Keys()
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Evictions: c.evictions,
	}
}

// ResetStats resets all statistics counters to zero.
func (c *Cache[K, V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries.
	Capacity int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when there were no lookups.
	HitRate float64
	// Evictions is the number of entries removed for capacity.
	Evictions uint64
}
