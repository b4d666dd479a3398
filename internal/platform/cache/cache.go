// Package cache provides an in-memory caching layer with TTL and LRU eviction.
// The geolocation provider uses it to avoid re-querying the same IP within a scan.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache defines the interface for a generic cache
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found, nil and false otherwise.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL.
	// If ttl is 0, the item never expires.
	Set(key string, value interface{}, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Size returns the current number of items in the cache.
	Size() int
}

// entry represents a cached item with metadata
type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
	element   *list.Element // for LRU tracking
}

// MemoryCache implements an in-memory LRU cache with TTL support
type MemoryCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*entry
	lruList  *list.List
}

// NewMemoryCache creates a new in-memory cache with the specified capacity.
// When the cache reaches capacity, the least recently used item is evicted.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 100 // default capacity
	}

	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*entry),
		lruList:  list.New(),
	}
}

// Get retrieves a value from the cache.
// If the item exists and hasn't expired, it's marked as recently used.
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.deleteEntry(entry)
		return nil, false
	}

	c.lruList.MoveToFront(entry.element)

	return entry.value, true
}

// Set stores a value in the cache with a TTL.
// If the key already exists, its value and TTL are updated.
// If ttl is 0, the item never expires.
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if existing, exists := c.items[key]; exists {
		existing.value = value
		existing.expiresAt = expiresAt
		c.lruList.MoveToFront(existing.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictLRU()
	}

	entry := &entry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	entry.element = c.lruList.PushFront(entry)
	c.items[key] = entry
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		c.deleteEntry(entry)
	}
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.lruList.Init()
}

// Size returns the current number of items in the cache.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CleanExpired removes all expired items from the cache.
func (c *MemoryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	for _, entry := range c.items {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			c.deleteEntry(entry)
			removed++
		}
	}

	return removed
}

// evictLRU removes the least recently used item from the cache.
// Must be called with c.mu held.
func (c *MemoryCache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	c.deleteEntry(back.Value.(*entry))
}

// deleteEntry removes an entry from both the map and the LRU list.
// Must be called with c.mu held.
func (c *MemoryCache) deleteEntry(e *entry) {
	delete(c.items, e.key)
	if e.element != nil {
		c.lruList.Remove(e.element)
	}
}
