package services

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// CacheStats reports diagram cache activity.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
	Capacity  int
}

type cacheEntry struct {
	hash   string
	result domain.RenderedDiagram
}

// DiagramCache is a bounded LRU of terminal render results keyed by spec hash.
// Get and Put serialise on one mutex; Peek takes the read lock only.
type DiagramCache struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List // front is most recently used
	entries  map[string]*list.Element

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewDiagramCache creates a cache holding at most capacity results.
func NewDiagramCache(capacity int) *DiagramCache {
	if capacity <= 0 {
		capacity = domain.DefaultCacheCapacity
	}
	return &DiagramCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the stored result and marks it most recently used.
func (c *DiagramCache) Get(hash string) (domain.RenderedDiagram, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[hash]
	if !ok {
		c.misses.Add(1)
		return domain.RenderedDiagram{}, false
	}
	c.order.MoveToFront(el)
	c.hits.Add(1)
	return el.Value.(*cacheEntry).result, true
}

// Peek returns the stored result without touching recency or stats.
func (c *DiagramCache) Peek(hash string) (domain.RenderedDiagram, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.entries[hash]
	if !ok {
		return domain.RenderedDiagram{}, false
	}
	return el.Value.(*cacheEntry).result, true
}

// Put stores a result, evicting the least recently used entries beyond capacity.
// It returns the hashes that were evicted.
func (c *DiagramCache) Put(result domain.RenderedDiagram) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[result.Hash]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[result.Hash] = c.order.PushFront(&cacheEntry{hash: result.Hash, result: result})

	var evicted []string
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		entry := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, entry.hash)
		c.evictions.Add(1)
		evicted = append(evicted, entry.hash)
	}
	return evicted
}

// Remove drops one entry.
func (c *DiagramCache) Remove(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[hash]; ok {
		c.order.Remove(el)
		delete(c.entries, hash)
	}
}

// Len returns the number of stored results.
func (c *DiagramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Capacity returns the configured bound.
func (c *DiagramCache) Capacity() int {
	return c.capacity
}

// Stats returns a point-in-time view of cache counters.
func (c *DiagramCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
		Capacity:  c.capacity,
	}
}
