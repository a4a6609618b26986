package cache

import (
	"sync"
	"time"
)

// Memory provides in-memory caching with TTL.
type Memory[V any] struct {
	mu       sync.RWMutex
	items    map[string]memoryItem[V]
	ttl      time.Duration
	maxItems int
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type memoryItem[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryConfig holds in-memory cache configuration.
type MemoryConfig struct {
	TTL      time.Duration
	MaxItems int
	Now      func() time.Time
}

// NewMemory creates a new in-memory cache and starts its cleanup loop.
// Call Close to stop the loop.
func NewMemory[V any](cfg MemoryConfig) *Memory[V] {
	if cfg.TTL == 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.MaxItems == 0 {
		cfg.MaxItems = 1000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Memory[V]{
		items:    make(map[string]memoryItem[V]),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
		now:      cfg.Now,
		stop:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves an item from the cache.
func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	item, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(item.expiresAt) {
		return zero, false
	}
	return item.value, true
}

// Set stores an item with the default TTL.
func (c *Memory[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores an item with a custom TTL.
func (c *Memory[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = memoryItem[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes an item from the cache.
func (c *Memory[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache.
func (c *Memory[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]memoryItem[V])
}

// Len returns the number of items in the cache.
func (c *Memory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup loop.
func (c *Memory[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// evictOldest removes expired items, then the soonest-expiring 10% if still
// at capacity. Must be called with lock held.
func (c *Memory[V]) evictOldest() {
	c.removeExpired()

	if len(c.items) < c.maxItems {
		return
	}

	toRemove := c.maxItems / 10
	if toRemove < 1 {
		toRemove = 1
	}

	var oldest []string
	var oldestTimes []time.Time

	for key, item := range c.items {
		if len(oldest) < toRemove {
			oldest = append(oldest, key)
			oldestTimes = append(oldestTimes, item.expiresAt)
			continue
		}
		for i, t := range oldestTimes {
			if item.expiresAt.Before(t) {
				oldest[i] = key
				oldestTimes[i] = item.expiresAt
				break
			}
		}
	}

	for _, key := range oldest {
		delete(c.items, key)
	}
}

func (c *Memory[V]) removeExpired() {
	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

// cleanup periodically removes expired items.
func (c *Memory[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.removeExpired()
			c.mu.Unlock()
		}
	}
}
