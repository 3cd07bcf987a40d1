// Package cache provides a bounded in-memory store with per-entry expiry.
//
// Eviction follows pure insertion order: when the store is full the entry
// inserted earliest is dropped, and reads do not promote entries. Re-setting
// an existing key removes the old entry first, so it counts once and moves to
// the back of the insertion order.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time // zero means no expiry
}

type Cache[V any] struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = oldest insertion
	capacity int

	sweepOnce sync.Once
	done      chan struct{}
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int) *Cache[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[V]{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		done:     make(chan struct{}),
	}
}

// Get returns the value for key. An expired entry is deleted and reported
// as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.removeLocked(el)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL. A ttl of 0 keeps the entry
// until eviction. When the cache is full, the oldest-inserted entry is
// evicted first.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.removeLocked(oldest)
		}
	}

	e := &entry[V]{key: key, value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.items[key] = c.order.PushBack(e)
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// PruneExpired scans the whole store and removes entries whose expiry has
// passed, returning how many were dropped.
func (c *Cache[V]) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry[V])
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			c.removeLocked(el)
			removed++
		}
		el = next
	}
	return removed
}

// Len reports the number of held entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// StartSweeper runs PruneExpired on a fixed interval until Stop is called.
func (c *Cache[V]) StartSweeper(interval time.Duration) {
	c.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.PruneExpired()
				case <-c.done:
					return
				}
			}
		}()
	})
}

// Stop terminates the sweeper goroutine if one is running.
func (c *Cache[V]) Stop() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[V])
	c.order.Remove(el)
	delete(c.items, e.key)
}
