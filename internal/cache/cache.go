// Package cache provides the in-memory read cache for catalog and ledger listings.
//
// Entries are keyed by query signature. Writers bracket their database
// transaction with BeginWrite and EndWrite; both clear the cache and bump its
// generation. A reader only stores what it loaded when no write is in flight
// and the generation did not move while it was loading, so a listing read
// before a commit can never be served after it.
package cache

import (
	"context"
	"sync"
)

// Cache is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]T
	gen     uint64
	writers int
}

// New returns an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]T)}
}

// Get returns the cached value for key. Nothing is served while a write is in flight.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.writers > 0 {
		return zero, false
	}
	v, ok := c.entries[key]
	return v, ok
}

// Generation returns the current generation, to be passed back to Fill.
func (c *Cache[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Fill stores v under key if the cache is still at generation gen and no
// write is in flight. It reports whether v was stored.
func (c *Cache[T]) Fill(key string, gen uint64, v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writers > 0 || c.gen != gen {
		return false
	}
	c.entries[key] = v
	return true
}

// BeginWrite marks a mutation of the backing table as in flight.
func (c *Cache[T]) BeginWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writers++
	c.invalidate()
}

// EndWrite ends a mutation started with BeginWrite, whether it committed or not.
func (c *Cache[T]) EndWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writers > 0 {
		c.writers--
	}
	c.invalidate()
}

// Invalidate drops every entry.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate()
}

func (c *Cache[T]) invalidate() {
	c.gen++
	clear(c.entries)
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Load returns the cached value for key or calls load and caches its result.
func (c *Cache[T]) Load(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	gen := c.Generation()
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Fill(key, gen, v)
	return v, nil
}
