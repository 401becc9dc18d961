package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is an LRU-backed Store. Values are round-tripped through msgpack so
// the underlying map holds opaque bytes rather than a concrete type,
// keeping the storage decoupled from any one command's result type.
type Cache[T any] struct {
	lru *lru.Cache[string, []byte]
}

// New constructs a Cache holding at most size entries.
func New[T any](size int) (*Cache[T], error) {
	inner, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache[T]{lru: inner}, nil
}

// Get returns the cached value for key. A stored value that fails to
// decode is treated as a miss and evicted.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	raw, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	var value T
	if err := msgpack.Unmarshal(raw, &value); err != nil {
		c.lru.Remove(key)
		return zero, false
	}
	return value, true
}

// Put serializes value and stores it under key, evicting the
// least-recently-used entry if the cache is at capacity. A serialization
// failure is silently dropped: a cache miss on the next Get is an
// acceptable outcome, a panic is not.
func (c *Cache[T]) Put(key string, value T) {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return
	}
	c.lru.Add(key, raw)
}

// Len returns the number of entries currently cached.
func (c *Cache[T]) Len() int {
	return c.lru.Len()
}

// Purge removes all entries. Used between requests when the cache is
// scoped to a single invocation batch rather than the process lifetime.
func (c *Cache[T]) Purge() {
	c.lru.Purge()
}
