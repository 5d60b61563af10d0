// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used
(LRU) cache keyed by strings. The least recently used entry is evicted when
the cache is full.
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity, least-recently-used cache that is safe for
// concurrent use. Instances must be constructed with [New].
type Cache[V any] struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.Mutex
	onEvict   func(key string, value V)
}

type entry[V any] struct {
	key   string
	value V
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithEvictCallback registers f to run, outside the cache lock, for every
// entry pushed out by capacity. Explicit removals do not trigger it.
func WithEvictCallback[V any](f func(key string, value V)) Option[V] {
	return func(c *Cache[V]) {
		c.onEvict = f
	}
}

// New creates a cache holding at most size entries.
func New[V any](size int, opts ...Option[V]) (*Cache[V], error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache[V]{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Add adds or updates the value for key and marks it most recently used.
// Add reports whether an eviction occurred.
func (c *Cache[V]) Add(key string, value V) bool {
	c.lock.Lock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[V]).value = value
		c.lock.Unlock()

		return false
	}

	c.items[key] = c.evictList.PushFront(&entry[V]{key: key, value: value})

	evicted, ok := c.trimLocked()
	c.lock.Unlock()

	c.notify(evicted, ok)

	return ok
}

// GetOrAdd returns the value for key, creating it with create when absent.
// The lookup and insertion happen atomically; create runs under the lock
// and must not call back into the cache.
func (c *Cache[V]) GetOrAdd(key string, create func() V) (value V, existed bool) {
	c.lock.Lock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		value = ent.Value.(*entry[V]).value
		c.lock.Unlock()

		return value, true
	}

	value = create()
	c.items[key] = c.evictList.PushFront(&entry[V]{key: key, value: value})

	evicted, ok := c.trimLocked()
	c.lock.Unlock()

	c.notify(evicted, ok)

	return value, false
}

// Get retrieves the value for key and marks it as most recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	ent, ok := c.items[key]
	if !ok {
		var zero V

		return zero, false
	}

	c.evictList.MoveToFront(ent)

	return ent.Value.(*entry[V]).value, true
}

// Peek retrieves the value for key without modifying the LRU order.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	ent, ok := c.items[key]
	if !ok {
		var zero V

		return zero, false
	}

	return ent.Value.(*entry[V]).value, true
}

// Remove deletes key, reporting whether it was present.
func (c *Cache[V]) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	ent, ok := c.items[key]
	if ok {
		c.removeElement(ent)
	}

	return ok
}

// Keys returns all keys, from the oldest to the newest.
func (c *Cache[V]) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))

	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		keys = append(keys, ent.Value.(*entry[V]).key)
	}

	return keys
}

// Len returns the current number of items in the cache.
func (c *Cache[V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

// trimLocked drops the oldest entry when over capacity and returns it.
func (c *Cache[V]) trimLocked() (*entry[V], bool) {
	if c.evictList.Len() <= c.size {
		return nil, false
	}

	ent := c.evictList.Back()
	c.removeElement(ent)

	return ent.Value.(*entry[V]), true
}

func (c *Cache[V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	delete(c.items, ent.Value.(*entry[V]).key)
}

func (c *Cache[V]) notify(evicted *entry[V], ok bool) {
	if ok && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.value)
	}
}
