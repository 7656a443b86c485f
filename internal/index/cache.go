package index

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// bytesPerNode is the sizing assumption for turning a memory budget into an
// entry count.
const bytesPerNode = 100_000

// DefaultCacheEntries bounds the cache when no memory budget is given.
const DefaultCacheEntries = 1000

// Key identifies a cached materialization. Tempid must be part of the key:
// an uncommitted in-memory version of a node shares its id with the
// persisted one but not its content.
type Key struct {
	ID     string
	Tempid string
}

func (k Key) flightKey() string { return k.ID + "\x00" + k.Tempid }

// Cache is a bounded LRU of materialized nodes with single-flight
// resolution: concurrent lookups of the same uncached key run the compute
// function once and share its result.
type Cache struct {
	lru    *lru.Cache[Key, *Node]
	flight singleflight.Group
}

// NewCache sizes a cache from a memory budget in bytes; a zero or negative
// budget uses DefaultCacheEntries.
func NewCache(memoryBytes int64) *Cache {
	entries := int(memoryBytes / bytesPerNode)
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	c, _ := lru.New[Key, *Node](entries)
	return &Cache{lru: c}
}

// Lookup returns the cached node for key, computing and storing it on miss.
// A failed compute leaves no entry behind, so a later caller can retry.
func (c *Cache) Lookup(key Key, compute func() (*Node, error)) (*Node, error) {
	if n, ok := c.lru.Get(key); ok {
		return n, nil
	}
	v, err, _ := c.flight.Do(key.flightKey(), func() (any, error) {
		if n, ok := c.lru.Get(key); ok {
			return n, nil
		}
		n, err := compute()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, n)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

// Evict drops the entry for key if present.
func (c *Cache) Evict(key Key) {
	c.lru.Remove(key)
}

// EvictID drops every cached version of a logical node id. Writers call
// this after persisting new content for the id so stale materializations
// are re-fetched.
func (c *Cache) EvictID(id string) {
	for _, key := range c.lru.Keys() {
		if key.ID == id {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of cached nodes.
func (c *Cache) Len() int { return c.lru.Len() }
