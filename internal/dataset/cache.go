package dataset

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of snapshots kept in memory.
const DefaultCacheSize = 8

// Cache memoizes snapshots by composite source identity.
type Cache struct {
	entries *lru.Cache[string, *Snapshot]
}

// NewCache returns a cache holding at most size snapshots.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the snapshot stored under key.
func (c *Cache) Get(key string) (*Snapshot, bool) { return c.entries.Get(key) }

// Add stores snap under key.
func (c *Cache) Add(key string, snap *Snapshot) { c.entries.Add(key, snap) }

// Invalidate evicts key, reporting whether it was present.
func (c *Cache) Invalidate(key string) bool { return c.entries.Remove(key) }

// InvalidateSource evicts every snapshot whose key mentions the source
// identity fragment and returns how many were removed.
func (c *Cache) InvalidateSource(fragment string) int {
	removed := 0
	for _, key := range c.entries.Keys() {
		if strings.Contains(key, fragment) && c.entries.Remove(key) {
			removed++
		}
	}
	return removed
}

// Purge drops every snapshot.
func (c *Cache) Purge() { c.entries.Purge() }

// Len reports the number of cached snapshots.
func (c *Cache) Len() int { return c.entries.Len() }
