package texindex

import (
	"image"
	"sync"

	"pbr-texpacker/internal/imaging"
)

// Cache is a concurrency-safe decoded-image cache over an Index.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img *image.NRGBA // nil if the load attempt failed
}

// NewCache creates a cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// ResolveNormal loads and caches the normal map matching srcPath's stem.
// Returns nil if none is found or it cannot be decoded.
func (c *Cache) ResolveNormal(srcPath string) *image.NRGBA {
	path, ok := c.index.ResolveNormal(srcPath)
	if !ok {
		return nil
	}
	return c.load(path)
}

// Load fetches an explicit path through the cache.
func (c *Cache) Load(path string) *image.NRGBA {
	return c.load(path)
}

func (c *Cache) load(path string) *image.NRGBA {
	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, _ := imaging.Load(path)

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		return entry.img
	}
	c.items[path] = &cacheEntry{img: img}
	c.mu.Unlock()

	return img
}
