package sampler

import (
	"image"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheCapacity = 32

// ImageCache maps source keys to decoded images. It is owned by the host
// and passed to a Loader; least recently used entries are evicted once
// Capacity is exceeded. A nil *ImageCache is valid and caches nothing.
// Safe for concurrent use.
type ImageCache struct {
	entries  *lru.Cache[string, image.Image]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64 // capacity evictions, Invalidate and Purge removals
}

// NewImageCache creates a cache holding at most capacity images. If
// capacity <= 0, DefaultCacheCapacity is used.
func NewImageCache(capacity int) (*ImageCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &ImageCache{capacity: capacity}
	entries, err := lru.NewWithEvict(capacity, func(string, image.Image) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

func (c *ImageCache) Get(key string) (image.Image, bool) {
	if c == nil {
		return nil, false
	}
	img, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return img, ok
}

func (c *ImageCache) Add(key string, img image.Image) {
	if c == nil || img == nil {
		return
	}
	c.entries.Add(key, img)
}

// Invalidate drops one entry, e.g. after the host replaced the asset
// behind key. It reports whether the entry existed.
func (c *ImageCache) Invalidate(key string) bool {
	if c == nil {
		return false
	}
	return c.entries.Remove(key)
}

// Purge drops every entry.
func (c *ImageCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *ImageCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func (c *ImageCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{
		Len:       c.entries.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
