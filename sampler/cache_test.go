package sampler

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageCache_Eviction(t *testing.T) {
	c, err := NewImageCache(2)
	require.NoError(t, err)

	c.Add("a", solid(1, 1, color.NRGBA{}))
	c.Add("b", solid(1, 1, color.NRGBA{}))
	_, ok := c.Get("a") // a becomes most recent
	require.True(t, ok)
	c.Add("c", solid(1, 1, color.NRGBA{}))

	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestImageCache_InvalidateAndPurge(t *testing.T) {
	c, err := NewImageCache(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheCapacity, c.Stats().Capacity)

	c.Add("a", solid(1, 1, color.NRGBA{}))
	c.Add("b", solid(1, 1, color.NRGBA{}))

	assert.True(t, c.Invalidate("a"))
	assert.False(t, c.Invalidate("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestImageCache_NilIsNoop(t *testing.T) {
	var c *ImageCache
	c.Add("a", image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.False(t, c.Invalidate("a"))
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, CacheStats{}, c.Stats())
}
