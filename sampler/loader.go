package sampler

import (
	"context"
	"image"
)

// Loader fetches, decodes and extracts sources, consulting Cache first.
type Loader struct {
	Cache *ImageCache
}

// NewLoader returns a loader backed by cache, which may be nil.
func NewLoader(cache *ImageCache) *Loader {
	return &Loader{Cache: cache}
}

// Image returns the decoded image for src, from the cache when possible.
func (l *Loader) Image(ctx context.Context, src Source, role Role) (image.Image, error) {
	key := src.Key()
	if img, ok := l.Cache.Get(key); ok {
		return img, nil
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &DecodeError{Role: role, Key: key, Err: err}
	}
	defer rc.Close()

	img, err := Decode(rc)
	if err != nil {
		return nil, &DecodeError{Role: role, Key: key, Err: err}
	}
	// Cancelled loads are not cached.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.Cache.Add(key, img)
	return img, nil
}

// Load produces the feature table for src and the optional depth source.
// Either input failing to decode fails the whole load; no partial table is
// returned.
func (l *Loader) Load(ctx context.Context, src, depth Source, opts Options) (*PixelFeatures, error) {
	img, err := l.Image(ctx, src, RoleImage)
	if err != nil {
		return nil, err
	}

	var depthImg image.Image
	if depth != nil {
		depthImg, err = l.Image(ctx, depth, RoleDepth)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Extract(img, depthImg, opts)
}
