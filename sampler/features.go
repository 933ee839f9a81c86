// Package sampler turns a decoded image (and an optional depth map) into a
// dense per-pixel feature table that the layer selector ranks into particles.
package sampler

// PixelFeatures is a struct-of-arrays table with one row per sampled pixel.
// Every attribute slice has exactly Count entries. A table is produced by a
// single Extract call and must not be mutated afterwards; the layer selector
// and any number of concurrent readers share it without locking.
type PixelFeatures struct {
	Count int

	X []float32 // aspect-corrected, [-aspect, aspect]
	Y []float32 // [-1, 1], Y up

	DepthRaw   []float32 // [0,1], white = near
	Luma       []float32 // [0,1]
	Alpha      []float32 // [0,1]
	EdgeWeight []float32 // [0,1]

	R []float32
	G []float32
	B []float32

	// SourceIndex is the row-major index of the pixel in the sampled
	// (downscaled) image, py*Width+px.
	SourceIndex []int32

	// Width and Height of the sampled image after downscaling.
	Width  int
	Height int
	// Aspect is the horizontal scale applied to X.
	Aspect float32
	// HasDepth reports whether DepthRaw came from a depth map rather than
	// the luminance fallback.
	HasDepth bool
}

func newPixelFeatures(capacity int) *PixelFeatures {
	return &PixelFeatures{
		X:           make([]float32, 0, capacity),
		Y:           make([]float32, 0, capacity),
		DepthRaw:    make([]float32, 0, capacity),
		Luma:        make([]float32, 0, capacity),
		Alpha:       make([]float32, 0, capacity),
		EdgeWeight:  make([]float32, 0, capacity),
		R:           make([]float32, 0, capacity),
		G:           make([]float32, 0, capacity),
		B:           make([]float32, 0, capacity),
		SourceIndex: make([]int32, 0, capacity),
	}
}

type pixelRow struct {
	x, y               float32
	depth, luma, alpha float32
	edge               float32
	r, g, b            float32
	index              int32
}

func (f *PixelFeatures) push(row pixelRow) {
	f.X = append(f.X, row.x)
	f.Y = append(f.Y, row.y)
	f.DepthRaw = append(f.DepthRaw, row.depth)
	f.Luma = append(f.Luma, row.luma)
	f.Alpha = append(f.Alpha, row.alpha)
	f.EdgeWeight = append(f.EdgeWeight, row.edge)
	f.R = append(f.R, row.r)
	f.G = append(f.G, row.g)
	f.B = append(f.B, row.b)
	f.SourceIndex = append(f.SourceIndex, row.index)
	f.Count++
}
