package layers

// Range is a contiguous run of merged particles.
type Range struct {
	Start int
	Count int
}

// End returns Start+Count.
func (r Range) End() int { return r.Start + r.Count }

// LayeredParticleData is the complete record of one sampling run: the
// per-layer selections plus one merged, contiguous buffer set that a single
// draw call can address by layer range.
type LayeredParticleData struct {
	Layers  [NumLayers]LayerData
	Offsets [NumLayers]Range

	Positions  []float32 // xyz interleaved
	Colors     []float32 // rgb interleaved
	Luma       []float32
	Alpha      []float32
	EdgeWeight []float32
	Seed       []float32
	LayerIndex []uint8

	TotalCount   int
	SourceWidth  int
	SourceHeight int

	// Aspect is the horizontal position scale: x spans [-Aspect, Aspect].
	Aspect float32

	ArtDirection ArtDirectionConfig
	// Styles is the layer configuration used, for per-layer opacity, size
	// and color mode in the renderer.
	Styles LayerSet
}

// Layer returns the selection of kind.
func (d *LayeredParticleData) Layer(kind LayerKind) *LayerData {
	return &d.Layers[kind]
}

// Offset returns the merged range of kind.
func (d *LayeredParticleData) Offset(kind LayerKind) Range {
	return d.Offsets[kind]
}

// Merge concatenates the layers in contour, fill, highlight order. It copies
// and never filters or re-ranks.
func Merge(contour, fill, highlight LayerData) *LayeredParticleData {
	in := [NumLayers]LayerData{contour, fill, highlight}

	total := 0
	for _, l := range in {
		total += l.Count
	}

	out := &LayeredParticleData{
		Layers:     in,
		Positions:  make([]float32, 0, total*3),
		Colors:     make([]float32, 0, total*3),
		Luma:       make([]float32, 0, total),
		Alpha:      make([]float32, 0, total),
		EdgeWeight: make([]float32, 0, total),
		Seed:       make([]float32, 0, total),
		LayerIndex: make([]uint8, 0, total),
		TotalCount: total,
	}

	start := 0
	for k, l := range in {
		out.Offsets[k] = Range{Start: start, Count: l.Count}
		start += l.Count

		out.Positions = append(out.Positions, l.Positions[:l.Count*3]...)
		out.Colors = append(out.Colors, l.Colors[:l.Count*3]...)
		out.Luma = append(out.Luma, l.Luma[:l.Count]...)
		out.Alpha = append(out.Alpha, l.Alpha[:l.Count]...)
		out.EdgeWeight = append(out.EdgeWeight, l.EdgeWeight[:l.Count]...)
		out.Seed = append(out.Seed, l.Seed[:l.Count]...)
		for i := 0; i < l.Count; i++ {
			out.LayerIndex = append(out.LayerIndex, uint8(k))
		}
	}
	return out
}
