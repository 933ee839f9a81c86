package layers

import "github.com/gekko3d/keyvisual/sampler"

// Sampler runs budget, selection and merge for all three layers.
type Sampler struct {
	selector *Selector
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{selector: NewSelector(seed)}
}

// Sample selects particles from f according to cfg. Adjusted luminance is
// computed once and shared by every layer. Empty or fully filtered inputs
// produce empty layers, never an error.
func (s *Sampler) Sample(f *sampler.PixelFeatures, cfg SamplerConfig) *LayeredParticleData {
	cfg.Normalize()
	targets := TargetCounts(cfg.MaxParticles, cfg.Layers)

	var selected [NumLayers]LayerData
	var adj []float32
	if f != nil && f.Count > 0 {
		adj = AdjustedLuma(f, cfg.ArtDirection)
	}
	for _, k := range Kinds {
		if adj == nil {
			selected[k] = LayerData{Kind: k}
			continue
		}
		selected[k] = s.selector.selectAdjusted(f, adj, k, cfg.Layers.Get(k), cfg.ArtDirection, targets[k])
	}

	out := Merge(selected[Contour], selected[Fill], selected[Highlight])
	out.ArtDirection = cfg.ArtDirection
	out.Styles = cfg.Layers
	if f != nil {
		out.SourceWidth = f.Width
		out.SourceHeight = f.Height
		out.Aspect = f.Aspect
	}
	return out
}
