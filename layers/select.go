package layers

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/gekko3d/keyvisual/sampler"
)

// LayerData is the selected subset of one layer.
type LayerData struct {
	Kind  LayerKind
	Count int

	Positions []float32 // xyz interleaved
	Colors    []float32 // rgb interleaved

	Luma       []float32
	Alpha      []float32
	EdgeWeight []float32
	// Seed is a per-particle random value for animation phase offsets. It is
	// never used for selection.
	Seed []float32
	// SourceIndex traces each particle back to sampler.PixelFeatures.SourceIndex.
	SourceIndex []int32
}

func newLayerData(kind LayerKind, n int) LayerData {
	return LayerData{
		Kind:        kind,
		Count:       n,
		Positions:   make([]float32, n*3),
		Colors:      make([]float32, n*3),
		Luma:        make([]float32, n),
		Alpha:       make([]float32, n),
		EdgeWeight:  make([]float32, n),
		Seed:        make([]float32, n),
		SourceIndex: make([]int32, n),
	}
}

// Selector ranks feature rows into layers. The random source only feeds
// LayerData.Seed. Not safe for concurrent use.
type Selector struct {
	rng *rand.Rand
}

// NewSelector returns a selector whose seeds are drawn from a generator
// seeded with seed.
func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// AdjustedLuma applies art direction to every row of f.
func AdjustedLuma(f *sampler.PixelFeatures, art ArtDirectionConfig) []float32 {
	out := make([]float32, f.Count)
	for i, l := range f.Luma {
		out[i] = art.AdjustLuma(l)
	}
	return out
}

// Select returns at most target particles of kind from f.
func (s *Selector) Select(f *sampler.PixelFeatures, kind LayerKind, layer LayerConfig, art ArtDirectionConfig, target int) LayerData {
	if f == nil || !layer.Enabled || target <= 0 {
		return LayerData{Kind: kind}
	}
	return s.selectAdjusted(f, AdjustedLuma(f, art), kind, layer, art, target)
}

type candidate struct {
	row   int
	score float32
}

func (s *Selector) selectAdjusted(f *sampler.PixelFeatures, adj []float32, kind LayerKind, layer LayerConfig, art ArtDirectionConfig, target int) LayerData {
	if f == nil || !layer.Enabled || target <= 0 {
		return LayerData{Kind: kind}
	}

	minAlpha := max(layer.MinAlpha, art.AlphaThreshold)
	minLuma := max(layer.MinLuma, art.LumaThreshold)
	bias := clamp01(layer.ImportanceEdgeBias)

	cands := make([]candidate, 0, f.Count/4)
	for i := 0; i < f.Count; i++ {
		if f.Alpha[i] < minAlpha || adj[i] < minLuma || f.EdgeWeight[i] < layer.MinEdge {
			continue
		}
		cands = append(cands, candidate{
			row:   i,
			score: f.EdgeWeight[i]*bias + adj[i]*(1-bias),
		})
	}

	// Stable: equal scores keep scan order.
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})
	if len(cands) > target {
		cands = cands[:target]
	}

	out := newLayerData(kind, len(cands))
	for j, c := range cands {
		i := c.row
		out.Positions[j*3] = f.X[i]
		out.Positions[j*3+1] = f.Y[i]
		out.Positions[j*3+2] = art.DepthZ(f.DepthRaw[i])

		if layer.ColorMode == ColorTint {
			out.Colors[j*3] = layer.Tint[0] * adj[i]
			out.Colors[j*3+1] = layer.Tint[1] * adj[i]
			out.Colors[j*3+2] = layer.Tint[2] * adj[i]
		} else {
			out.Colors[j*3] = f.R[i]
			out.Colors[j*3+1] = f.G[i]
			out.Colors[j*3+2] = f.B[i]
		}

		out.Luma[j] = f.Luma[i]
		out.Alpha[j] = f.Alpha[i]
		out.EdgeWeight[j] = f.EdgeWeight[i]
		out.Seed[j] = s.rng.Float32()
		out.SourceIndex[j] = f.SourceIndex[i]
	}
	return out
}
