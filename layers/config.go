// Package layers ranks a sampler.PixelFeatures table into the contour,
// fill and highlight particle layers and merges them into one draw batch.
package layers

import (
	"fmt"

	"github.com/gekko3d/keyvisual/sampler"
)

type LayerKind uint8

const (
	Contour LayerKind = iota
	Fill
	Highlight
)

const NumLayers = 3

// Kinds lists the layers in merge order.
var Kinds = [NumLayers]LayerKind{Contour, Fill, Highlight}

func (k LayerKind) String() string {
	switch k {
	case Contour:
		return "contour"
	case Fill:
		return "fill"
	case Highlight:
		return "highlight"
	}
	return fmt.Sprintf("LayerKind(%d)", uint8(k))
}

func ParseLayerKind(s string) (LayerKind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("layers: unknown layer %q", s)
}

type ColorMode string

const (
	ColorImage ColorMode = "image"
	ColorTint  ColorMode = "tint"
)

// LayerConfig is the selection and styling setup of one layer.
type LayerConfig struct {
	Enabled bool `yaml:"enabled"`
	// Weight is the layer's relative share of the particle budget.
	Weight float32 `yaml:"weight"`
	// ImportanceEdgeBias blends the ranking key: 0 ranks by luminance only,
	// 1 by edge strength only.
	ImportanceEdgeBias float32 `yaml:"importance_edge_bias"`

	MinAlpha float32 `yaml:"min_alpha"`
	MinLuma  float32 `yaml:"min_luma"`
	MinEdge  float32 `yaml:"min_edge"`

	OpacityMultiplier float32    `yaml:"opacity_multiplier"`
	SizeMultiplier    float32    `yaml:"size_multiplier"`
	ColorMode         ColorMode  `yaml:"color_mode"`
	Tint              [3]float32 `yaml:"tint,flow"`
}

// LayerSet holds one LayerConfig per kind.
type LayerSet struct {
	Contour   LayerConfig `yaml:"contour"`
	Fill      LayerConfig `yaml:"fill"`
	Highlight LayerConfig `yaml:"highlight"`
}

func (s *LayerSet) Get(k LayerKind) LayerConfig {
	switch k {
	case Contour:
		return s.Contour
	case Fill:
		return s.Fill
	case Highlight:
		return s.Highlight
	}
	return LayerConfig{}
}

func (s *LayerSet) Set(k LayerKind, c LayerConfig) {
	switch k {
	case Contour:
		s.Contour = c
	case Fill:
		s.Fill = c
	case Highlight:
		s.Highlight = c
	}
}

// ArtDirectionConfig holds the global tone and depth adjustments shared by
// every layer.
type ArtDirectionConfig struct {
	Contrast float32 `yaml:"contrast"`
	Gamma    float32 `yaml:"gamma"`

	DepthScale  float32 `yaml:"depth_scale"`
	DepthGamma  float32 `yaml:"depth_gamma"`
	DepthInvert bool    `yaml:"depth_invert"`

	// Global floors, combined with each layer's minimums via max.
	LumaThreshold  float32 `yaml:"luma_threshold"`
	AlphaThreshold float32 `yaml:"alpha_threshold"`
}

// SamplerConfig is the full configuration of one sampling run.
type SamplerConfig struct {
	MaxParticles    int     `yaml:"max_particles"`
	SampleStep      int     `yaml:"sample_step"`
	MaxSampleDim    int     `yaml:"max_sample_dim"`
	AspectRatio     float32 `yaml:"aspect_ratio"`
	SkipTransparent bool    `yaml:"skip_transparent"`

	Layers       LayerSet           `yaml:"layers"`
	ArtDirection ArtDirectionConfig `yaml:"art_direction"`
}

// ExtractOptions returns the extraction parameters of c.
func (c SamplerConfig) ExtractOptions() sampler.Options {
	return sampler.Options{
		SampleStep:      c.SampleStep,
		MaxSampleDim:    c.MaxSampleDim,
		AspectRatio:     c.AspectRatio,
		SkipTransparent: c.SkipTransparent,
	}
}

// Normalize clamps out-of-range values in place: negative weights and
// budgets become 0, biases and thresholds are clamped to [0,1], and an
// empty color mode becomes ColorImage.
func (c *SamplerConfig) Normalize() {
	if c.MaxParticles < 0 {
		c.MaxParticles = 0
	}
	if c.SampleStep < 1 {
		c.SampleStep = 1
	}
	if c.MaxSampleDim <= 0 {
		c.MaxSampleDim = sampler.DefaultMaxSampleDim
	}
	for _, k := range Kinds {
		l := c.Layers.Get(k)
		if l.Weight < 0 {
			l.Weight = 0
		}
		l.ImportanceEdgeBias = clamp01(l.ImportanceEdgeBias)
		l.MinAlpha = clamp01(l.MinAlpha)
		l.MinLuma = clamp01(l.MinLuma)
		l.MinEdge = clamp01(l.MinEdge)
		if l.ColorMode == "" {
			l.ColorMode = ColorImage
		}
		c.Layers.Set(k, l)
	}
	c.ArtDirection.LumaThreshold = clamp01(c.ArtDirection.LumaThreshold)
	c.ArtDirection.AlphaThreshold = clamp01(c.ArtDirection.AlphaThreshold)
}

func DefaultArtDirection() ArtDirectionConfig {
	return ArtDirectionConfig{
		Contrast:       1,
		Gamma:          1,
		DepthScale:     0.5,
		DepthGamma:     1,
		AlphaThreshold: 0.1,
	}
}

func DefaultLayers() LayerSet {
	return LayerSet{
		Contour: LayerConfig{
			Enabled:            true,
			Weight:             0.3,
			ImportanceEdgeBias: 0.9,
			MinAlpha:           0.5,
			MinEdge:            0.15,
			OpacityMultiplier:  1,
			SizeMultiplier:     0.8,
			ColorMode:          ColorImage,
			Tint:               [3]float32{1, 1, 1},
		},
		Fill: LayerConfig{
			Enabled:            true,
			Weight:             0.5,
			ImportanceEdgeBias: 0.2,
			MinAlpha:           0.5,
			MinLuma:            0.05,
			OpacityMultiplier:  0.8,
			SizeMultiplier:     1,
			ColorMode:          ColorImage,
			Tint:               [3]float32{1, 1, 1},
		},
		Highlight: LayerConfig{
			Enabled:           true,
			Weight:            0.2,
			MinAlpha:          0.5,
			MinLuma:           0.7,
			OpacityMultiplier: 1,
			SizeMultiplier:    1.3,
			ColorMode:         ColorTint,
			Tint:              [3]float32{1, 1, 1},
		},
	}
}

func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MaxParticles: 20000,
		SampleStep:   2,
		MaxSampleDim: sampler.DefaultMaxSampleDim,
		Layers:       DefaultLayers(),
		ArtDirection: DefaultArtDirection(),
	}
}
