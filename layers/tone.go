package layers

import "math"

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ApplyContrast scales v linearly around 0.5 and clamps to [0,1].
func ApplyContrast(v, contrast float32) float32 {
	return clamp01((v-0.5)*contrast + 0.5)
}

// ApplyGamma raises v to gamma. Non-positive gammas are treated as 1.
func ApplyGamma(v, gamma float32) float32 {
	if gamma <= 0 || gamma == 1 {
		return v
	}
	if v <= 0 {
		return 0
	}
	return float32(math.Pow(float64(v), float64(gamma)))
}

// AdjustLuma applies contrast, then gamma.
func (a ArtDirectionConfig) AdjustLuma(raw float32) float32 {
	return ApplyGamma(ApplyContrast(raw, a.Contrast), a.Gamma)
}

// RemapDepth applies the optional inversion, then the depth gamma.
func (a ArtDirectionConfig) RemapDepth(raw float32) float32 {
	d := clamp01(raw)
	if a.DepthInvert {
		d = 1 - d
	}
	return ApplyGamma(d, a.DepthGamma)
}

// DepthZ maps a raw depth sample to a Z coordinate centred on 0.
func (a ArtDirectionConfig) DepthZ(raw float32) float32 {
	return (a.RemapDepth(raw) - 0.5) * a.DepthScale
}
