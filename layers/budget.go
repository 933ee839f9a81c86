package layers

import "math"

// TargetCounts splits maxParticles across the enabled layers in proportion
// to their weights. Disabled and zero-weight layers get 0. Each share is
// rounded; if rounding overshoots the budget the excess is taken from the
// last layers in merge order.
func TargetCounts(maxParticles int, set LayerSet) [NumLayers]int {
	var out [NumLayers]int
	if maxParticles <= 0 {
		return out
	}

	var total float64
	for _, k := range Kinds {
		if l := set.Get(k); l.Enabled && l.Weight > 0 {
			total += float64(l.Weight)
		}
	}
	if total == 0 {
		return out
	}

	sum := 0
	for _, k := range Kinds {
		l := set.Get(k)
		if !l.Enabled || l.Weight <= 0 {
			continue
		}
		out[k] = int(math.Round(float64(maxParticles) * float64(l.Weight) / total))
		sum += out[k]
	}

	for i := NumLayers - 1; i >= 0 && sum > maxParticles; i-- {
		cut := sum - maxParticles
		if cut > out[i] {
			cut = out[i]
		}
		out[i] -= cut
		sum -= cut
	}
	return out
}
