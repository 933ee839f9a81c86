package main

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gekko3d/keyvisual/layers"
)

const (
	supersample = 2
	baseRadius  = 1.2 // preview pixels
)

// renderPreview splats particles additively as soft discs on a black
// background, sized and faded by their layer style, and returns a
// width-wide image in the source aspect.
func renderPreview(data *layers.LayeredParticleData, positions []float32, width int) *image.NRGBA {
	aspect := data.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	if width < 1 {
		width = 1
	}
	height := int(math.Round(float64(width) / float64(aspect)))
	if height < 1 {
		height = 1
	}

	sw, sh := width*supersample, height*supersample
	acc := make([]float32, sw*sh*3)

	n := len(positions) / 3
	if n > data.TotalCount {
		n = data.TotalCount
	}
	for i := 0; i < n; i++ {
		style := data.Styles.Get(layers.LayerKind(data.LayerIndex[i]))
		alpha := data.Alpha[i] * style.OpacityMultiplier
		if alpha <= 0 {
			continue
		}
		x, y, z := positions[i*3], positions[i*3+1], positions[i*3+2]
		cx := (x/aspect + 1) / 2 * float32(sw)
		cy := (1 - y) / 2 * float32(sh)

		// Nearer particles (z > 0) draw larger.
		r := baseRadius * supersample * style.SizeMultiplier * (1 + 0.5*clampf(z, -1, 1))
		if r < 0.5 {
			r = 0.5
		}
		rgb := [3]float32{data.Colors[i*3], data.Colors[i*3+1], data.Colors[i*3+2]}
		splat(acc, sw, sh, cx, cy, r, rgb, alpha)
	}

	hi := image.NewNRGBA(image.Rect(0, 0, sw, sh))
	for p := 0; p < sw*sh; p++ {
		hi.Pix[p*4] = toByte(acc[p*3])
		hi.Pix[p*4+1] = toByte(acc[p*3+1])
		hi.Pix[p*4+2] = toByte(acc[p*3+2])
		hi.Pix[p*4+3] = 255
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(out, out.Bounds(), hi, hi.Bounds(), draw.Src, nil)
	return out
}

func splat(acc []float32, w, h int, cx, cy, r float32, rgb [3]float32, alpha float32) {
	x0 := int(math.Floor(float64(cx - r)))
	x1 := int(math.Ceil(float64(cx + r)))
	y0 := int(math.Floor(float64(cy - r)))
	y1 := int(math.Ceil(float64(cy + r)))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w-1 {
		x1 = w - 1
	}
	if y1 > h-1 {
		y1 = h - 1
	}
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			dx := float32(px) + 0.5 - cx
			dy := float32(py) + 0.5 - cy
			d2 := (dx*dx + dy*dy) / (r * r)
			if d2 >= 1 {
				continue
			}
			k := alpha * (1 - d2)
			o := (py*w + px) * 3
			acc[o] += rgb[0] * k
			acc[o+1] += rgb[1] * k
			acc[o+2] += rgb[2] * k
		}
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toByte(v float32) uint8 {
	return uint8(clampf(v, 0, 1)*255 + 0.5)
}
