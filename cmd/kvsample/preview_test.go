package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/keyvisual/layers"
)

func onePoint(x, y float32) *layers.LayeredParticleData {
	fill := layers.LayerData{
		Kind:       layers.Fill,
		Count:      1,
		Positions:  []float32{x, y, 0},
		Colors:     []float32{1, 1, 1},
		Luma:       []float32{1},
		Alpha:      []float32{1},
		EdgeWeight: []float32{0},
		Seed:       []float32{0},
	}
	data := layers.Merge(layers.LayerData{Kind: layers.Contour}, fill, layers.LayerData{Kind: layers.Highlight})
	data.Styles = layers.DefaultLayers()
	data.Aspect = 2
	return data
}

func TestRenderPreview_Splat(t *testing.T) {
	data := onePoint(0, 0)
	img := renderPreview(data, data.Positions, 64)

	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 32, img.Bounds().Dy())

	center := img.NRGBAAt(32, 16)
	assert.Greater(t, center.R, uint8(0))
	assert.Equal(t, uint8(255), center.A)

	corner := img.NRGBAAt(0, 0)
	assert.Zero(t, corner.R)
	assert.Zero(t, corner.G)
	assert.Zero(t, corner.B)
}

func TestRenderPreview_UsesSimulatedPositions(t *testing.T) {
	data := onePoint(0, 0)
	// Top-left corner of the frame: x = -aspect, y = 1.
	img := renderPreview(data, []float32{-1.9, 0.9, 0}, 64)

	assert.Zero(t, img.NRGBAAt(32, 16).R)
	assert.Greater(t, img.NRGBAAt(1, 1).R, uint8(0))
}

func TestRenderPreview_InvisibleLayer(t *testing.T) {
	data := onePoint(0, 0)
	fill := data.Styles.Get(layers.Fill)
	fill.OpacityMultiplier = 0
	data.Styles.Set(layers.Fill, fill)

	img := renderPreview(data, data.Positions, 16)
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			t.Fatalf("pixel %d is not black", i/4)
		}
	}
}
