package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLayer(kind LayerKind, n int, tag float32) LayerData {
	d := newLayerData(kind, n)
	for i := 0; i < n; i++ {
		d.Positions[i*3] = tag
		d.Luma[i] = tag
	}
	return d
}

func TestMerge_OffsetsCoverTotalInOrder(t *testing.T) {
	out := Merge(fakeLayer(Contour, 3, 1), fakeLayer(Fill, 0, 2), fakeLayer(Highlight, 5, 3))

	require.Equal(t, 8, out.TotalCount)
	assert.Len(t, out.Positions, out.TotalCount*3)
	assert.Len(t, out.Colors, out.TotalCount*3)
	assert.Len(t, out.LayerIndex, out.TotalCount)

	assert.Equal(t, Range{0, 3}, out.Offset(Contour))
	assert.Equal(t, Range{3, 0}, out.Offset(Fill))
	assert.Equal(t, Range{3, 5}, out.Offset(Highlight))

	sum := 0
	next := 0
	for _, k := range Kinds {
		r := out.Offset(k)
		assert.Equal(t, next, r.Start)
		assert.LessOrEqual(t, r.End(), out.TotalCount)
		next = r.End()
		sum += r.Count
		for i := r.Start; i < r.End(); i++ {
			assert.Equal(t, uint8(k), out.LayerIndex[i])
			assert.Equal(t, float32(k)+1, out.Luma[i])
			assert.Equal(t, float32(k)+1, out.Positions[i*3])
		}
	}
	assert.Equal(t, out.TotalCount, sum)
}

func TestMerge_Empty(t *testing.T) {
	out := Merge(LayerData{Kind: Contour}, LayerData{Kind: Fill}, LayerData{Kind: Highlight})
	assert.Equal(t, 0, out.TotalCount)
	assert.Empty(t, out.Positions)
	for _, k := range Kinds {
		assert.Equal(t, Range{}, out.Offset(k))
	}
}

func TestTargetCounts(t *testing.T) {
	set := DefaultLayers()
	got := TargetCounts(10000, set)
	assert.Equal(t, [NumLayers]int{3000, 5000, 2000}, got)

	set.Fill.Enabled = false
	got = TargetCounts(10000, set)
	assert.Equal(t, [NumLayers]int{6000, 0, 4000}, got)

	equal := LayerSet{
		Contour:   LayerConfig{Enabled: true, Weight: 1},
		Fill:      LayerConfig{Enabled: true, Weight: 1},
		Highlight: LayerConfig{Enabled: true, Weight: 1},
	}
	got = TargetCounts(11, equal)
	assert.Equal(t, 11, got[0]+got[1]+got[2])
	got = TargetCounts(10, equal)
	assert.Equal(t, 9, got[0]+got[1]+got[2])

	assert.Equal(t, [NumLayers]int{}, TargetCounts(0, set))
	assert.Equal(t, [NumLayers]int{}, TargetCounts(100, LayerSet{}))
}
