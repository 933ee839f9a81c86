package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureSize(t *testing.T) {
	cases := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{4, 2},
		{5, 4},
		{16, 4},
		{17, 8},
		{10000, 128},
		{16385, 256},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TextureSize(c.n), "TextureSize(%d)", c.n)
	}
}

func TestPackState_LayoutAndPadding(t *testing.T) {
	positions := []float32{
		0.1, 0.2, 0.3,
		-0.5, 0.5, 0,
		1, -1, 0.25,
		0, 0, 0,
		0.9, 0.8, 0.7,
	}
	st, err := PackState(positions, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, st.Count)
	assert.Equal(t, 4, st.Size)
	require.Len(t, st.Position, 16)
	require.Len(t, st.Velocity, 16)

	for i := 0; i < st.Count; i++ {
		x, y, z := positions[i*3], positions[i*3+1], positions[i*3+2]
		assert.Equal(t, PositionTexel{X: x, Y: y, Z: z, OriginX: x}, st.Position[i])
		assert.Equal(t, VelocityTexel{OriginY: y}, st.Velocity[i])
		assert.Equal(t, [3]float32{x, y, 0}, [3]float32(Origin(st.Position[i], st.Velocity[i])))
	}
	for i := st.Count; i < len(st.Position); i++ {
		assert.Zero(t, st.Position[i], "position padding %d", i)
		assert.Zero(t, st.Velocity[i], "velocity padding %d", i)
	}
}

func TestPackState_Malformed(t *testing.T) {
	_, err := PackState([]float32{1, 2, 3, 4}, nil)
	assert.ErrorIs(t, err, ErrMalformedPositions)

	_, err = PackState([]float32{1, 2, 3}, []float32{0, 0})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedPositions)
}

func TestPackState_ClampsInitialVelocity(t *testing.T) {
	st, err := PackState([]float32{0, 0, 0, 1, 1, 1}, []float32{3, 4, 0, 0.1, 0, 0})
	require.NoError(t, err)

	v := st.Velocity[0].Vel()
	assert.InDelta(t, MaxSpeed, v.Len(), 1e-6)
	assert.InDelta(t, 0.3, v[0], 1e-6)
	assert.InDelta(t, 0.4, v[1], 1e-6)

	assert.InDelta(t, 0.1, st.Velocity[1].VX, 1e-7)
	assert.Equal(t, float32(1), st.Velocity[1].OriginY)
}

func TestPackState_Empty(t *testing.T) {
	st, err := PackState(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
	assert.Equal(t, 1, st.Size)
	assert.Len(t, st.Position, 1)
}
