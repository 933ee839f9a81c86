// Package simulation advances a particle cloud on the GPU with two ordered
// compute passes over ping-pong position and velocity textures.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrMalformedPositions = errors.New("simulation: position buffer length is not a multiple of 3")

// PositionTexel is one texel of the position texture. The alpha channel
// carries the particle's rest X; shaders depend on this exact layout.
type PositionTexel struct {
	X, Y, Z float32
	OriginX float32
}

// VelocityTexel is one texel of the velocity texture. The alpha channel
// carries the particle's rest Y.
type VelocityTexel struct {
	VX, VY, VZ float32
	OriginY    float32
}

func (t PositionTexel) Pos() mgl32.Vec3 { return mgl32.Vec3{t.X, t.Y, t.Z} }

func (t VelocityTexel) Vel() mgl32.Vec3 { return mgl32.Vec3{t.VX, t.VY, t.VZ} }

// Origin recombines the rest position split across both textures. The rest
// depth is the image plane, z = 0.
func Origin(p PositionTexel, v VelocityTexel) mgl32.Vec3 {
	return mgl32.Vec3{p.OriginX, v.OriginY, 0}
}

// TextureSize returns the smallest power of two whose square holds n texels.
func TextureSize(n int) int {
	if n <= 1 {
		return 1
	}
	side := int(math.Ceil(math.Sqrt(float64(n))))
	return 1 << bits.Len(uint(side-1))
}

// State is the initial contents of both textures.
type State struct {
	Size     int
	Count    int
	Position []PositionTexel
	Velocity []VelocityTexel
}

// PackState lays out initial xyz positions (and optional xyz velocities)
// into square textures. Texels past the particle count stay zero. Initial
// speeds are clamped to MaxSpeed.
func PackState(positions, velocities []float32) (State, error) {
	if len(positions)%3 != 0 {
		return State{}, fmt.Errorf("%w: got %d floats", ErrMalformedPositions, len(positions))
	}
	if velocities != nil && len(velocities) != len(positions) {
		return State{}, fmt.Errorf("simulation: velocity buffer has %d floats, want %d", len(velocities), len(positions))
	}

	count := len(positions) / 3
	size := TextureSize(count)
	st := State{
		Size:     size,
		Count:    count,
		Position: make([]PositionTexel, size*size),
		Velocity: make([]VelocityTexel, size*size),
	}
	for i := 0; i < count; i++ {
		x, y, z := positions[i*3], positions[i*3+1], positions[i*3+2]
		st.Position[i] = PositionTexel{X: x, Y: y, Z: z, OriginX: x}

		var v mgl32.Vec3
		if velocities != nil {
			v = clampSpeed(mgl32.Vec3{velocities[i*3], velocities[i*3+1], velocities[i*3+2]})
		}
		st.Velocity[i] = VelocityTexel{VX: v[0], VY: v[1], VZ: v[2], OriginY: y}
	}
	return st, nil
}
