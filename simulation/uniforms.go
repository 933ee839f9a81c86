package simulation

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniforms are the per-frame inputs of the force model.
type Uniforms struct {
	Time      float32 // seconds, monotonic
	DeltaTime float32 // seconds, clamped by the caller
	Pointer   mgl32.Vec3

	FlowStrength    float32
	ReturnStrength  float32
	PointerStrength float32
	Turbulence      float32
	// MorphProgress is carried for the renderer's morph transition; the
	// force model ignores it.
	MorphProgress float32
}

// PointerAway parks the pointer far enough that its influence vanishes.
var PointerAway = mgl32.Vec3{0, 0, 100}

func DefaultUniforms() Uniforms {
	return Uniforms{
		DeltaTime:       1.0 / 60.0,
		Pointer:         PointerAway,
		FlowStrength:    0.15,
		ReturnStrength:  0.8,
		PointerStrength: 0.6,
		Turbulence:      0.05,
	}
}

// UniformUpdate changes a subset of Uniforms; nil fields keep their value.
type UniformUpdate struct {
	Time      *float32
	DeltaTime *float32
	Pointer   *mgl32.Vec3

	FlowStrength    *float32
	ReturnStrength  *float32
	PointerStrength *float32
	Turbulence      *float32
	MorphProgress   *float32
}

// F returns a pointer to v for building a UniformUpdate.
func F(v float32) *float32 { return &v }

// V returns a pointer to v for building a UniformUpdate.
func V(v mgl32.Vec3) *mgl32.Vec3 { return &v }

// Apply merges up into u.
func (u *Uniforms) Apply(up UniformUpdate) {
	set := func(dst *float32, src *float32) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Time, up.Time)
	set(&u.DeltaTime, up.DeltaTime)
	if up.Pointer != nil {
		u.Pointer = *up.Pointer
	}
	set(&u.FlowStrength, up.FlowStrength)
	set(&u.ReturnStrength, up.ReturnStrength)
	set(&u.PointerStrength, up.PointerStrength)
	set(&u.Turbulence, up.Turbulence)
	set(&u.MorphProgress, up.MorphProgress)
}

// paramsSize is the byte size of the WGSL SimParams struct.
const paramsSize = 64

// encodeParams serializes u in the SimParams layout of params.wgsl:
//
//	struct SimParams {
//	  pointer: vec3<f32>, time: f32,
//	  delta_time, flow_strength, return_strength, pointer_strength: f32,
//	  turbulence, morph_progress, max_speed: f32, particle_count: u32,
//	  texture_size: u32, _pad: vec3<u32>,
//	}
func encodeParams(u Uniforms, count, size int) []byte {
	buf := make([]byte, paramsSize)
	putF := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	putF(0, u.Pointer[0])
	putF(4, u.Pointer[1])
	putF(8, u.Pointer[2])
	putF(12, u.Time)
	putF(16, u.DeltaTime)
	putF(20, u.FlowStrength)
	putF(24, u.ReturnStrength)
	putF(28, u.PointerStrength)
	putF(32, u.Turbulence)
	putF(36, u.MorphProgress)
	putF(40, MaxSpeed)
	binary.LittleEndian.PutUint32(buf[44:], uint32(count))
	binary.LittleEndian.PutUint32(buf[48:], uint32(size))
	return buf
}
