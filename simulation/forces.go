package simulation

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// Force model constants, mirrored in position.wgsl and velocity.wgsl.
const (
	MaxSpeed          = 0.5
	VelocityDamping   = 0.98 // velocity pass
	VelocityRetention = 0.95 // position pass

	PointerRadius       = 0.5
	PointerAttractScale = 0.3
	pointerFalloff      = 4.0

	flowScale       = 2.0
	flowDrift       = 0.1
	turbulenceScale = 4.0
	turbulenceDrift = 0.2
	curlEpsilon     = 0.01
)

// Offsets decorrelating the three channels of a vector noise sample.
var (
	noiseOffsetY = mgl32.Vec3{31.416, -47.853, 12.793}
	noiseOffsetZ = mgl32.Vec3{-233.145, 113.282, -71.544}
)

// ForceField evaluates the flow, turbulence, pointer and return forces on
// the CPU. It matches the structure of the position pass shader; the
// simplex source differs, so trajectories are not bit-identical to the GPU.
type ForceField struct {
	noise opensimplex.Noise32
}

func NewForceField(seed int64) *ForceField {
	return &ForceField{noise: opensimplex.New32(seed)}
}

func (f *ForceField) eval(p mgl32.Vec3) float32 {
	return f.noise.Eval3(p[0], p[1], p[2])
}

// potential samples three decorrelated noise channels at p.
func (f *ForceField) potential(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		f.eval(p),
		f.eval(p.Add(noiseOffsetY)),
		f.eval(p.Add(noiseOffsetZ)),
	}
}

// Curl returns the curl of the noise potential at p using central
// differences. The result is divergence free.
func (f *ForceField) Curl(p mgl32.Vec3) mgl32.Vec3 {
	const e = curlEpsilon
	dx := mgl32.Vec3{e, 0, 0}
	dy := mgl32.Vec3{0, e, 0}
	dz := mgl32.Vec3{0, 0, e}

	px0, px1 := f.potential(p.Sub(dx)), f.potential(p.Add(dx))
	py0, py1 := f.potential(p.Sub(dy)), f.potential(p.Add(dy))
	pz0, pz1 := f.potential(p.Sub(dz)), f.potential(p.Add(dz))

	inv := float32(1.0 / (2 * e))
	return mgl32.Vec3{
		((py1[2] - py0[2]) - (pz1[1] - pz0[1])) * inv,
		((pz1[0] - pz0[0]) - (px1[2] - px0[2])) * inv,
		((px1[1] - px0[1]) - (py1[0] - py0[0])) * inv,
	}
}

// Flow is the curl-noise drift at p, time t.
func (f *ForceField) Flow(p mgl32.Vec3, t, strength float32) mgl32.Vec3 {
	if strength == 0 {
		return mgl32.Vec3{}
	}
	q := p.Mul(flowScale).Add(mgl32.Vec3{t * flowDrift, 0, 0})
	return f.Curl(q).Mul(strength)
}

// Turbulence is a higher-frequency vector noise at p, time t.
func (f *ForceField) Turbulence(p mgl32.Vec3, t, strength float32) mgl32.Vec3 {
	if strength == 0 {
		return mgl32.Vec3{}
	}
	q := p.Mul(turbulenceScale).Add(mgl32.Vec3{t * turbulenceDrift, t * turbulenceDrift, t * turbulenceDrift})
	return f.potential(q).Mul(strength)
}

// ReturnForce is a linear spring toward origin.
func ReturnForce(p, origin mgl32.Vec3, strength float32) mgl32.Vec3 {
	return origin.Sub(p).Mul(strength)
}

// PointerForce repels particles closer than PointerRadius and gently
// attracts the rest, with a 1/(1+4d²) falloff.
func PointerForce(p, pointer mgl32.Vec3, strength float32) mgl32.Vec3 {
	if strength == 0 {
		return mgl32.Vec3{}
	}
	to := pointer.Sub(p)
	d := to.Len()
	if d < 1e-6 {
		return mgl32.Vec3{}
	}
	dir := to.Mul(1 / d)
	influence := 1 / (1 + pointerFalloff*d*d)
	if d < PointerRadius {
		return dir.Mul(-influence * strength)
	}
	return dir.Mul(influence * strength * PointerAttractScale)
}

func clampSpeed(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > MaxSpeed {
		return v.Mul(MaxSpeed / l)
	}
	return v
}

// Advance integrates one particle: v = clamp(vel*0.95 + F*dt), p += v*dt.
func (f *ForceField) Advance(p, vel, origin mgl32.Vec3, u Uniforms) (mgl32.Vec3, mgl32.Vec3) {
	force := f.Flow(p, u.Time, u.FlowStrength).
		Add(ReturnForce(p, origin, u.ReturnStrength)).
		Add(PointerForce(p, u.Pointer, u.PointerStrength)).
		Add(f.Turbulence(p, u.Time, u.Turbulence))

	v := clampSpeed(vel.Mul(VelocityRetention).Add(force.Mul(u.DeltaTime)))
	return p.Add(v.Mul(u.DeltaTime)), v
}
