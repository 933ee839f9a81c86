package simulation

// CPUBackend runs both passes on float32 slices. It serves hosts without
// compute support (a CPU-animated renderer reads Positions) and is the
// reference for the force model.
type CPUBackend struct {
	field *ForceField

	size  int
	count int
	cur   int
	pos   [2][]PositionTexel
	vel   [2][]VelocityTexel
}

func NewCPUBackend(noiseSeed int64) *CPUBackend {
	return &CPUBackend{field: NewForceField(noiseSeed)}
}

func (b *CPUBackend) Init(st State) error {
	b.size = st.Size
	b.count = st.Count
	b.cur = 0
	n := st.Size * st.Size
	for i := 0; i < 2; i++ {
		b.pos[i] = make([]PositionTexel, n)
		b.vel[i] = make([]VelocityTexel, n)
	}
	copy(b.pos[0], st.Position)
	copy(b.vel[0], st.Velocity)
	return nil
}

func (b *CPUBackend) Step(u Uniforms) error {
	if b.pos[0] == nil {
		return ErrNotInitialized
	}
	next := b.cur ^ 1

	// Pass 1: velocity. Reads vel[cur], writes vel[next].
	velIn, velOut := b.vel[b.cur], b.vel[next]
	for i := range velOut {
		if i >= b.count {
			velOut[i] = VelocityTexel{}
			continue
		}
		v := velIn[i]
		velOut[i] = VelocityTexel{
			VX:      v.VX * VelocityDamping,
			VY:      v.VY * VelocityDamping,
			VZ:      v.VZ * VelocityDamping,
			OriginY: v.OriginY,
		}
	}

	// Pass 2: position. Reads pos[cur] and the fresh vel[next], writes pos[next].
	posIn, posOut := b.pos[b.cur], b.pos[next]
	for i := range posOut {
		if i >= b.count {
			posOut[i] = PositionTexel{}
			continue
		}
		p := posIn[i]
		v := velOut[i]
		np, _ := b.field.Advance(p.Pos(), v.Vel(), Origin(p, v), u)
		posOut[i] = PositionTexel{X: np[0], Y: np[1], Z: np[2], OriginX: p.OriginX}
	}

	b.cur = next
	return nil
}

func (b *CPUBackend) Texture() TextureHandle {
	return TextureHandle{Size: b.size, Count: b.count}
}

// Positions returns a copy of the current xyz positions of the live particles.
func (b *CPUBackend) Positions() []float32 {
	out := make([]float32, 0, b.count*3)
	if b.pos[b.cur] == nil {
		return out
	}
	for _, t := range b.pos[b.cur][:b.count] {
		out = append(out, t.X, t.Y, t.Z)
	}
	return out
}

// Texels returns copies of the current position and velocity textures,
// padding included.
func (b *CPUBackend) Texels() ([]PositionTexel, []VelocityTexel) {
	return append([]PositionTexel(nil), b.pos[b.cur]...), append([]VelocityTexel(nil), b.vel[b.cur]...)
}

func (b *CPUBackend) Dispose() {
	b.pos = [2][]PositionTexel{}
	b.vel = [2][]VelocityTexel{}
}
