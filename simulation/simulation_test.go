package simulation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
	debug    []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

type fakeBackend struct {
	initErr  error
	stepErr  error
	inits    int
	steps    []Uniforms
	disposed int
	state    State
}

func (b *fakeBackend) Init(st State) error {
	b.inits++
	b.state = st
	return b.initErr
}

func (b *fakeBackend) Step(u Uniforms) error {
	b.steps = append(b.steps, u)
	return b.stepErr
}

func (b *fakeBackend) Texture() TextureHandle {
	return TextureHandle{Size: b.state.Size, Count: b.state.Count}
}

func (b *fakeBackend) Dispose() { b.disposed++ }

func TestNew_MalformedFailsFast(t *testing.T) {
	backend := &fakeBackend{}
	_, err := New(backend, []float32{1, 2}, Options{})
	assert.ErrorIs(t, err, ErrMalformedPositions)
	assert.Zero(t, backend.inits)
}

func TestNew_UnsupportedDegrades(t *testing.T) {
	backend := &fakeBackend{initErr: fmt.Errorf("%w: test device", ErrUnsupported)}
	log := &recordingLogger{}

	sim, err := New(backend, []float32{0, 0, 0, 1, 1, 0}, Options{Logger: log})
	require.NoError(t, err)
	require.NotNil(t, sim)

	assert.True(t, sim.Degraded())
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "test device")

	assert.NotPanics(t, func() {
		sim.Compute()
		sim.UpdateUniforms(UniformUpdate{Time: F(1)})
		sim.Compute()
	})
	assert.Empty(t, backend.steps)
	assert.Equal(t, TextureHandle{Size: 2, Count: 2}, sim.PositionTexture())

	sim.Dispose()
	assert.Zero(t, backend.disposed)
}

func TestNew_OtherInitErrorFails(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&fakeBackend{initErr: boom}, []float32{0, 0, 0}, Options{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnsupported)
}

func TestNew_NilBackendDegrades(t *testing.T) {
	sim, err := New(nil, []float32{0, 0, 0}, Options{})
	require.NoError(t, err)
	assert.True(t, sim.Degraded())
	assert.NotPanics(t, sim.Compute)
	assert.NotPanics(t, sim.Dispose)
}

func TestSimulation_ComputeUsesCurrentUniforms(t *testing.T) {
	backend := &fakeBackend{}
	custom := DefaultUniforms()
	custom.Turbulence = 0.2

	sim, err := New(backend, []float32{0, 0, 0}, Options{Uniforms: &custom})
	require.NoError(t, err)
	assert.False(t, sim.Degraded())
	assert.Equal(t, 1, sim.ParticleCount())
	assert.Equal(t, 1, sim.TextureSize())

	sim.Compute()
	sim.UpdateUniforms(UniformUpdate{Pointer: V(mgl32.Vec3{0.5, 0.5, 0})})
	sim.Compute()

	require.Len(t, backend.steps, 2)
	assert.Equal(t, PointerAway, backend.steps[0].Pointer)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0}, backend.steps[1].Pointer)
	assert.Equal(t, float32(0.2), backend.steps[1].Turbulence)
	assert.Equal(t, custom.ReturnStrength, sim.Uniforms().ReturnStrength)
}

func TestSimulation_DisposeOnce(t *testing.T) {
	backend := &fakeBackend{}
	sim, err := New(backend, []float32{0, 0, 0}, Options{})
	require.NoError(t, err)

	sim.Dispose()
	sim.Dispose()
	sim.Compute()

	assert.Equal(t, 1, backend.disposed)
	assert.Empty(t, backend.steps)
}

func TestSimulation_CPUBackend(t *testing.T) {
	initial := []float32{0.1, 0.1, 0, -0.2, 0.3, 0, 0.4, -0.4, 0}
	backend := NewCPUBackend(3)
	sim, err := New(backend, initial, Options{})
	require.NoError(t, err)
	defer sim.Dispose()

	assert.Equal(t, 3, sim.ParticleCount())
	assert.Equal(t, 2, sim.TextureSize())

	for i := 0; i < 30; i++ {
		sim.UpdateUniforms(UniformUpdate{Time: F(float32(i) / 60)})
		sim.Compute()
	}
	pos := backend.Positions()
	require.Len(t, pos, len(initial))
	assert.NotEqual(t, initial, pos)
	for i := range pos {
		assert.InDelta(t, initial[i], pos[i], 0.5)
	}
}

func TestSimulation_StepFailureLoggedOnce(t *testing.T) {
	backend := &fakeBackend{stepErr: errors.New("device lost")}
	log := &recordingLogger{}
	sim, err := New(backend, []float32{0, 0, 0}, Options{Logger: log})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		sim.Compute()
	}
	assert.Len(t, backend.steps, 5)
	assert.Equal(t, 5, sim.StepFailures())
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "device lost")

	backend.stepErr = nil
	sim.Compute()
	assert.Zero(t, sim.StepFailures())

	backend.stepErr = errors.New("device lost again")
	sim.Compute()
	require.Len(t, log.warnings, 2)
	assert.Contains(t, log.warnings[1], "device lost again")
}
