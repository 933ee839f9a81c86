package simulation

import (
	"errors"
	"fmt"
)

// Logger is the subset of keyvisual.Logger the simulation writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type Options struct {
	// InitialVelocities is optional; when set it must match the length of
	// the initial positions.
	InitialVelocities []float32
	Logger            Logger
	// Uniforms replaces DefaultUniforms when non-nil.
	Uniforms *Uniforms
}

// Simulation drives a Backend one step per frame. A simulation whose
// backend cannot run is degraded: every call is a cheap no-op.
type Simulation struct {
	backend  Backend
	log      Logger
	uniforms Uniforms

	size     int
	count    int
	degraded bool
	disposed bool
	failures int
}

// New packs initial (flat xyz) into the texture layout and initializes
// backend. A malformed buffer fails fast. ErrUnsupported from the backend
// is logged and yields a degraded simulation, not an error.
func New(backend Backend, initial []float32, opts Options) (*Simulation, error) {
	st, err := PackState(initial, opts.InitialVelocities)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		backend:  backend,
		log:      opts.Logger,
		uniforms: DefaultUniforms(),
		size:     st.Size,
		count:    st.Count,
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	if opts.Uniforms != nil {
		s.uniforms = *opts.Uniforms
	}

	if backend == nil {
		s.log.Warnf("simulation: no backend, particles stay static")
		s.degraded = true
		return s, nil
	}
	if err := backend.Init(st); err != nil {
		if errors.Is(err, ErrUnsupported) {
			s.log.Warnf("simulation disabled: %v", err)
			s.degraded = true
			return s, nil
		}
		return nil, fmt.Errorf("simulation: init backend: %w", err)
	}
	s.log.Debugf("simulation: %d particles in %dx%d textures", st.Count, st.Size, st.Size)
	return s, nil
}

// Compute advances the simulation by one step with the current uniforms.
// Call it at most once per frame from the frame goroutine. A failing step
// leaves the particles where they were; the first failure of a run is
// logged as a warning.
func (s *Simulation) Compute() {
	if s.degraded || s.disposed {
		return
	}
	if err := s.backend.Step(s.uniforms); err != nil {
		s.failures++
		if s.failures == 1 {
			s.log.Warnf("simulation: step failed: %v", err)
		}
		return
	}
	if s.failures > 0 {
		s.log.Debugf("simulation: step recovered after %d failures", s.failures)
		s.failures = 0
	}
}

// StepFailures is the number of consecutive failed steps.
func (s *Simulation) StepFailures() int { return s.failures }

func (s *Simulation) UpdateUniforms(up UniformUpdate) {
	s.uniforms.Apply(up)
}

func (s *Simulation) Uniforms() Uniforms { return s.uniforms }

// PositionTexture returns the current position texture. The handle is only
// valid until the next Compute.
func (s *Simulation) PositionTexture() TextureHandle {
	if s.degraded || s.disposed {
		return TextureHandle{Size: s.size, Count: s.count}
	}
	return s.backend.Texture()
}

func (s *Simulation) TextureSize() int   { return s.size }
func (s *Simulation) ParticleCount() int { return s.count }
func (s *Simulation) Degraded() bool     { return s.degraded }

// Backend returns the backend the simulation was built with.
func (s *Simulation) Backend() Backend { return s.backend }

// Dispose releases the backend. It is safe to call more than once.
func (s *Simulation) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	if s.backend != nil && !s.degraded {
		s.backend.Dispose()
	}
}
