// Package keyvisual turns a brand image into a living particle cloud: it
// samples the image into layered particles and advances them every frame.
package keyvisual

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/keyvisual/config"
	"github.com/gekko3d/keyvisual/layers"
	"github.com/gekko3d/keyvisual/sampler"
	"github.com/gekko3d/keyvisual/simulation"
)

// ErrStaleLoad is returned by Load when a newer Load superseded it.
var ErrStaleLoad = errors.New("keyvisual: load superseded by a newer request")

var errNoImage = errors.New("keyvisual: load without image source")

type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Logger defaults to a DefaultLogger built from Config.Log.
	Logger Logger
	// Cache defaults to a new cache sized by Config.Cache.
	Cache *sampler.ImageCache
	// Device is used by the GPU backend. A nil device leaves the effect
	// static, with a warning.
	Device *wgpu.Device
	// NewBackend overrides the backend chosen by Config.Simulation.Backend.
	NewBackend func() simulation.Backend
}

type LoadRequest struct {
	Image sampler.Source
	Depth sampler.Source // optional
	// Sampler overrides Config.Sampler for this load.
	Sampler *layers.SamplerConfig
}

type LoadResult struct {
	ID         uuid.UUID
	Generation uint64
	Particles  *layers.LayeredParticleData
}

// Effect owns the load pipeline and the simulation of one key visual.
//
// Load may be called from any goroutine. Frame, Simulation and Dispose
// belong to the frame goroutine; the simulation is built there so the
// graphics state has a single writer.
type Effect struct {
	cfg        *config.Config
	log        Logger
	loader     *sampler.Loader
	newBackend func() simulation.Backend
	prof       *Profiler

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	pending    *LoadResult
	current    *LoadResult

	clock    *Clock
	uniforms simulation.Uniforms
	sim      *simulation.Simulation
	disposed bool
}

func NewEffect(opts Options) (*Effect, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)
	}
	cache := opts.Cache
	if cache == nil {
		var err error
		if cache, err = sampler.NewImageCache(cfg.Cache.Capacity); err != nil {
			return nil, fmt.Errorf("keyvisual: %w", err)
		}
	}

	e := &Effect{
		cfg:        cfg,
		log:        log,
		loader:     sampler.NewLoader(cache),
		newBackend: opts.NewBackend,
		prof:       NewProfiler(),
		clock:      NewClock(cfg.MaxDelta()),
		uniforms:   cfg.Uniforms(),
	}
	if e.newBackend == nil {
		e.newBackend = backendFactory(cfg.Simulation, opts.Device)
	}
	return e, nil
}

func backendFactory(sc config.SimulationConfig, device *wgpu.Device) func() simulation.Backend {
	if sc.Backend == config.BackendCPU {
		return func() simulation.Backend { return simulation.NewCPUBackend(sc.NoiseSeed) }
	}
	return func() simulation.Backend { return simulation.NewGPUBackend(device) }
}

// Load samples req into layered particles. The previous in-flight load is
// cancelled. The result is installed on the next Frame.
func (e *Effect) Load(ctx context.Context, req LoadRequest) (LoadResult, error) {
	if req.Image == nil {
		return LoadResult{}, errNoImage
	}

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.generation++
	gen := e.generation
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	id := uuid.New()
	cfg := e.cfg.Sampler
	if req.Sampler != nil {
		cfg = *req.Sampler
		cfg.Normalize()
	}
	e.log.Debugf("load %s (gen %d): %s", id, gen, req.Image.Key())

	start := time.Now()
	features, err := e.loader.Load(ctx, req.Image, req.Depth, cfg.ExtractOptions())
	if e.stale(gen) {
		return LoadResult{}, fmt.Errorf("%w: load %s", ErrStaleLoad, id)
	}
	if err != nil {
		e.log.Errorf("load %s failed: %v", id, err)
		return LoadResult{}, err
	}

	// Samplers are not safe for concurrent use.
	data := layers.NewSampler(e.cfg.Seed).Sample(features, cfg)

	res := LoadResult{ID: id, Generation: gen, Particles: data}
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return LoadResult{}, fmt.Errorf("%w: load %s", ErrStaleLoad, id)
	}
	e.pending = &res
	e.mu.Unlock()
	e.prof.Record("load", time.Since(start))

	e.log.Infof("load %s: %d particles (contour %d, fill %d, highlight %d) from %dx%d in %s",
		id, data.TotalCount,
		data.Offset(layers.Contour).Count, data.Offset(layers.Fill).Count, data.Offset(layers.Highlight).Count,
		data.SourceWidth, data.SourceHeight, time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (e *Effect) stale(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen != e.generation
}

// Frame advances the clock, installs a pending load and runs one
// simulation step. Pass simulation.PointerAway when there is no pointer.
func (e *Effect) Frame(now time.Time, pointer mgl32.Vec3) {
	if e.disposed {
		return
	}
	e.prof.Begin("frame")
	defer e.prof.End("frame")
	e.clock.Tick(now)

	e.mu.Lock()
	p := e.pending
	e.pending = nil
	e.mu.Unlock()
	if p != nil {
		e.install(*p)
	}

	up := simulation.UniformUpdate{
		Time:      simulation.F(e.clock.Seconds()),
		DeltaTime: simulation.F(e.clock.DtSeconds()),
		Pointer:   simulation.V(pointer),
	}
	e.uniforms.Apply(up)
	if e.sim == nil {
		return
	}
	e.sim.UpdateUniforms(up)
	e.prof.Begin("compute")
	e.sim.Compute()
	e.prof.End("compute")
}

func (e *Effect) install(res LoadResult) {
	if e.sim != nil {
		e.sim.Dispose()
		e.sim = nil
	}

	u := e.uniforms
	sim, err := simulation.New(e.newBackend(), res.Particles.Positions, simulation.Options{
		Logger:   e.log,
		Uniforms: &u,
	})
	if err != nil {
		e.log.Errorf("load %s: simulation: %v", res.ID, err)
	} else {
		e.sim = sim
		e.prof.SetCount("particles", sim.ParticleCount())
		e.prof.SetCount("texture", sim.TextureSize())
	}

	e.mu.Lock()
	e.current = &res
	e.mu.Unlock()
}

// UpdateUniforms changes the force strengths of the running and any
// future simulation. Call it from the frame goroutine.
func (e *Effect) UpdateUniforms(up simulation.UniformUpdate) {
	e.uniforms.Apply(up)
	if e.sim != nil {
		e.sim.UpdateUniforms(up)
	}
}

// Particles returns the installed load, or nil before the first Frame that
// follows a successful Load.
func (e *Effect) Particles() *LoadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Simulation returns the running simulation, or nil.
func (e *Effect) Simulation() *simulation.Simulation { return e.sim }

func (e *Effect) Clock() *Clock { return e.clock }

func (e *Effect) Profiler() *Profiler { return e.prof }

func (e *Effect) Logger() Logger { return e.log }

func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.pending = nil
	e.mu.Unlock()
	if e.sim != nil {
		e.sim.Dispose()
		e.sim = nil
	}
}
