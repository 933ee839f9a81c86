package keyvisual

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/keyvisual/config"
	"github.com/gekko3d/keyvisual/layers"
	"github.com/gekko3d/keyvisual/sampler"
	"github.com/gekko3d/keyvisual/simulation"
)

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func cpuEffect(t *testing.T) (*Effect, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.Backend = config.BackendCPU

	var logs bytes.Buffer
	e, err := NewEffect(Options{
		Config: cfg,
		Logger: NewWriterLogger("test", true, &logs, &logs),
	})
	require.NoError(t, err)
	t.Cleanup(e.Dispose)
	return e, &logs
}

// blockingSource never yields data; it waits for its context.
type blockingSource struct {
	started chan struct{}
}

func (s *blockingSource) Key() string { return "blocking" }

func (s *blockingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	close(s.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEffect_LoadInstallsOnFrame(t *testing.T) {
	e, _ := cpuEffect(t)

	res, err := e.Load(context.Background(), LoadRequest{Image: sampler.Bytes(whitePNG(t, 20, 10))})
	require.NoError(t, err)
	require.NotNil(t, res.Particles)
	assert.Equal(t, uint64(1), res.Generation)

	// White image: no edges, so contour is empty and fill/highlight take
	// every sampled pixel.
	assert.Zero(t, res.Particles.Offset(layers.Contour).Count)
	assert.Equal(t, 50, res.Particles.Offset(layers.Fill).Count)
	assert.Equal(t, 50, res.Particles.Offset(layers.Highlight).Count)

	assert.Nil(t, e.Simulation())
	assert.Nil(t, e.Particles())

	now := time.Unix(100, 0)
	e.Frame(now, simulation.PointerAway)
	require.NotNil(t, e.Simulation())
	assert.Equal(t, res.Particles.TotalCount, e.Simulation().ParticleCount())
	assert.False(t, e.Simulation().Degraded())
	require.NotNil(t, e.Particles())
	assert.Equal(t, res.ID, e.Particles().ID)

	e.Frame(now.Add(16*time.Millisecond), simulation.PointerAway)
	u := e.Simulation().Uniforms()
	assert.InDelta(t, 0.016, u.DeltaTime, 1e-6)
	assert.InDelta(t, 0.016, u.Time, 1e-6)
	assert.Equal(t, simulation.PointerAway, u.Pointer)

	_, frames := e.Profiler().Last("frame")
	_, computes := e.Profiler().Last("compute")
	assert.Equal(t, 2, frames)
	assert.Equal(t, 2, computes)
	assert.Equal(t, res.Particles.TotalCount, e.Profiler().Count("particles"))
}

func TestEffect_StaleLoadDiscarded(t *testing.T) {
	e, _ := cpuEffect(t)

	block := &blockingSource{started: make(chan struct{})}
	errCh := make(chan error, 1)
	go func() {
		_, err := e.Load(context.Background(), LoadRequest{Image: block})
		errCh <- err
	}()
	<-block.started

	res, err := e.Load(context.Background(), LoadRequest{Image: sampler.Bytes(whitePNG(t, 8, 8))})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Generation)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrStaleLoad)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded load did not return")
	}
	_, loads := e.Profiler().Last("load")
	assert.Equal(t, 1, loads)

	e.Frame(time.Unix(1, 0), simulation.PointerAway)
	require.NotNil(t, e.Particles())
	assert.Equal(t, res.ID, e.Particles().ID)
}

func TestEffect_LoadErrors(t *testing.T) {
	e, logs := cpuEffect(t)

	_, err := e.Load(context.Background(), LoadRequest{})
	assert.Error(t, err)

	_, err = e.Load(context.Background(), LoadRequest{Image: sampler.NamedBytes("junk", []byte("nope"))})
	var decErr *sampler.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, sampler.RoleImage, decErr.Role)
	assert.Contains(t, logs.String(), "ERROR")

	e.Frame(time.Unix(1, 0), simulation.PointerAway)
	assert.Nil(t, e.Simulation())
}

func TestEffect_SamplerOverride(t *testing.T) {
	e, _ := cpuEffect(t)

	cfg := layers.DefaultSamplerConfig()
	cfg.Layers.Highlight.Enabled = false
	cfg.MaxParticles = 10
	res, err := e.Load(context.Background(), LoadRequest{
		Image:   sampler.Bytes(whitePNG(t, 20, 10)),
		Sampler: &cfg,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Particles.Offset(layers.Highlight).Count)
	assert.LessOrEqual(t, res.Particles.TotalCount, 10)
}

func TestEffect_GPUWithoutDeviceIsStatic(t *testing.T) {
	var logs bytes.Buffer
	e, err := NewEffect(Options{Logger: NewWriterLogger("", false, &logs, &logs)})
	require.NoError(t, err)
	defer e.Dispose()

	_, err = e.Load(context.Background(), LoadRequest{Image: sampler.Bytes(whitePNG(t, 4, 4))})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		e.Frame(time.Unix(1, 0), simulation.PointerAway)
		e.Frame(time.Unix(2, 0), simulation.PointerAway)
	})
	require.NotNil(t, e.Simulation())
	assert.True(t, e.Simulation().Degraded())
	assert.Contains(t, logs.String(), "WARN")
}

func TestEffect_UpdateUniformsCarriesOver(t *testing.T) {
	e, _ := cpuEffect(t)
	e.UpdateUniforms(simulation.UniformUpdate{Turbulence: simulation.F(0.42)})

	_, err := e.Load(context.Background(), LoadRequest{Image: sampler.Bytes(whitePNG(t, 4, 4))})
	require.NoError(t, err)
	e.Frame(time.Unix(1, 0), simulation.PointerAway)

	require.NotNil(t, e.Simulation())
	assert.Equal(t, float32(0.42), e.Simulation().Uniforms().Turbulence)
}

func TestEffect_DisposeStopsFrames(t *testing.T) {
	e, _ := cpuEffect(t)
	_, err := e.Load(context.Background(), LoadRequest{Image: sampler.Bytes(whitePNG(t, 4, 4))})
	require.NoError(t, err)
	e.Frame(time.Unix(1, 0), simulation.PointerAway)

	e.Dispose()
	assert.Nil(t, e.Simulation())
	assert.NotPanics(t, func() { e.Frame(time.Unix(2, 0), simulation.PointerAway) })
	e.Dispose()
}
