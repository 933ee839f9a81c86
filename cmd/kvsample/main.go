// kvsample samples an image into key visual particles, runs the
// simulation headless for a number of frames and writes a preview PNG.
//
// Usage: go run ./cmd/kvsample -image logo.png [-depth depth.png] [-preset calm]
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gekko3d/keyvisual"
	"github.com/gekko3d/keyvisual/config"
	"github.com/gekko3d/keyvisual/sampler"
	"github.com/gekko3d/keyvisual/simulation"
)

func main() {
	imagePath := flag.String("image", "", "Source image (png, jpeg, gif, webp, bmp, tiff) or http(s) URL")
	depthPath := flag.String("depth", "", "Optional depth map")
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Named preset to apply after loading the config")
	backend := flag.String("backend", "", "Simulation backend: cpu or gpu (empty = use config)")
	steps := flag.Int("steps", 120, "Frames to simulate before rendering the preview")
	outPath := flag.String("out", "preview.png", "Preview PNG path")
	width := flag.Int("width", 1024, "Preview width in pixels")
	writeConfig := flag.String("write-config", "", "Write the effective config to this path")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "kvsample: -image is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvsample: %v\n", err)
		os.Exit(1)
	}
	if *preset != "" {
		if err := cfg.ApplyPreset(*preset); err != nil {
			fmt.Fprintf(os.Stderr, "kvsample: %v (available: %v)\n", err, cfg.PresetNames())
			os.Exit(1)
		}
	}
	if *backend != "" {
		b, err := config.ParseBackend(*backend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kvsample: -backend: %v\n", err)
			flag.Usage()
			os.Exit(2)
		}
		cfg.Simulation.Backend = b
	}
	cfg.Log.Debug = cfg.Log.Debug || *debug

	log := keyvisual.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)

	if *writeConfig != "" {
		if err := cfg.WriteYAML(*writeConfig); err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, options{
		image: *imagePath,
		depth: *depthPath,
		steps: *steps,
		out:   *outPath,
		width: *width,
	}); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

type options struct {
	image string
	depth string
	steps int
	out   string
	width int
}

func source(path string) sampler.Source {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return sampler.URL(path, nil)
	}
	return sampler.File(path)
}

func run(ctx context.Context, cfg *config.Config, log keyvisual.Logger, opts options) error {
	effOpts := keyvisual.Options{Config: cfg, Logger: log}

	if cfg.Simulation.Backend == config.BackendGPU {
		dev, err := simulation.RequestHeadlessDevice()
		if err != nil {
			log.Warnf("no GPU device, falling back to the CPU backend: %v", err)
			cfg.Simulation.Backend = config.BackendCPU
		} else {
			defer dev.Release()
			effOpts.Device = dev.Device
		}
	}

	effect, err := keyvisual.NewEffect(effOpts)
	if err != nil {
		return err
	}
	defer effect.Dispose()

	req := keyvisual.LoadRequest{Image: source(opts.image)}
	if opts.depth != "" {
		req.Depth = source(opts.depth)
	}
	res, err := effect.Load(ctx, req)
	if err != nil {
		return err
	}

	// Synthetic 60 Hz frames.
	now := time.Now()
	frame := time.Second / 60
	start := time.Now()
	for i := 0; i <= opts.steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		effect.Frame(now, simulation.PointerAway)
		now = now.Add(frame)
	}
	sim := effect.Simulation()
	if sim != nil {
		log.Infof("simulated %d frames of %d particles (%dx%d texture) in %s",
			opts.steps, sim.ParticleCount(), sim.TextureSize(), sim.TextureSize(),
			time.Since(start).Round(time.Millisecond))
	}

	if log.DebugEnabled() {
		log.Debugf("profile\n%s", effect.Profiler())
	}

	positions := res.Particles.Positions
	if sim != nil {
		if cpu, ok := sim.Backend().(*simulation.CPUBackend); ok {
			positions = cpu.Positions()
		} else {
			log.Infof("GPU positions stay on the device; previewing rest positions")
		}
	}

	img := renderPreview(res.Particles, positions, opts.width)
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("creating preview: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding preview: %w", err)
	}
	log.Infof("wrote %s (%dx%d)", opts.out, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
