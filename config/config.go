// Package config loads the key visual configuration: embedded defaults
// overlaid with an optional user YAML file, plus named presets.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/keyvisual/layers"
	"github.com/gekko3d/keyvisual/sampler"
	"github.com/gekko3d/keyvisual/simulation"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	ErrUnknownPreset  = errors.New("config: unknown preset")
	ErrUnknownBackend = errors.New("config: unknown backend")
)

type Config struct {
	// Seed drives particle selection.
	Seed int64 `yaml:"seed"`

	Sampler    layers.SamplerConfig `yaml:"sampler"`
	Simulation SimulationConfig     `yaml:"simulation"`
	Cache      CacheConfig          `yaml:"cache"`
	Clock      ClockConfig          `yaml:"clock"`
	Log        LogConfig            `yaml:"log"`

	Presets map[string]yaml.Node `yaml:"presets"`
}

type Backend string

const (
	BackendGPU Backend = "gpu"
	BackendCPU Backend = "cpu"
)

// ParseBackend accepts "gpu" or "cpu".
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendGPU, BackendCPU:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q (want gpu or cpu)", ErrUnknownBackend, s)
}

// SimulationConfig holds the initial force strengths. The host changes
// them per frame with simulation.UniformUpdate.
type SimulationConfig struct {
	Backend   Backend `yaml:"backend"`
	NoiseSeed int64   `yaml:"noise_seed"` // CPU backend only

	FlowStrength    float32 `yaml:"flow_strength"`
	ReturnStrength  float32 `yaml:"return_strength"`
	PointerStrength float32 `yaml:"pointer_strength"`
	Turbulence      float32 `yaml:"turbulence"`
}

type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

type ClockConfig struct {
	MaxDelta float64 `yaml:"max_delta"` // seconds
}

type LogConfig struct {
	Prefix string `yaml:"prefix"`
	Debug  bool   `yaml:"debug"`
}

// Load reads the embedded defaults and overlays the file at path, if any.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) normalize() {
	c.Sampler.Normalize()
	switch c.Simulation.Backend {
	case BackendGPU, BackendCPU:
	default:
		c.Simulation.Backend = BackendGPU
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = sampler.DefaultCacheCapacity
	}
	if c.Clock.MaxDelta <= 0 {
		c.Clock.MaxDelta = 1.0 / 30.0
	}
}

// PresetNames returns the preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overlays the named preset onto c. Keys the preset does not
// name keep their current value.
func (c *Config) ApplyPreset(name string) error {
	node, ok := c.Presets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	overlay := struct {
		ArtDirection *layers.ArtDirectionConfig `yaml:"art_direction"`
		Layers       *layers.LayerSet           `yaml:"layers"`
		Simulation   *SimulationConfig          `yaml:"simulation"`
	}{
		ArtDirection: &c.Sampler.ArtDirection,
		Layers:       &c.Sampler.Layers,
		Simulation:   &c.Simulation,
	}
	if err := node.Decode(&overlay); err != nil {
		return fmt.Errorf("decoding preset %q: %w", name, err)
	}
	c.normalize()
	return nil
}

// Uniforms returns the starting simulation uniforms.
func (c *Config) Uniforms() simulation.Uniforms {
	u := simulation.DefaultUniforms()
	u.FlowStrength = c.Simulation.FlowStrength
	u.ReturnStrength = c.Simulation.ReturnStrength
	u.PointerStrength = c.Simulation.PointerStrength
	u.Turbulence = c.Simulation.Turbulence
	return u
}

func (c *Config) MaxDelta() time.Duration {
	return time.Duration(c.Clock.MaxDelta * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
