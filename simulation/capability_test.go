package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func goodCaps() Capabilities {
	return Capabilities{
		MaxTextureDimension2D:             8192,
		MaxStorageTexturesPerShaderStage:  4,
		MaxSampledTexturesPerShaderStage:  16,
		MaxComputeInvocationsPerWorkgroup: 256,
		MaxBindGroups:                     4,
	}
}

func TestCapabilities_Check(t *testing.T) {
	assert.NoError(t, goodCaps().Check(128))

	cases := map[string]func(*Capabilities){
		"texture dimension": func(c *Capabilities) { c.MaxTextureDimension2D = 64 },
		"storage textures":  func(c *Capabilities) { c.MaxStorageTexturesPerShaderStage = 0 },
		"sampled textures":  func(c *Capabilities) { c.MaxSampledTexturesPerShaderStage = 1 },
		"workgroup":         func(c *Capabilities) { c.MaxComputeInvocationsPerWorkgroup = 32 },
		"bind groups":       func(c *Capabilities) { c.MaxBindGroups = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := goodCaps()
			mutate(&c)
			assert.ErrorIs(t, c.Check(128), ErrUnsupported)
		})
	}
}

func TestGPUBackend_NilDevice(t *testing.T) {
	b := NewGPUBackend(nil)
	st, err := PackState([]float32{0, 0, 0}, nil)
	assert.NoError(t, err)
	assert.ErrorIs(t, b.Init(st), ErrUnsupported)
	assert.ErrorIs(t, b.Step(DefaultUniforms()), ErrNotInitialized)
	assert.NotPanics(t, b.Dispose)
}
