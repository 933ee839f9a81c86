package simulation

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const workgroupSize = 8

// Capabilities are the device limits the two passes rely on.
type Capabilities struct {
	MaxTextureDimension2D             uint32
	MaxStorageTexturesPerShaderStage  uint32
	MaxSampledTexturesPerShaderStage  uint32
	MaxComputeInvocationsPerWorkgroup uint32
	MaxBindGroups                     uint32
}

// DeviceCapabilities reads the limits of d.
func DeviceCapabilities(d *wgpu.Device) Capabilities {
	l := d.GetLimits().Limits
	return Capabilities{
		MaxTextureDimension2D:             l.MaxTextureDimension2D,
		MaxStorageTexturesPerShaderStage:  l.MaxStorageTexturesPerShaderStage,
		MaxSampledTexturesPerShaderStage:  l.MaxSampledTexturesPerShaderStage,
		MaxComputeInvocationsPerWorkgroup: l.MaxComputeInvocationsPerWorkgroup,
		MaxBindGroups:                     l.MaxBindGroups,
	}
}

// Check returns an error wrapping ErrUnsupported when a simulation with
// textures of side textureSize cannot run.
func (c Capabilities) Check(textureSize int) error {
	switch {
	case uint32(textureSize) > c.MaxTextureDimension2D:
		return fmt.Errorf("%w: texture size %d exceeds limit %d", ErrUnsupported, textureSize, c.MaxTextureDimension2D)
	case c.MaxStorageTexturesPerShaderStage < 1:
		return fmt.Errorf("%w: no storage textures in compute stage", ErrUnsupported)
	case c.MaxSampledTexturesPerShaderStage < 2:
		return fmt.Errorf("%w: position pass needs 2 sampled textures, limit %d", ErrUnsupported, c.MaxSampledTexturesPerShaderStage)
	case c.MaxComputeInvocationsPerWorkgroup < workgroupSize*workgroupSize:
		return fmt.Errorf("%w: workgroup limit %d below %d", ErrUnsupported, c.MaxComputeInvocationsPerWorkgroup, workgroupSize*workgroupSize)
	case c.MaxBindGroups < 1:
		return fmt.Errorf("%w: no bind groups", ErrUnsupported)
	}
	return nil
}
