package simulation

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a surfaceless wgpu device for hosts that only need compute,
// such as the sampling CLI.
type Device struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
}

// RequestHeadlessDevice picks a high-performance adapter without a surface.
func RequestHeadlessDevice() (*Device, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrUnsupported, err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Key Visual Simulation Device",
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrUnsupported, err)
	}

	return &Device{Instance: instance, Adapter: adapter, Device: device}, nil
}

func (d *Device) Release() {
	if d == nil {
		return
	}
	if d.Device != nil {
		d.Device.Release()
	}
	if d.Adapter != nil {
		d.Adapter.Release()
	}
	if d.Instance != nil {
		d.Instance.Release()
	}
}
