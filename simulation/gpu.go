package simulation

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/keyvisual/simulation/shaders"
)

const stateFormat = wgpu.TextureFormatRGBA32Float

// GPUBackend runs the velocity and position passes as two WebGPU compute
// pipelines over ping-pong rgba32float textures.
//
// Bind groups are prebuilt per direction: bind[cur] reads texture cur and
// writes texture cur^1.
type GPUBackend struct {
	Device *wgpu.Device
	queue  *wgpu.Queue

	size  int
	count int
	cur   int

	posTex  [2]*wgpu.Texture
	velTex  [2]*wgpu.Texture
	posView [2]*wgpu.TextureView
	velView [2]*wgpu.TextureView

	paramsBuf *wgpu.Buffer

	velBGL      *wgpu.BindGroupLayout
	posBGL      *wgpu.BindGroupLayout
	velLayout   *wgpu.PipelineLayout
	posLayout   *wgpu.PipelineLayout
	velPipeline *wgpu.ComputePipeline
	posPipeline *wgpu.ComputePipeline
	velBind     [2]*wgpu.BindGroup
	posBind     [2]*wgpu.BindGroup
}

func NewGPUBackend(device *wgpu.Device) *GPUBackend {
	return &GPUBackend{Device: device}
}

func (b *GPUBackend) Init(st State) error {
	if b.Device == nil {
		return fmt.Errorf("%w: no device", ErrUnsupported)
	}
	if err := DeviceCapabilities(b.Device).Check(st.Size); err != nil {
		return err
	}
	b.queue = b.Device.GetQueue()
	b.size = st.Size
	b.count = st.Count
	b.cur = 0

	if err := b.createTextures(st); err != nil {
		b.Dispose()
		return err
	}
	if err := b.createPipelines(); err != nil {
		b.Dispose()
		return err
	}
	if err := b.createBindGroups(); err != nil {
		b.Dispose()
		return err
	}
	return nil
}

func (b *GPUBackend) createTexture(label string) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(b.size), Height: uint32(b.size), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        stateFormat,
		Usage: wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding |
			wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (b *GPUBackend) upload(tex *wgpu.Texture, data []byte) error {
	extent := wgpu.Extent3D{Width: uint32(b.size), Height: uint32(b.size), DepthOrArrayLayers: 1}
	return b.queue.WriteTexture(
		tex.AsImageCopy(),
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(b.size) * 16,
			RowsPerImage: uint32(b.size),
		},
		&extent,
	)
}

func (b *GPUBackend) createTextures(st State) error {
	var err error
	for i := 0; i < 2; i++ {
		if b.posTex[i], b.posView[i], err = b.createTexture(fmt.Sprintf("Position Texture %d", i)); err != nil {
			return err
		}
		if b.velTex[i], b.velView[i], err = b.createTexture(fmt.Sprintf("Velocity Texture %d", i)); err != nil {
			return err
		}
	}

	// Both halves of each pair start identical so the first step reads
	// valid origins whichever way it points.
	pos := wgpu.ToBytes(st.Position)
	vel := wgpu.ToBytes(st.Velocity)
	for i := 0; i < 2; i++ {
		if err := b.upload(b.posTex[i], pos); err != nil {
			return fmt.Errorf("failed to upload positions: %w", err)
		}
		if err := b.upload(b.velTex[i], vel); err != nil {
			return fmt.Errorf("failed to upload velocities: %w", err)
		}
	}

	b.paramsBuf, err = b.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Simulation Params",
		Size:  paramsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create params buffer: %w", err)
	}
	if err := b.queue.WriteBuffer(b.paramsBuf, 0, encodeParams(DefaultUniforms(), b.count, b.size)); err != nil {
		return fmt.Errorf("failed to write params buffer: %w", err)
	}
	return nil
}

func sampledEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func storageEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		StorageTexture: wgpu.StorageTextureBindingLayout{
			Access:        wgpu.StorageTextureAccessWriteOnly,
			Format:        stateFormat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func paramsEntry() wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: wgpu.ShaderStageCompute,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: paramsSize,
		},
	}
}

func (b *GPUBackend) createPipeline(label, code string, entries []wgpu.BindGroupLayoutEntry) (*wgpu.BindGroupLayout, *wgpu.PipelineLayout, *wgpu.ComputePipeline, error) {
	module, err := b.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create %s shader module: %w", label, err)
	}
	defer module.Release()

	bgl, err := b.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + " BGL",
		Entries: entries,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create %s bind group layout: %w", label, err)
	}

	layout, err := b.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return nil, nil, nil, fmt.Errorf("failed to create %s pipeline layout: %w", label, err)
	}

	pipeline, err := b.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label + " Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		layout.Release()
		bgl.Release()
		return nil, nil, nil, fmt.Errorf("failed to create %s pipeline: %w", label, err)
	}
	return bgl, layout, pipeline, nil
}

func (b *GPUBackend) createPipelines() error {
	var err error
	b.velBGL, b.velLayout, b.velPipeline, err = b.createPipeline("Velocity Pass", shaders.VelocityWGSL(),
		[]wgpu.BindGroupLayoutEntry{paramsEntry(), sampledEntry(1), storageEntry(2)})
	if err != nil {
		return err
	}
	b.posBGL, b.posLayout, b.posPipeline, err = b.createPipeline("Position Pass", shaders.PositionWGSL(),
		[]wgpu.BindGroupLayoutEntry{paramsEntry(), sampledEntry(1), sampledEntry(2), storageEntry(3)})
	return err
}

func (b *GPUBackend) createBindGroups() error {
	for cur := 0; cur < 2; cur++ {
		next := cur ^ 1
		params := wgpu.BindGroupEntry{Binding: 0, Buffer: b.paramsBuf, Size: wgpu.WholeSize}

		var err error
		b.velBind[cur], err = b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("Velocity Pass %d->%d", cur, next),
			Layout: b.velBGL,
			Entries: []wgpu.BindGroupEntry{
				params,
				{Binding: 1, TextureView: b.velView[cur]},
				{Binding: 2, TextureView: b.velView[next]},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create velocity bind group: %w", err)
		}

		// The position pass reads the velocity this step's velocity pass wrote.
		b.posBind[cur], err = b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("Position Pass %d->%d", cur, next),
			Layout: b.posBGL,
			Entries: []wgpu.BindGroupEntry{
				params,
				{Binding: 1, TextureView: b.posView[cur]},
				{Binding: 2, TextureView: b.velView[next]},
				{Binding: 3, TextureView: b.posView[next]},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create position bind group: %w", err)
		}
	}
	return nil
}

// Step encodes both passes in one command buffer. Separate compute passes
// give the position pass a synchronized view of the velocity pass output.
func (b *GPUBackend) Step(u Uniforms) error {
	if b.velPipeline == nil || b.posPipeline == nil {
		return ErrNotInitialized
	}
	if err := b.queue.WriteBuffer(b.paramsBuf, 0, encodeParams(u, b.count, b.size)); err != nil {
		return fmt.Errorf("write params: %w", err)
	}

	encoder, err := b.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	defer encoder.Release()

	groups := uint32((b.size + workgroupSize - 1) / workgroupSize)

	velPass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "Velocity Pass"})
	velPass.SetPipeline(b.velPipeline)
	velPass.SetBindGroup(0, b.velBind[b.cur], nil)
	velPass.DispatchWorkgroups(groups, groups, 1)
	velPass.End()
	velPass.Release()

	posPass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "Position Pass"})
	posPass.SetPipeline(b.posPipeline)
	posPass.SetBindGroup(0, b.posBind[b.cur], nil)
	posPass.DispatchWorkgroups(groups, groups, 1)
	posPass.End()
	posPass.Release()

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer cmdBuf.Release()
	b.queue.Submit(cmdBuf)

	b.cur ^= 1
	return nil
}

func (b *GPUBackend) Texture() TextureHandle {
	return TextureHandle{View: b.posView[b.cur], Size: b.size, Count: b.count}
}

func (b *GPUBackend) Dispose() {
	for i := 0; i < 2; i++ {
		if b.velBind[i] != nil {
			b.velBind[i].Release()
			b.velBind[i] = nil
		}
		if b.posBind[i] != nil {
			b.posBind[i].Release()
			b.posBind[i] = nil
		}
	}
	if b.velPipeline != nil {
		b.velPipeline.Release()
		b.velPipeline = nil
	}
	if b.posPipeline != nil {
		b.posPipeline.Release()
		b.posPipeline = nil
	}
	if b.velLayout != nil {
		b.velLayout.Release()
		b.velLayout = nil
	}
	if b.posLayout != nil {
		b.posLayout.Release()
		b.posLayout = nil
	}
	if b.velBGL != nil {
		b.velBGL.Release()
		b.velBGL = nil
	}
	if b.posBGL != nil {
		b.posBGL.Release()
		b.posBGL = nil
	}
	if b.paramsBuf != nil {
		b.paramsBuf.Release()
		b.paramsBuf = nil
	}
	for i := 0; i < 2; i++ {
		if b.posView[i] != nil {
			b.posView[i].Release()
			b.posView[i] = nil
		}
		if b.velView[i] != nil {
			b.velView[i].Release()
			b.velView[i] = nil
		}
		if b.posTex[i] != nil {
			b.posTex[i].Release()
			b.posTex[i] = nil
		}
		if b.velTex[i] != nil {
			b.velTex[i].Release()
			b.velTex[i] = nil
		}
	}
}
