package simulation

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnsupported reports that the graphics context cannot run the
// simulation. It is a capability fact, not a transient failure.
var ErrUnsupported = errors.New("simulation: compute textures not supported")

// ErrNotInitialized is returned by Step before Init or after Dispose.
var ErrNotInitialized = errors.New("simulation: backend not initialized")

// Backend owns the texture pairs and executes one step per call.
type Backend interface {
	Init(state State) error
	// Step runs the velocity pass, then the position pass, then swaps. On
	// error the textures are left as they were.
	Step(u Uniforms) error
	Texture() TextureHandle
	Dispose()
}

// TextureHandle is the read side of the current position texture. View is
// nil for CPU backends. Texels at index >= Count are padding.
type TextureHandle struct {
	View  *wgpu.TextureView
	Size  int
	Count int
}
