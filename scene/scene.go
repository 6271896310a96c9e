// Package scene defines the contract between a renderable scene and the
// Host that drives it.
//
// A scene goes through OnSceneCreate, any number of OnSceneResize,
// OnSceneInput and OnSceneRender calls, then OnSceneDestroy. Device loss
// and restore may be interleaved anywhere after creation; a scene must
// release every GPU object on loss and be fully functional again after the
// restore.
package scene

import (
	"render-toolkit/gpu"
	"render-toolkit/graphics"
	"render-toolkit/input"
	"render-toolkit/resource"
)

type Scene interface {
	graphics.Listener

	OnSceneCreate(view View)
	OnSceneResize(width, height int)
	// OnSceneInput reports whether the event was consumed.
	OnSceneInput(ev input.Event) bool
	OnSceneRender(ctx gpu.Context, target *Target)
	OnSceneDestroy()
}

// View is what a scene sees of its host.
type View interface {
	Manager() *graphics.Manager
	Resources() resource.Provider
	Size() (width, height int)
	// Invalidate asks for another frame.
	Invalidate()
}

// Target is the frame a scene renders into. Color and Depth are already
// bound and the viewport covers Width x Height when OnSceneRender runs.
type Target struct {
	Color  gpu.RenderTarget
	Depth  gpu.DepthStencil
	Width  int
	Height int
	Frame  uint64
}

// Viewport covers the whole target.
func (t *Target) Viewport() gpu.Viewport {
	return gpu.Viewport{Width: float32(t.Width), Height: float32(t.Height), MaxDepth: 1}
}

// Base implements Scene with no-ops so scenes only override what they use.
type Base struct{}

func (Base) OnSceneCreate(View) {}
func (Base) OnSceneResize(int, int) {}
func (Base) OnSceneInput(input.Event) bool { return false }
func (Base) OnSceneRender(gpu.Context, *Target) {}
func (Base) OnSceneDestroy() {}
func (Base) OnGraphicDeviceLost() {}
func (Base) OnGraphicDeviceRestored() {}
