package scene

import (
	"errors"
	"fmt"

	"render-toolkit/gpu"
	"render-toolkit/graphics"
	"render-toolkit/input"
	"render-toolkit/logging"
	"render-toolkit/resource"
)

var ErrLifecycle = errors.New("scene: invalid lifecycle transition")

type hostState int

const (
	uncreated hostState = iota
	created
	destroyed
)

func (s hostState) String() string {
	switch s {
	case uncreated:
		return "uncreated"
	case created:
		return "created"
	}
	return "destroyed"
}

// Host drives one Scene. It owns the frame's color and depth targets and
// recreates them across device loss, registers the scene with the device
// manager for its lifetime, and skips rendering while the device is lost.
type Host struct {
	manager *graphics.Manager
	res     resource.Provider
	scene   Scene
	state   hostState

	width, height int
	frame         uint64
	dirty         bool

	color gpu.Ptr[gpu.RenderTarget]
	depth gpu.Ptr[gpu.DepthStencil]
}

var _ View = (*Host)(nil)

func NewHost(manager *graphics.Manager, res resource.Provider, s Scene) *Host {
	return &Host{manager: manager, res: res, scene: s}
}

// Create sizes the targets, registers the host and then the scene with the
// manager, and runs OnSceneCreate followed by OnSceneResize.
func (h *Host) Create(width, height int) error {
	if h.state != uncreated {
		return fmt.Errorf("create from %v: %w", h.state, ErrLifecycle)
	}
	h.width, h.height = max(width, 1), max(height, 1)
	h.state = created
	h.createTargets()

	h.manager.AddListener(h)
	h.manager.AddListener(h.scene)
	h.scene.OnSceneCreate(h)
	h.scene.OnSceneResize(h.width, h.height)
	h.dirty = true
	return nil
}

// Resize forwards a new size to the scene. Repeated identical sizes are
// dropped.
func (h *Host) Resize(width, height int) bool {
	width, height = max(width, 1), max(height, 1)
	if h.state != created || (width == h.width && height == h.height) {
		return false
	}
	h.width, h.height = width, height
	h.createTargets()
	h.scene.OnSceneResize(width, height)
	h.dirty = true
	return true
}

// Input hands ev to the scene and schedules a frame when it was consumed.
func (h *Host) Input(ev input.Event) bool {
	if h.state != created {
		return false
	}
	if h.scene.OnSceneInput(ev) {
		h.dirty = true
		return true
	}
	return false
}

// Render binds the targets and runs OnSceneRender. It reports false, and
// calls nothing, before Create, after Destroy or while the device is lost.
func (h *Host) Render() bool {
	if h.state != created || h.manager.State() != graphics.StateLive {
		return false
	}
	ctx := h.manager.Context()
	if ctx == nil || h.color.IsNull() || h.depth.IsNull() {
		return false
	}
	target := h.Target()
	ctx.SetRenderTargets([]gpu.RenderTarget{target.Color}, target.Depth)
	ctx.SetViewports([]gpu.Viewport{target.Viewport()})
	h.scene.OnSceneRender(ctx, target)
	h.frame++
	h.dirty = false
	return true
}

// Destroy runs OnSceneDestroy, unregisters the scene and releases the
// targets. A second call is an error.
func (h *Host) Destroy() error {
	switch h.state {
	case uncreated:
		h.state = destroyed
		return nil
	case destroyed:
		return fmt.Errorf("destroy from %v: %w", h.state, ErrLifecycle)
	}
	h.scene.OnSceneDestroy()
	h.manager.RemoveListener(h.scene)
	h.manager.RemoveListener(h)
	h.releaseTargets()
	h.state = destroyed
	return nil
}

// Target describes the current frame. Color and Depth are nil while the
// targets do not exist.
func (h *Host) Target() *Target {
	t := &Target{Width: h.width, Height: h.height, Frame: h.frame}
	if !h.color.IsNull() {
		t.Color = h.color.Get()
	}
	if !h.depth.IsNull() {
		t.Depth = h.depth.Get()
	}
	return t
}

func (h *Host) Manager() *graphics.Manager   { return h.manager }
func (h *Host) Resources() resource.Provider { return h.res }
func (h *Host) Size() (int, int)             { return h.width, h.height }
func (h *Host) Invalidate()                  { h.dirty = true }

// NeedsRedraw reports whether a frame was requested since the last Render.
func (h *Host) NeedsRedraw() bool { return h.dirty }

func (h *Host) Frames() uint64 { return h.frame }

func (h *Host) OnGraphicDeviceLost() {
	h.releaseTargets()
}

func (h *Host) OnGraphicDeviceRestored() {
	h.createTargets()
	h.dirty = true
}

func (h *Host) createTargets() {
	h.releaseTargets()
	dev := h.manager.Device()
	if dev == nil {
		return
	}
	log := logging.For("scene")

	colorTex, err := dev.CreateTexture2D(&gpu.TextureDesc{
		Width:   h.width,
		Height:  h.height,
		Format:  gpu.FormatR8G8B8A8Unorm,
		ResType: gpu.BindRenderTarget | gpu.BindShaderResource,
	}, nil)
	if err != nil {
		log.Error("create color target", "err", err)
		return
	}
	defer colorTex.Reset()
	if h.color, err = dev.CreateRenderTarget(colorTex.Get()); err != nil {
		log.Error("create color view", "err", err)
		return
	}

	depthTex, err := dev.CreateTexture2D(&gpu.TextureDesc{
		Width:   h.width,
		Height:  h.height,
		Format:  gpu.FormatD24UnormS8Uint,
		ResType: gpu.BindDepthStencil,
	}, nil)
	if err != nil {
		log.Error("create depth target", "err", err)
		h.releaseTargets()
		return
	}
	defer depthTex.Reset()
	if h.depth, err = dev.CreateDepthStencil(depthTex.Get()); err != nil {
		log.Error("create depth view", "err", err)
		h.releaseTargets()
	}
}

func (h *Host) releaseTargets() {
	h.depth.Reset()
	h.color.Reset()
}
