package scene

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/gpu"
	"render-toolkit/gpu/softgpu"
	"render-toolkit/graphics"
	"render-toolkit/input"
	"render-toolkit/resource"
)

type recordingScene struct {
	Base
	events  []string
	view    View
	target  *Target
	consume bool
}

func (s *recordingScene) OnSceneCreate(v View) {
	s.view = v
	s.events = append(s.events, "create")
}

func (s *recordingScene) OnSceneResize(w, h int) {
	s.events = append(s.events, fmt.Sprintf("resize %dx%d", w, h))
}

func (s *recordingScene) OnSceneInput(ev input.Event) bool {
	s.events = append(s.events, "input")
	return s.consume
}

func (s *recordingScene) OnSceneRender(ctx gpu.Context, t *Target) {
	s.target = t
	s.events = append(s.events, "render")
}

func (s *recordingScene) OnSceneDestroy()          { s.events = append(s.events, "destroy") }
func (s *recordingScene) OnGraphicDeviceLost()     { s.events = append(s.events, "lost") }
func (s *recordingScene) OnGraphicDeviceRestored() { s.events = append(s.events, "restored") }

func newHost(t *testing.T) (*Host, *recordingScene, *graphics.Manager, *softgpu.Backend) {
	t.Helper()
	backend := &softgpu.Backend{}
	gm := graphics.NewManager(backend)
	require.NoError(t, gm.Init())
	s := &recordingScene{}
	return NewHost(gm, resource.Embedded(), s), s, gm, backend
}

func TestHostLifecycle(t *testing.T) {
	h, s, gm, _ := newHost(t)

	assert.False(t, h.Render(), "no render before create")
	assert.False(t, h.Input(input.NewKey(input.KeyDown, 'A', 0)))

	require.NoError(t, h.Create(800, 600))
	assert.Equal(t, []string{"create", "resize 800x600"}, s.events)
	assert.Same(t, h, s.view)
	assert.Len(t, gm.Listeners(), 2)
	assert.ErrorIs(t, h.Create(800, 600), ErrLifecycle)

	require.NoError(t, h.Destroy())
	assert.Equal(t, "destroy", s.events[len(s.events)-1])
	assert.Empty(t, gm.Listeners())
	assert.False(t, h.Render())
	assert.ErrorIs(t, h.Destroy(), ErrLifecycle)
}

func TestHostResizeDeduplicates(t *testing.T) {
	h, s, _, backend := newHost(t)
	require.NoError(t, h.Create(800, 600))
	s.events = nil

	assert.False(t, h.Resize(800, 600))
	assert.Empty(t, s.events)

	assert.True(t, h.Resize(1024, 768))
	assert.Equal(t, []string{"resize 1024x768"}, s.events)
	desc := h.Target().Color.Texture().Desc()
	assert.Equal(t, 1024, desc.Width)
	assert.Equal(t, 768, desc.Height)
	assert.Equal(t, 2, backend.Current().LiveOf(softgpu.KindTexture), "old targets are released")
}

func TestHostRenderBindsTargets(t *testing.T) {
	h, s, _, backend := newHost(t)
	require.NoError(t, h.Create(320, 240))
	assert.True(t, h.NeedsRedraw())

	require.True(t, h.Render())
	assert.False(t, h.NeedsRedraw())
	assert.Equal(t, uint64(1), h.Frames())

	require.NotNil(t, s.target)
	assert.Equal(t, uint64(0), s.target.Frame)
	ctx := backend.Current().Context()
	colors, depth := ctx.RenderTargets()
	require.Len(t, colors, 1)
	assert.Equal(t, s.target.Color, colors[0])
	assert.Equal(t, s.target.Depth, depth)
	assert.Equal(t, []gpu.Viewport{{Width: 320, Height: 240, MaxDepth: 1}}, ctx.Viewports())
}

func TestHostSkipsRenderWhileLost(t *testing.T) {
	h, s, gm, backend := newHost(t)
	require.NoError(t, h.Create(64, 64))
	old := backend.Current()
	s.events = nil

	gm.NotifyDeviceLost()
	assert.Zero(t, old.Live(), "targets released on loss")
	assert.False(t, h.Render())
	assert.Equal(t, []string{"lost"}, s.events)

	require.NoError(t, gm.NotifyDeviceRestored())
	assert.True(t, h.Render())
	assert.Equal(t, []string{"lost", "restored", "render"}, s.events)
	assert.Equal(t, 4, backend.Current().Live())
}

func TestHostInputInvalidates(t *testing.T) {
	h, s, _, _ := newHost(t)
	require.NoError(t, h.Create(64, 64))
	h.Render()

	ev := input.NewMouse(input.MouseDown, input.Left, image.Pt(1, 1), 0)
	assert.False(t, h.Input(ev))
	assert.False(t, h.NeedsRedraw())

	s.consume = true
	assert.True(t, h.Input(ev))
	assert.True(t, h.NeedsRedraw())
}

func TestDestroyBeforeCreate(t *testing.T) {
	h, s, _, _ := newHost(t)
	require.NoError(t, h.Destroy())
	assert.Empty(t, s.events)
	assert.ErrorIs(t, h.Create(10, 10), ErrLifecycle)
}
