package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/gpu"
	"render-toolkit/gpu/softgpu"
	"render-toolkit/graphics"
	"render-toolkit/resource"
	"render-toolkit/scene"
	"render-toolkit/scene/visual"
)

func newVisualHost(t *testing.T) (*softgpu.Backend, *graphics.Manager, *scene.Host) {
	t.Helper()
	backend := &softgpu.Backend{}
	gm := graphics.NewManager(backend)
	require.NoError(t, gm.Init())
	s := visual.New(visual.DefaultOptions())
	s.SetLayout(&visual.Node{
		Bounds:   visual.Rect{Width: 100, Height: 100},
		Children: []*visual.Node{{Bounds: visual.Rect{X: 10, Y: 10, Width: 20, Height: 20}}},
	})
	h := scene.NewHost(gm, resource.Embedded(), s)
	require.NoError(t, h.Create(320, 240))
	return backend, gm, h
}

func TestRunCountsFrames(t *testing.T) {
	backend, gm, h := newVisualHost(t)
	r, err := Run(backend, gm, h, Options{Frames: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, r.Frames)
	assert.Zero(t, r.Skipped)
	assert.Zero(t, r.Resets)
	assert.Equal(t, 5*4, r.DrawCalls, "two blocks, axis and grid per frame")
	assert.Equal(t, 5*2, r.Clears)
	assert.Positive(t, r.Primitives)
	assert.Zero(t, r.Violations)
	assert.Equal(t, uint64(5), h.Frames())
}

func TestRunResetsDevice(t *testing.T) {
	backend, gm, h := newVisualHost(t)
	r, err := Run(backend, gm, h, Options{Frames: 9, ResetEvery: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, r.Resets)
	assert.Equal(t, 9, r.Frames)
	assert.Equal(t, 9*4, r.DrawCalls, "every frame draws the same after a restore")
	assert.Len(t, backend.Devices, 4)
	for _, dev := range backend.Devices[:3] {
		assert.Zero(t, dev.Live(), "old devices are fully released")
	}
	assert.Equal(t, backend.Current().Live(), r.LiveObjects)
}

func TestRunStopsWhenRestoreFails(t *testing.T) {
	backend, gm, h := newVisualHost(t)
	backend.FailCreate(1)
	r, err := Run(backend, gm, h, Options{Frames: 4, ResetEvery: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrUnsupported)
	assert.Equal(t, 1, r.Frames)
	assert.Equal(t, graphics.StateLost, gm.State())
}

func TestPrimitives(t *testing.T) {
	assert.Equal(t, 2, primitives(gpu.TopologyTriangleList, 6))
	assert.Equal(t, 4, primitives(gpu.TopologyTriangleStrip, 6))
	assert.Equal(t, 3, primitives(gpu.TopologyLineList, 6))
	assert.Equal(t, 5, primitives(gpu.TopologyLineStrip, 6))
	assert.Equal(t, 6, primitives(gpu.TopologyPointList, 6))
	assert.Zero(t, primitives(gpu.TopologyTriangleStrip, 1))
}
