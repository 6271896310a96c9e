package drawing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/gpu"
	"render-toolkit/gpu/softgpu"
	"render-toolkit/graphics"
	"render-toolkit/math"
)

// testbed is a live device plus a minimal pipeline so draws are accepted.
type testbed struct {
	gm      *graphics.Manager
	backend *softgpu.Backend
	vs, ps  gpu.Ptr[gpu.Shader]
	layout  gpu.Ptr[gpu.InputLayout]
}

func newTestbed(t *testing.T) *testbed {
	t.Helper()
	tb := &testbed{backend: &softgpu.Backend{}}
	tb.gm = graphics.NewManager(tb.backend)
	require.NoError(t, tb.gm.Init())
	tb.bind(t)
	return tb
}

func (tb *testbed) bind(t *testing.T) {
	t.Helper()
	dev := tb.gm.Device()
	vsCode := []byte("vs")
	var err error
	tb.vs, err = dev.CreateVertexShader(vsCode)
	require.NoError(t, err)
	tb.ps, err = dev.CreatePixelShader([]byte("ps"))
	require.NoError(t, err)
	tb.layout, err = dev.CreateInputLayout(ModelElements(), vsCode)
	require.NoError(t, err)

	ctx := tb.gm.Context()
	ctx.SetVertexShader(tb.vs.Get())
	ctx.SetPixelShader(tb.ps.Get())
	ctx.SetInputLayout(tb.layout.Get())
}

func (tb *testbed) ctx() *softgpu.Context { return tb.backend.Current().Context() }

func quad(z float32) ([]byte, []uint32) {
	vertices := []AssistVertex{
		{Position: math.NewVec3(0, 0, z)}, {Position: math.NewVec3(0, 1, z)},
		{Position: math.NewVec3(1, 1, z)}, {Position: math.NewVec3(1, 0, z)},
	}
	return gpu.AsBytes(vertices), []uint32{0, 1, 2, 0, 2, 3}
}

func TestPutCube(t *testing.T) {
	m := NewManager(nil)
	g := NewGraphCreator(m)
	require.True(t, g.PutCube(1, 200))

	obj := m.GetByTag(1)
	require.NotNil(t, obj)
	assert.Equal(t, 8, obj.VertexCount)
	assert.Equal(t, 36, obj.IndexCount)

	for i, v := range gpu.FromBytes[ModelVertex](obj.Vertices) {
		assert.InDelta(t, 1, v.Normal.Length(), 1e-5, "vertex %d", i)
		assert.Greater(t, v.Normal.Dot(v.Position), float32(0), "vertex %d normal points outward", i)
	}
}

func TestCalculateNormalVectorWeighsByArea(t *testing.T) {
	vertices := []ModelVertex{
		{Position: math.NewVec3(0, 0, 0)},
		{Position: math.NewVec3(0, 10, 0)},
		{Position: math.NewVec3(10, 0, 0)},
		{Position: math.NewVec3(0, 0, -1)},
		{Position: math.NewVec3(5, 5, 5), Normal: math.Vec3Up},
	}
	// a large face pointing -Z and a small one pointing +X share vertex 0
	indices := []uint32{0, 1, 2, 0, 3, 1}
	CalculateNormalVector(vertices, indices)

	n := vertices[0].Normal
	assert.InDelta(t, 1, n.Length(), 1e-6)
	assert.Greater(t, n.X, float32(0))
	assert.Less(t, n.Z, float32(-0.9), "the larger face dominates")
	assert.Equal(t, math.Vec3Up, vertices[4].Normal, "unreferenced vertices keep their normal")
}

func TestShapes(t *testing.T) {
	m := NewManager(nil)
	g := NewGraphCreator(m)

	require.True(t, g.PutLine(1, math.Vec3Zero, math.Vec3One, math.ColorWhite))
	require.True(t, g.PutWorldAxis(2, 100))
	require.True(t, g.PutMark(3, math.NewVec3(5, 5, 5), 10, math.ColorYellow))
	require.True(t, g.PutGrid(4, 100, 10))
	require.True(t, g.PutBlock(5, math.Vec3Zero, math.NewVec3(1, 2, 3), math.ColorGreen))
	require.True(t, g.PutSphere(6, 50, 16, 8, math.ColorBlue))

	tests := []struct {
		tag, vertices, indices int
		topology               gpu.Topology
	}{
		{1, 2, 2, gpu.TopologyLineList},
		{2, 6, 6, gpu.TopologyLineList},
		{3, 6, 6, gpu.TopologyLineList},
		{4, 44, 44, gpu.TopologyLineList},
		{5, 8, 36, gpu.TopologyTriangleList},
		{6, 17 * 9, 16 * 8 * 6, gpu.TopologyTriangleList},
	}
	for _, tt := range tests {
		obj := m.GetByTag(tt.tag)
		require.NotNil(t, obj, "tag %d", tt.tag)
		assert.Equal(t, tt.vertices, obj.VertexCount, "tag %d", tt.tag)
		assert.Equal(t, tt.indices, obj.IndexCount, "tag %d", tt.tag)
		assert.Equal(t, tt.topology, obj.Topology, "tag %d", tt.tag)
	}

	assert.False(t, g.PutCube(5, 10), "tag already used by the block")
	assert.Equal(t, 6, m.GetCount())
}

func TestSphereNormalsPointOutward(t *testing.T) {
	m := NewManager(nil)
	require.True(t, NewGraphCreator(m).PutSphere(1, 10, 12, 6, math.ColorWhite))

	for i, v := range gpu.FromBytes[ModelVertex](m.GetByTag(1).Vertices) {
		want := v.Position.Normalize()
		assert.Greater(t, v.Normal.Dot(want), float32(0.9), "vertex %d", i)
	}
}

func TestAddRejectsDuplicateTag(t *testing.T) {
	m := NewManager(nil)
	first, idx := quad(0)
	second, _ := quad(5)

	require.True(t, m.Add(first, idx, assistSize, 4, 6, 7))
	assert.False(t, m.Add(second, idx, assistSize, 4, 6, 7))

	assert.Equal(t, 1, m.GetCount())
	assert.Equal(t, first, m.GetByTag(7).Vertices)
}

func TestAddRejectsInvalidArguments(t *testing.T) {
	m := NewManager(nil)
	verts, idx := quad(0)

	assert.False(t, m.Add(nil, idx, assistSize, 4, 6, 1))
	assert.False(t, m.Add(verts, nil, assistSize, 4, 6, 1))
	assert.False(t, m.Add(verts, idx, assistSize, 0, 6, 1))
	assert.False(t, m.Add(verts, idx, assistSize, 4, 0, 1))
	assert.False(t, m.Add(verts, idx, assistSize, 5, 6, 1))
	assert.Zero(t, m.GetCount())
}

func TestRemoveAndPositions(t *testing.T) {
	m := NewManager(nil)
	verts, idx := quad(0)
	for _, tag := range []int{3, 1, 2} {
		require.True(t, m.Add(verts, idx, assistSize, 4, 6, tag))
	}

	assert.Equal(t, 1, m.GetByPos(1).Tag)
	assert.Nil(t, m.GetByPos(3))

	assert.False(t, m.RemoveByTag(42))
	assert.Equal(t, 3, m.GetCount())

	assert.True(t, m.RemoveByPos(0))
	assert.False(t, m.Contains(3))
	assert.Equal(t, 1, m.GetByPos(0).Tag)
}

func TestDrawIssuesOneCall(t *testing.T) {
	tb := newTestbed(t)
	m := NewManager(tb.gm)
	g := NewGraphCreator(m)
	require.True(t, g.PutCube(1, 200))

	assert.False(t, m.Draw(tb.gm.Context(), 99))
	assert.Empty(t, tb.ctx().Calls(), "absent tag draws nothing")

	assert.True(t, m.Draw(tb.gm.Context(), 1))
	calls := tb.ctx().Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Indexed)
	assert.Equal(t, 36, calls[0].Count)
	assert.Empty(t, tb.ctx().Violations())
}

func TestDeviceLostAndRestored(t *testing.T) {
	tb := newTestbed(t)
	m := NewManager(tb.gm)
	tb.gm.AddListener(m)
	g := NewGraphCreator(m)
	require.True(t, g.PutCube(1, 200))
	require.True(t, g.PutGrid(2, 100, 4))

	before := map[int][]byte{}
	for tag, obj := range m.Objects() {
		before[tag] = append([]byte(nil), obj.Vertices...)
		require.True(t, obj.HasBuffers())
	}
	oldDev := tb.backend.Current()
	tb.vs.Reset()
	tb.ps.Reset()
	tb.layout.Reset()

	tb.gm.NotifyDeviceLost()
	assert.Zero(t, oldDev.Live(), "every buffer is released on loss")
	assert.Equal(t, 2, m.GetCount())
	for _, obj := range m.Objects() {
		assert.False(t, obj.HasBuffers())
		assert.False(t, m.Draw(tb.gm.Context(), obj.Tag))
	}

	require.NoError(t, tb.gm.NotifyDeviceRestored())
	tb.bind(t)
	for tag, obj := range m.Objects() {
		assert.True(t, obj.HasBuffers())
		assert.Equal(t, before[tag], obj.Vertices)
		assert.Equal(t, before[tag], softgpu.BufferData(obj.VertexBuffer.Get()))
	}
	assert.Equal(t, 2, m.DrawAll(tb.gm.Context()))
	assert.Len(t, tb.ctx().Calls(), 2)
}

func TestAddWhileLostDefersBuffers(t *testing.T) {
	tb := newTestbed(t)
	m := NewManager(tb.gm)
	tb.gm.AddListener(m)

	tb.gm.NotifyDeviceLost()
	require.True(t, NewGraphCreator(m).PutWorldAxis(1, 10))
	assert.False(t, m.GetByTag(1).HasBuffers())

	require.NoError(t, tb.gm.NotifyDeviceRestored())
	assert.True(t, m.GetByTag(1).HasBuffers())
}

func TestBufferFailureKeepsObject(t *testing.T) {
	tb := newTestbed(t)
	m := NewManager(tb.gm)
	tb.backend.Current().FailNext(softgpu.KindBuffer, 1)

	require.True(t, NewGraphCreator(m).PutCube(1, 10))
	assert.False(t, m.GetByTag(1).HasBuffers())
	assert.False(t, m.Draw(tb.gm.Context(), 1))
}

func TestClose(t *testing.T) {
	tb := newTestbed(t)
	m := NewManager(tb.gm)
	require.True(t, NewGraphCreator(m).PutCube(1, 10))
	m.Close()
	assert.Zero(t, m.GetCount())
	assert.Equal(t, 3, tb.backend.Current().Live(), "only the test pipeline is left")
}

func TestVertexSizes(t *testing.T) {
	assert.Equal(t, 28, assistSize)
	assert.Equal(t, 48, modelSize)
}
