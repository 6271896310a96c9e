package softgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/gpu"
)

var (
	vsBlob = []byte("void main() { gl_Position = vec4(0); }")
	psBlob = []byte("out vec4 c; void main() { c = vec4(1); }")
)

type testPipeline struct {
	vs, ps gpu.Ptr[gpu.Shader]
	layout gpu.Ptr[gpu.InputLayout]
	vb, ib gpu.Ptr[gpu.Buffer]
}

func newPipeline(t *testing.T, dev *Device, ctx *Context) *testPipeline {
	t.Helper()
	p := &testPipeline{}
	var err error
	p.vs, err = dev.CreateVertexShader(vsBlob)
	require.NoError(t, err)
	p.ps, err = dev.CreatePixelShader(psBlob)
	require.NoError(t, err)
	p.layout, err = dev.CreateInputLayout([]gpu.InputElement{
		{Semantic: "POSITION", Format: gpu.FormatR32G32B32Float},
	}, vsBlob)
	require.NoError(t, err)

	verts := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	p.vb, err = dev.CreateBuffer(&gpu.BufferDesc{ByteWidth: 36, StructStride: 12, ResType: gpu.BindVertexBuffer},
		&gpu.ResourceData{Data: gpu.AsBytes(verts)})
	require.NoError(t, err)
	p.ib, err = dev.CreateBuffer(&gpu.BufferDesc{ByteWidth: 12, ResType: gpu.BindIndexBuffer, Dynamic: true, CPUAccess: gpu.CPUAccessWrite},
		&gpu.ResourceData{Data: gpu.AsBytes([]uint32{0, 1, 2})})
	require.NoError(t, err)

	ctx.SetInputLayout(p.layout.Get())
	ctx.SetVertexShader(p.vs.Get())
	ctx.SetPixelShader(p.ps.Get())
	ctx.SetVertexBuffers(0, []gpu.Buffer{p.vb.Get()}, []int{12}, []int{0})
	ctx.SetIndexBuffer(p.ib.Get(), gpu.IndexUint32, 0)
	return p
}

func (p *testPipeline) release() {
	p.ib.Reset()
	p.vb.Reset()
	p.layout.Reset()
	p.ps.Reset()
	p.vs.Reset()
}

func TestCreateAndReleaseTracksLiveObjects(t *testing.T) {
	dev, ctx := New()
	p := newPipeline(t, dev, ctx)
	assert.Equal(t, 5, dev.Live())
	assert.Equal(t, 2, dev.LiveOf(KindBuffer))

	shared := p.vb.Share()
	p.release()
	assert.Equal(t, 1, dev.Live(), "shared buffer must outlive the first owner")

	shared.Reset()
	assert.Zero(t, dev.Live())
}

func TestCreateBufferRejectsInvalidDescriptions(t *testing.T) {
	dev, _ := New()

	_, err := dev.CreateBuffer(&gpu.BufferDesc{ByteWidth: 16, ResType: gpu.BindVertexBuffer | gpu.BindConstantBuffer}, nil)
	assert.ErrorIs(t, err, gpu.ErrInvalidArg)
	assert.Equal(t, gpu.CodeInvalidArg, gpu.CodeOf(err))

	_, err = dev.CreateBuffer(&gpu.BufferDesc{ByteWidth: 16, ResType: gpu.BindVertexBuffer},
		&gpu.ResourceData{Data: make([]byte, 8)})
	assert.ErrorIs(t, err, gpu.ErrInvalidArg)

	_, err = dev.CreateBuffer(&gpu.BufferDesc{ByteWidth: 16, ResType: gpu.BindVertexBuffer, CPUAccess: gpu.CPUAccessRead}, nil)
	assert.Equal(t, gpu.CodeUnsupported, gpu.CodeOf(err))
	assert.Zero(t, dev.Live())
}

func TestInputLayoutNeedsLiveVertexShaderBytecode(t *testing.T) {
	dev, _ := New()
	elems := []gpu.InputElement{{Semantic: "POSITION", Format: gpu.FormatR32G32B32Float}}

	_, err := dev.CreateInputLayout(elems, vsBlob)
	assert.ErrorIs(t, err, gpu.ErrInvalidArg, "no vertex shader exists yet")

	vs, err := dev.CreateVertexShader(vsBlob)
	require.NoError(t, err)
	layout, err := dev.CreateInputLayout(elems, vsBlob)
	require.NoError(t, err)
	layout.Reset()

	_, err = dev.CreateInputLayout(elems, psBlob)
	assert.ErrorIs(t, err, gpu.ErrInvalidArg, "bytecode of another blob")

	vs.Reset()
	_, err = dev.CreateInputLayout(elems, vsBlob)
	assert.ErrorIs(t, err, gpu.ErrInvalidArg, "shader already released")
}

func TestLockRules(t *testing.T) {
	dev, ctx := New()
	p := newPipeline(t, dev, ctx)
	defer p.release()

	assert.Nil(t, ctx.Lock(p.vb.Get()), "static buffers cannot be locked")

	data := ctx.Lock(p.ib.Get())
	require.Len(t, data, 12)
	assert.Nil(t, ctx.Lock(p.ib.Get()), "double lock")

	ctx.DrawIndexed(3, 0, 0)
	assert.Empty(t, ctx.Calls(), "draw with a locked index buffer")

	copy(data, gpu.AsBytes([]uint32{2, 1, 0}))
	ctx.Unlock(p.ib.Get())
	ctx.DrawIndexed(3, 0, 0)
	require.Len(t, ctx.Calls(), 1)
	assert.Equal(t, []uint32{2, 1, 0}, gpu.FromBytes[uint32](BufferData(p.ib.Get())))
	assert.Equal(t, 1, ctx.Stats().Locks)
}

func TestWithLockUnlocksAfterCallback(t *testing.T) {
	dev, ctx := New()
	p := newPipeline(t, dev, ctx)
	defer p.release()

	ok := gpu.WithLock(ctx, p.ib.Get(), func(b []byte) { b[0] = 1 })
	assert.True(t, ok)
	assert.NotNil(t, ctx.Lock(p.ib.Get()), "WithLock must leave the buffer unlocked")
	ctx.Unlock(p.ib.Get())
}

func TestDrawValidation(t *testing.T) {
	dev, ctx := New()
	p := newPipeline(t, dev, ctx)
	defer p.release()

	ctx.SetPrimitiveTopology(gpu.TopologyTriangleList)
	ctx.Draw(3, 0)
	ctx.Draw(4, 0)
	require.Len(t, ctx.Calls(), 1)
	assert.Len(t, ctx.Violations(), 1)

	copy(ctx.Lock(p.ib.Get()), gpu.AsBytes([]uint32{0, 1, 3}))
	ctx.Unlock(p.ib.Get())
	ctx.DrawIndexed(3, 0, 0)
	assert.Len(t, ctx.Calls(), 1, "index 3 is outside the 3-vertex buffer")

	ctx.ResetRecording()
	ctx.SetPixelShader(nil)
	ctx.Draw(3, 0)
	assert.Empty(t, ctx.Calls())
	assert.NotEmpty(t, ctx.Violations())
}

func TestDrawRecordsConstantSnapshot(t *testing.T) {
	dev, ctx := New()
	p := newPipeline(t, dev, ctx)
	defer p.release()

	cb, err := dev.CreateBuffer(&gpu.BufferDesc{ByteWidth: 64, ResType: gpu.BindConstantBuffer, Dynamic: true, CPUAccess: gpu.CPUAccessWrite}, nil)
	require.NoError(t, err)
	defer cb.Reset()

	gpu.WithLock(ctx, cb.Get(), func(b []byte) { b[0] = 7 })
	ctx.SetVConstantBuffers(0, []gpu.Buffer{cb.Get()})
	ctx.Draw(3, 0)
	gpu.WithLock(ctx, cb.Get(), func(b []byte) { b[0] = 9 })
	ctx.Draw(3, 0)

	calls := ctx.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, byte(7), calls[0].VSConstants[0])
	assert.Equal(t, byte(9), calls[1].VSConstants[0])
}

func TestLostDevice(t *testing.T) {
	dev, ctx := New()
	p := newPipeline(t, dev, ctx)

	dev.Lose()
	_, err := dev.CreateVertexShader(vsBlob)
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
	assert.Nil(t, ctx.Lock(p.ib.Get()))

	ctx.Draw(3, 0)
	assert.Empty(t, ctx.Calls())
	assert.Empty(t, ctx.Violations(), "draws on a lost device are dropped silently")

	p.release()
	assert.Zero(t, dev.Live())
}

func TestFailNext(t *testing.T) {
	dev, _ := New()
	dev.FailNext(KindPixelShader, 1)

	_, err := dev.CreatePixelShader(psBlob)
	assert.Equal(t, gpu.CodeOutOfMemory, gpu.CodeOf(err))

	ps, err := dev.CreatePixelShader(psBlob)
	require.NoError(t, err)
	ps.Reset()
}

func TestViewsHoldTextureReference(t *testing.T) {
	dev, ctx := New()
	tex, err := dev.CreateTexture2D(&gpu.TextureDesc{
		Width: 2, Height: 2, Format: gpu.FormatR8G8B8A8Unorm,
		ResType: gpu.BindRenderTarget | gpu.BindShaderResource,
	}, nil)
	require.NoError(t, err)

	rt, err := dev.CreateRenderTarget(tex.Get())
	require.NoError(t, err)
	_, err = dev.CreateDepthStencil(tex.Get())
	assert.ErrorIs(t, err, gpu.ErrInvalidArg, "color texture as depth target")

	texture := tex.Get()
	tex.Reset()
	assert.Equal(t, 1, dev.LiveOf(KindTexture), "render target keeps the texture alive")

	ctx.ClearRenderTarget(rt.Get(), [4]float32{1, 0, 0, 1})
	assert.Equal(t, []byte{255, 0, 0, 255}, TextureData(texture)[:4])

	rt.Reset()
	assert.Zero(t, dev.Live())
}

func TestBackendCreatesFreshDevices(t *testing.T) {
	var b Backend
	b.FailCreate(1)
	_, _, err := b.CreateDevice()
	assert.ErrorIs(t, err, gpu.ErrUnsupported)

	d1, _, err := b.CreateDevice()
	require.NoError(t, err)
	d2, _, err := b.CreateDevice()
	require.NoError(t, err)
	assert.NotSame(t, d1, d2)
	assert.Same(t, d2, b.Current())
}
