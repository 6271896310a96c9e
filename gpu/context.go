package gpu

// Topology selects how vertices are assembled into primitives.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList
)

type IndexFormat int

const (
	IndexUint32 IndexFormat = iota
	IndexUint16
)

// Size returns the byte size of one index.
func (f IndexFormat) Size() int {
	if f == IndexUint16 {
		return 2
	}
	return 4
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type ClearFlags uint32

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// Context records pipeline state and issues draws, mirroring an
// immediate-mode pipeline: input assembler, vertex shader, rasterizer,
// pixel shader, output merger.
//
// Lock maps a dynamic resource for CPU writes. It returns a slice of the
// resource's full byte size, or nil when the resource is not dynamic,
// already locked, or the device is gone. Every successful Lock must be
// paired with Unlock before the resource is used by a draw again.
type Context interface {
	SetPrimitiveTopology(t Topology)
	SetInputLayout(layout InputLayout)
	SetVertexBuffers(startSlot int, buffers []Buffer, strides, offsets []int)
	SetIndexBuffer(buffer Buffer, format IndexFormat, offset int)

	SetVertexShader(s Shader)
	SetVConstantBuffers(startSlot int, buffers []Buffer)
	SetVShaderResources(startSlot int, views []ShaderResource)
	SetVSamplerStates(startSlot int, samplers []SamplerState)

	SetPixelShader(s Shader)
	SetPConstantBuffers(startSlot int, buffers []Buffer)
	SetPShaderResources(startSlot int, views []ShaderResource)
	SetPSamplerStates(startSlot int, samplers []SamplerState)

	SetRasterizerState(s RasterizerState)
	SetViewports(viewports []Viewport)

	// SetRenderTargets binds color targets and an optional depth target.
	// No targets selects the default framebuffer.
	SetRenderTargets(targets []RenderTarget, depth DepthStencil)
	SetDepthStencilState(s DepthStencilState, stencilRef uint32)
	ClearRenderTarget(target RenderTarget, color [4]float32)
	ClearDepthStencil(depth DepthStencil, flags ClearFlags, z float32, stencil uint8)

	Draw(vertexCount, startVertex int)
	DrawIndexed(indexCount, startIndex, baseVertex int)

	Lock(res Resource) []byte
	Unlock(res Resource)
}

// WithLock maps res, hands the bytes to fn and always unmaps afterwards.
// It reports whether the mapping succeeded.
func WithLock(ctx Context, res Resource, fn func(data []byte)) bool {
	data := ctx.Lock(res)
	if data == nil {
		return false
	}
	defer ctx.Unlock(res)
	fn(data)
	return true
}
