package softgpu

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"render-toolkit/gpu"
)

const (
	maxVertexSlots   = 16
	maxConstantSlots = 14
	maxResourceSlots = 16
	maxSamplerSlots  = 16
)

// DrawCall is one recorded draw with the state it was issued with.
type DrawCall struct {
	Topology   gpu.Topology
	Indexed    bool
	Count      int
	Start      int
	BaseVertex int

	Layout       gpu.InputLayout
	VertexShader gpu.Shader
	PixelShader  gpu.Shader
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	Rasterizer   gpu.RasterizerState

	// VSConstants is a copy of the constant buffer bound to vertex slot 0
	// at draw time, or nil.
	VSConstants []byte
}

// Stats counts non-draw commands.
type Stats struct {
	ColorClears int
	DepthClears int
	Locks       int
}

// Context is the software gpu.Context. Contract violations are never
// fatal: the offending command is dropped and the violation recorded.
type Context struct {
	dev *Device

	topology   gpu.Topology
	layout     gpu.InputLayout
	vbs        [maxVertexSlots]gpu.Buffer
	strides    [maxVertexSlots]int
	offsets    [maxVertexSlots]int
	ib         gpu.Buffer
	ibFormat   gpu.IndexFormat
	ibOffset   int
	vs, ps     gpu.Shader
	vcbs, pcbs [maxConstantSlots]gpu.Buffer
	vsrv, psrv [maxResourceSlots]gpu.ShaderResource
	vsmp, psmp [maxSamplerSlots]gpu.SamplerState
	rs         gpu.RasterizerState
	viewports  []gpu.Viewport
	targets    []gpu.RenderTarget
	depth      gpu.DepthStencil
	dss        gpu.DepthStencilState
	stencilRef uint32

	calls      []DrawCall
	stats      Stats
	violations []error
}

var _ gpu.Context = (*Context)(nil)

func newContext(d *Device) *Context {
	return &Context{dev: d}
}

// Calls returns the draws recorded since the last ResetRecording.
func (c *Context) Calls() []DrawCall { return c.calls }

func (c *Context) Stats() Stats { return c.stats }

// Violations returns contract violations recorded since the last
// ResetRecording.
func (c *Context) Violations() []error { return c.violations }

// ResetRecording clears calls, stats and violations but keeps bound state.
func (c *Context) ResetRecording() {
	c.calls = nil
	c.stats = Stats{}
	c.violations = nil
}

// Viewports returns the currently bound viewports.
func (c *Context) Viewports() []gpu.Viewport { return c.viewports }

// RenderTargets returns the bound color targets and depth target.
func (c *Context) RenderTargets() ([]gpu.RenderTarget, gpu.DepthStencil) {
	return c.targets, c.depth
}

func (c *Context) violate(format string, args ...any) {
	c.violations = append(c.violations, fmt.Errorf(format, args...))
}

func (c *Context) SetPrimitiveTopology(t gpu.Topology) { c.topology = t }

func (c *Context) SetInputLayout(layout gpu.InputLayout) { c.layout = layout }

func (c *Context) SetVertexBuffers(startSlot int, buffers []gpu.Buffer, strides, offsets []int) {
	if startSlot < 0 || startSlot+len(buffers) > maxVertexSlots ||
		len(strides) < len(buffers) || len(offsets) < len(buffers) {
		c.violate("SetVertexBuffers: bad slot range %d+%d", startSlot, len(buffers))
		return
	}
	for i, b := range buffers {
		c.vbs[startSlot+i] = b
		c.strides[startSlot+i] = strides[i]
		c.offsets[startSlot+i] = offsets[i]
	}
}

func (c *Context) SetIndexBuffer(buffer gpu.Buffer, format gpu.IndexFormat, offset int) {
	c.ib = buffer
	c.ibFormat = format
	c.ibOffset = offset
}

func (c *Context) SetVertexShader(s gpu.Shader) { c.vs = s }
func (c *Context) SetPixelShader(s gpu.Shader)  { c.ps = s }

func (c *Context) SetVConstantBuffers(startSlot int, buffers []gpu.Buffer) {
	c.setConstants("SetVConstantBuffers", c.vcbs[:], startSlot, buffers)
}

func (c *Context) SetPConstantBuffers(startSlot int, buffers []gpu.Buffer) {
	c.setConstants("SetPConstantBuffers", c.pcbs[:], startSlot, buffers)
}

func (c *Context) setConstants(op string, slots []gpu.Buffer, startSlot int, buffers []gpu.Buffer) {
	if startSlot < 0 || startSlot+len(buffers) > len(slots) {
		c.violate("%s: bad slot range %d+%d", op, startSlot, len(buffers))
		return
	}
	copy(slots[startSlot:], buffers)
}

func (c *Context) SetVShaderResources(startSlot int, views []gpu.ShaderResource) {
	setSlots(c, "SetVShaderResources", c.vsrv[:], startSlot, views)
}

func (c *Context) SetPShaderResources(startSlot int, views []gpu.ShaderResource) {
	setSlots(c, "SetPShaderResources", c.psrv[:], startSlot, views)
}

func (c *Context) SetVSamplerStates(startSlot int, samplers []gpu.SamplerState) {
	setSlots(c, "SetVSamplerStates", c.vsmp[:], startSlot, samplers)
}

func (c *Context) SetPSamplerStates(startSlot int, samplers []gpu.SamplerState) {
	setSlots(c, "SetPSamplerStates", c.psmp[:], startSlot, samplers)
}

func setSlots[T any](c *Context, op string, slots []T, startSlot int, values []T) {
	if startSlot < 0 || startSlot+len(values) > len(slots) {
		c.violate("%s: bad slot range %d+%d", op, startSlot, len(values))
		return
	}
	copy(slots[startSlot:], values)
}

func (c *Context) SetRasterizerState(s gpu.RasterizerState) { c.rs = s }

func (c *Context) SetViewports(viewports []gpu.Viewport) {
	c.viewports = append(c.viewports[:0], viewports...)
}

func (c *Context) SetRenderTargets(targets []gpu.RenderTarget, depth gpu.DepthStencil) {
	c.targets = append(c.targets[:0], targets...)
	c.depth = depth
}

func (c *Context) SetDepthStencilState(s gpu.DepthStencilState, stencilRef uint32) {
	c.dss = s
	c.stencilRef = stencilRef
}

func (c *Context) ClearRenderTarget(target gpu.RenderTarget, color [4]float32) {
	v, ok := target.(*view)
	if !ok || v == nil || c.dev.live[v] != KindRenderTarget {
		c.violate("ClearRenderTarget: not a live render target")
		return
	}
	tex := v.tex.(*texture)
	px := make([]byte, tex.desc.Format.Size())
	if tex.desc.Format == gpu.FormatR8G8B8A8Unorm || tex.desc.Format == gpu.FormatB8G8R8A8Unorm {
		for i := range px {
			px[i] = unorm8(color[i])
		}
		if tex.desc.Format == gpu.FormatB8G8R8A8Unorm {
			px[0], px[2] = px[2], px[0]
		}
	}
	for off := 0; off+len(px) <= len(tex.data); off += len(px) {
		copy(tex.data[off:], px)
	}
	c.stats.ColorClears++
}

func unorm8(f float32) byte {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return byte(f*255 + 0.5)
}

func (c *Context) ClearDepthStencil(depth gpu.DepthStencil, flags gpu.ClearFlags, z float32, stencil uint8) {
	v, ok := depth.(*view)
	if !ok || v == nil || c.dev.live[v] != KindDepthStencil {
		c.violate("ClearDepthStencil: not a live depth target")
		return
	}
	if flags&(gpu.ClearDepth|gpu.ClearStencil) == 0 {
		c.violate("ClearDepthStencil: no clear flags")
		return
	}
	c.stats.DepthClears++
}

func (c *Context) Draw(vertexCount, startVertex int) {
	call, ok := c.checkPipeline("Draw")
	if !ok {
		return
	}
	vb := c.vbs[0].(*buffer)
	if vertexCount <= 0 || startVertex < 0 || startVertex+vertexCount > c.vertexCapacity(vb) {
		c.violate("Draw: vertices [%d,%d) outside buffer of %d", startVertex, startVertex+vertexCount, c.vertexCapacity(vb))
		return
	}
	call.Count = vertexCount
	call.Start = startVertex
	c.calls = append(c.calls, call)
}

func (c *Context) DrawIndexed(indexCount, startIndex, baseVertex int) {
	call, ok := c.checkPipeline("DrawIndexed")
	if !ok {
		return
	}
	ib, ok := c.ib.(*buffer)
	if !ok || ib == nil || !c.dev.isLive(ib) {
		c.violate("DrawIndexed: no live index buffer")
		return
	}
	if ib.locked {
		c.violate("DrawIndexed: index buffer is locked")
		return
	}
	size := c.ibFormat.Size()
	first := c.ibOffset + startIndex*size
	if indexCount <= 0 || startIndex < 0 || first+indexCount*size > len(ib.data) {
		c.violate("DrawIndexed: %d indices from %d exceed index buffer", indexCount, startIndex)
		return
	}
	vb := c.vbs[0].(*buffer)
	limit := c.vertexCapacity(vb)
	for i := 0; i < indexCount; i++ {
		off := first + i*size
		var idx int
		if size == 2 {
			idx = int(binary.LittleEndian.Uint16(ib.data[off:]))
		} else {
			idx = int(binary.LittleEndian.Uint32(ib.data[off:]))
		}
		if idx+baseVertex < 0 || idx+baseVertex >= limit {
			c.violate("DrawIndexed: index %d (+%d) outside %d vertices", idx, baseVertex, limit)
			return
		}
	}
	call.Indexed = true
	call.Count = indexCount
	call.Start = startIndex
	call.BaseVertex = baseVertex
	call.IndexBuffer = ib
	c.calls = append(c.calls, call)
}

func (c *Context) vertexCapacity(vb *buffer) int {
	stride := c.strides[0]
	if stride <= 0 {
		return 0
	}
	return (len(vb.data) - c.offsets[0]) / stride
}

// checkPipeline validates the state shared by Draw and DrawIndexed.
func (c *Context) checkPipeline(op string) (DrawCall, bool) {
	if c.dev.Lost() {
		return DrawCall{}, false
	}
	if c.layout == nil || !c.dev.isLive(c.layout) {
		c.violate("%s: no live input layout", op)
		return DrawCall{}, false
	}
	if c.vs == nil || !c.dev.isLive(c.vs) || c.vs.Stage() != gpu.StageVertex {
		c.violate("%s: no live vertex shader", op)
		return DrawCall{}, false
	}
	if c.ps == nil || !c.dev.isLive(c.ps) || c.ps.Stage() != gpu.StagePixel {
		c.violate("%s: no live pixel shader", op)
		return DrawCall{}, false
	}
	vb, ok := c.vbs[0].(*buffer)
	if !ok || vb == nil || !c.dev.isLive(vb) {
		c.violate("%s: no live vertex buffer in slot 0", op)
		return DrawCall{}, false
	}
	if vb.locked {
		c.violate("%s: vertex buffer is locked", op)
		return DrawCall{}, false
	}
	for i, b := range append(c.vcbs[:], c.pcbs[:]...) {
		cb, ok := b.(*buffer)
		if !ok || cb == nil {
			continue
		}
		if !c.dev.isLive(cb) || cb.locked {
			c.violate("%s: constant buffer %d is released or locked", op, i%maxConstantSlots)
			return DrawCall{}, false
		}
	}

	call := DrawCall{
		Topology:     c.topology,
		Layout:       c.layout,
		VertexShader: c.vs,
		PixelShader:  c.ps,
		VertexBuffer: vb,
		Rasterizer:   c.rs,
	}
	if cb, ok := c.vcbs[0].(*buffer); ok && cb != nil {
		call.VSConstants = bytes.Clone(cb.data)
	}
	return call, true
}

func (c *Context) Lock(res gpu.Resource) []byte {
	if c.dev.Lost() {
		return nil
	}
	switch r := res.(type) {
	case *buffer:
		if r == nil || r.dev != c.dev || !c.dev.isLive(r) || !r.desc.Dynamic || r.locked {
			c.violate("Lock: buffer not lockable")
			return nil
		}
		r.locked = true
		c.stats.Locks++
		return r.data
	case *texture:
		if r == nil || r.dev != c.dev || !c.dev.isLive(r) || !r.desc.Dynamic || r.locked {
			c.violate("Lock: texture not lockable")
			return nil
		}
		r.locked = true
		c.stats.Locks++
		return r.data
	}
	c.violate("Lock: unknown resource %T", res)
	return nil
}

func (c *Context) Unlock(res gpu.Resource) {
	switch r := res.(type) {
	case *buffer:
		if r != nil && r.locked {
			r.locked = false
			return
		}
	case *texture:
		if r != nil && r.locked {
			r.locked = false
			return
		}
	}
	c.violate("Unlock: resource was not locked")
}

// BufferData returns the current contents of a buffer created by this
// package, or nil.
func BufferData(b gpu.Buffer) []byte {
	if sb, ok := b.(*buffer); ok && sb != nil {
		return sb.data
	}
	return nil
}

// TextureData returns the current contents of a texture created by this
// package, or nil.
func TextureData(t gpu.Texture) []byte {
	if st, ok := t.(*texture); ok && st != nil {
		return st.data
	}
	return nil
}
