package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-toolkit/gpu"
	"render-toolkit/logging"
)

const (
	maxVertexSlots   = 16
	maxConstantSlots = 14
	maxResourceSlots = 16
)

type programKey struct{ vs, ps *shader }

type framebufferKey struct{ color, depth *view }

// Context is the GL gpu.Context. Pipeline state is recorded on Set calls
// and applied at draw time, where the program for the current shader pair
// is linked on first use and the vertex layout is rebuilt on one VAO.
type Context struct {
	dev *Device
	vao uint32

	topology uint32
	layout   *inputLayout
	vbs      [maxVertexSlots]*buffer
	strides  [maxVertexSlots]int
	offsets  [maxVertexSlots]int
	ib       *buffer
	ibFormat gpu.IndexFormat
	ibOffset int
	vs, ps   *shader

	programs     map[programKey]*program
	framebuffers map[framebufferKey]uint32
	current      uint32 // bound draw framebuffer
	targetHeight int
	depth        gpu.DepthStencilDesc
	attribs      int
}

var _ gpu.Context = (*Context)(nil)

func newContext(dev *Device) *Context {
	c := &Context{
		dev:          dev,
		topology:     gl.TRIANGLES,
		programs:     make(map[programKey]*program),
		framebuffers: make(map[framebufferKey]uint32),
		depth:        gpu.DepthStencilDesc{DepthWrite: true, StencilWriteMask: 0xFF},
	}
	gl.GenVertexArrays(1, &c.vao)
	return c
}

func (c *Context) release() {
	for k, p := range c.programs {
		p.delete()
		delete(c.programs, k)
	}
	for k, fbo := range c.framebuffers {
		gl.DeleteFramebuffers(1, &fbo)
		delete(c.framebuffers, k)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindVertexArray(0)
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
	c.layout, c.ib, c.vs, c.ps = nil, nil, nil, nil
	clear(c.vbs[:])
}

func (c *Context) forgetShader(s *shader) {
	for k, p := range c.programs {
		if k.vs == s || k.ps == s {
			p.delete()
			delete(c.programs, k)
		}
	}
	if c.vs == s {
		c.vs = nil
	}
	if c.ps == s {
		c.ps = nil
	}
}

func (c *Context) forgetView(v *view) {
	for k, fbo := range c.framebuffers {
		if k.color == v || k.depth == v {
			if fbo == c.current {
				gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
				c.current = 0
			}
			gl.DeleteFramebuffers(1, &fbo)
			delete(c.framebuffers, k)
		}
	}
}

func (c *Context) SetPrimitiveTopology(t gpu.Topology) { c.topology = primitiveMode(t) }

func (c *Context) SetInputLayout(layout gpu.InputLayout) {
	c.layout, _ = layout.(*inputLayout)
}

func (c *Context) SetVertexBuffers(startSlot int, buffers []gpu.Buffer, strides, offsets []int) {
	for i, b := range buffers {
		slot := startSlot + i
		if slot < 0 || slot >= maxVertexSlots {
			return
		}
		c.vbs[slot], _ = b.(*buffer)
		if i < len(strides) {
			c.strides[slot] = strides[i]
		}
		c.offsets[slot] = 0
		if i < len(offsets) {
			c.offsets[slot] = offsets[i]
		}
	}
}

func (c *Context) SetIndexBuffer(b gpu.Buffer, format gpu.IndexFormat, offset int) {
	c.ib, _ = b.(*buffer)
	c.ibFormat = format
	c.ibOffset = offset
}

func (c *Context) SetVertexShader(s gpu.Shader) { c.vs, _ = s.(*shader) }
func (c *Context) SetPixelShader(s gpu.Shader)  { c.ps, _ = s.(*shader) }

// Both stages share one table of uniform block binding points.
func (c *Context) SetVConstantBuffers(startSlot int, buffers []gpu.Buffer) {
	c.bindConstantBuffers(startSlot, buffers)
}

func (c *Context) SetPConstantBuffers(startSlot int, buffers []gpu.Buffer) {
	c.bindConstantBuffers(startSlot, buffers)
}

func (c *Context) bindConstantBuffers(startSlot int, buffers []gpu.Buffer) {
	for i, b := range buffers {
		slot := startSlot + i
		if slot < 0 || slot >= maxConstantSlots {
			return
		}
		id := uint32(0)
		if gb, ok := b.(*buffer); ok && gb != nil {
			id = gb.id
		}
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(slot), id)
	}
}

func (c *Context) SetVShaderResources(startSlot int, views []gpu.ShaderResource) {
	c.bindTextures(startSlot, views)
}

func (c *Context) SetPShaderResources(startSlot int, views []gpu.ShaderResource) {
	c.bindTextures(startSlot, views)
}

func (c *Context) bindTextures(startSlot int, views []gpu.ShaderResource) {
	for i, sr := range views {
		slot := startSlot + i
		if slot < 0 || slot >= maxResourceSlots {
			return
		}
		id := uint32(0)
		if v, ok := sr.(*view); ok && v != nil {
			id = v.tex.id
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
		gl.BindTexture(gl.TEXTURE_2D, id)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

func (c *Context) SetVSamplerStates(startSlot int, samplers []gpu.SamplerState) {
	c.bindSamplers(startSlot, samplers)
}

func (c *Context) SetPSamplerStates(startSlot int, samplers []gpu.SamplerState) {
	c.bindSamplers(startSlot, samplers)
}

func (c *Context) bindSamplers(startSlot int, samplers []gpu.SamplerState) {
	for i, s := range samplers {
		slot := startSlot + i
		if slot < 0 || slot >= maxResourceSlots {
			return
		}
		id := uint32(0)
		if ss, ok := s.(*samplerState); ok && ss != nil {
			id = ss.id
		}
		gl.BindSampler(uint32(slot), id)
	}
}

func (c *Context) SetRasterizerState(s gpu.RasterizerState) {
	desc := gpu.RasterizerDesc{Cull: gpu.CullBack, DepthClip: true}
	if rs, ok := s.(*rasterizerState); ok && rs != nil {
		desc = rs.desc
	}
	if desc.Fill == gpu.FillWireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	switch desc.Cull {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	gl.FrontFace(frontFace(desc.FrontCCW))
	setEnabled(gl.DEPTH_CLAMP, !desc.DepthClip)
	setEnabled(gl.SCISSOR_TEST, desc.Scissor)
}

func (c *Context) SetViewports(viewports []gpu.Viewport) {
	if len(viewports) == 0 {
		return
	}
	vp := viewports[0]
	y := flipViewport(vp.Y, vp.Height, float32(c.targetHeight))
	gl.Viewport(int32(vp.X), int32(y), int32(vp.Width), int32(vp.Height))
	gl.DepthRangef(vp.MinDepth, vp.MaxDepth)
}

// SetRenderTargets binds the framebuffer for the first color target and
// the depth target, creating and caching it on first use.
func (c *Context) SetRenderTargets(targets []gpu.RenderTarget, depth gpu.DepthStencil) {
	var color, ds *view
	if len(targets) > 0 {
		color, _ = targets[0].(*view)
	}
	if depth != nil {
		ds, _ = depth.(*view)
	}
	c.bindFramebuffer(color, ds)
	switch {
	case color != nil:
		c.targetHeight = color.tex.desc.Height
	case ds != nil:
		c.targetHeight = ds.tex.desc.Height
	default:
		c.targetHeight = 0
	}
}

func (c *Context) bindFramebuffer(color, depth *view) {
	fbo := c.framebuffer(color, depth)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	c.current = fbo
}

func (c *Context) framebuffer(color, depth *view) uint32 {
	if color == nil && depth == nil {
		return 0
	}
	key := framebufferKey{color, depth}
	if fbo, ok := c.framebuffers[key]; ok {
		return fbo
	}
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	if color != nil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color.tex.id, 0)
		gl.DrawBuffer(gl.COLOR_ATTACHMENT0)
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}
	if depth != nil {
		attachment := uint32(gl.DEPTH_ATTACHMENT)
		if depth.tex.desc.Format == gpu.FormatD24UnormS8Uint {
			attachment = gl.DEPTH_STENCIL_ATTACHMENT
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, depth.tex.id, 0)
	}
	if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
		logging.For("opengl").Warn("framebuffer incomplete", "status", s)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.current)
	c.framebuffers[key] = fbo
	return fbo
}

func (c *Context) SetDepthStencilState(s gpu.DepthStencilState, stencilRef uint32) {
	desc := gpu.DepthStencilDesc{DepthEnable: true, DepthWrite: true, DepthFunc: gpu.CompareLess}
	if ds, ok := s.(*depthStencilState); ok && ds != nil {
		desc = ds.desc
	}
	c.depth = desc
	setEnabled(gl.DEPTH_TEST, desc.DepthEnable)
	gl.DepthMask(desc.DepthWrite)
	gl.DepthFunc(compareFunc(desc.DepthFunc))
	setEnabled(gl.STENCIL_TEST, desc.StencilEnable)
	gl.StencilFunc(gl.ALWAYS, int32(stencilRef), uint32(desc.StencilReadMask))
	gl.StencilMask(uint32(desc.StencilWriteMask))
}

// Clears honour write masks and the scissor test in GL, so both are lifted
// for the duration of a clear.
func (c *Context) ClearRenderTarget(target gpu.RenderTarget, color [4]float32) {
	v, ok := target.(*view)
	if !ok || v == nil {
		return
	}
	c.withClearState(v, nil, func() {
		gl.ClearBufferfv(gl.COLOR, 0, &color[0])
	})
}

func (c *Context) ClearDepthStencil(depth gpu.DepthStencil, flags gpu.ClearFlags, z float32, stencil uint8) {
	v, ok := depth.(*view)
	if !ok || v == nil {
		return
	}
	c.withClearState(nil, v, func() {
		switch {
		case flags&gpu.ClearDepth != 0 && flags&gpu.ClearStencil != 0:
			gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, z, int32(stencil))
		case flags&gpu.ClearDepth != 0:
			gl.ClearBufferfv(gl.DEPTH, 0, &z)
		case flags&gpu.ClearStencil != 0:
			s := int32(stencil)
			gl.ClearBufferiv(gl.STENCIL, 0, &s)
		}
	})
}

func (c *Context) withClearState(color, depth *view, fn func()) {
	prev := c.current
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.framebuffer(color, depth))
	gl.Disable(gl.SCISSOR_TEST)
	gl.DepthMask(true)
	gl.StencilMask(0xFF)
	fn()
	gl.DepthMask(c.depth.DepthWrite)
	gl.StencilMask(uint32(c.depth.StencilWriteMask))
	gl.BindFramebuffer(gl.FRAMEBUFFER, prev)
}

func (c *Context) Draw(vertexCount, startVertex int) {
	if vertexCount <= 0 || !c.prepare() {
		return
	}
	gl.DrawArrays(c.topology, int32(startVertex), int32(vertexCount))
}

func (c *Context) DrawIndexed(indexCount, startIndex, baseVertex int) {
	if indexCount <= 0 || c.ib == nil || !c.prepare() {
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.ib.id)
	offset := c.ibOffset + startIndex*c.ibFormat.Size()
	gl.DrawElementsBaseVertex(c.topology, int32(indexCount), indexType(c.ibFormat), gl.PtrOffset(offset), int32(baseVertex))
}

// prepare makes the current program and vertex layout active. It reports
// false when the pipeline is incomplete or the program fails to link.
func (c *Context) prepare() bool {
	if c.vs == nil || c.ps == nil || c.layout == nil || c.vs.id == 0 || c.ps.id == 0 {
		return false
	}
	key := programKey{c.vs, c.ps}
	p, ok := c.programs[key]
	if !ok {
		var err error
		p, err = linkProgram(c.vs, c.ps)
		if err != nil {
			logging.For("opengl").Error("link program", "err", err)
			return false
		}
		c.programs[key] = p
	}
	gl.UseProgram(p.id)

	gl.BindVertexArray(c.vao)
	for i, e := range c.layout.elements {
		b := c.vbs[e.Slot]
		if b == nil {
			return false
		}
		f := c.layout.formats[i]
		loc := uint32(i)
		offset := gl.PtrOffset(c.offsets[e.Slot] + e.Offset)
		gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
		gl.EnableVertexAttribArray(loc)
		if f.integer {
			gl.VertexAttribIPointer(loc, f.size, f.xtype, int32(c.strides[e.Slot]), offset)
		} else {
			gl.VertexAttribPointer(loc, f.size, f.xtype, f.normalized, int32(c.strides[e.Slot]), offset)
		}
	}
	for i := len(c.layout.elements); i < c.attribs; i++ {
		gl.DisableVertexAttribArray(uint32(i))
	}
	c.attribs = len(c.layout.elements)
	return true
}

func (c *Context) Lock(res gpu.Resource) []byte {
	if c.dev.closed {
		return nil
	}
	switch r := res.(type) {
	case *buffer:
		if r.shadow == nil || r.locked || r.id == 0 {
			return nil
		}
		r.locked = true
		return r.shadow
	case *texture:
		if r.shadow == nil || r.locked || r.id == 0 {
			return nil
		}
		r.locked = true
		return r.shadow
	}
	return nil
}

// Unlock uploads the whole shadow copy.
func (c *Context) Unlock(res gpu.Resource) {
	switch r := res.(type) {
	case *buffer:
		if !r.locked {
			return
		}
		r.locked = false
		if c.dev.closed {
			return
		}
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, r.id)
		gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, len(r.shadow), gl.Ptr(&r.shadow[0]))
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	case *texture:
		if !r.locked {
			return
		}
		r.locked = false
		if c.dev.closed {
			return
		}
		gl.BindTexture(gl.TEXTURE_2D, r.id)
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(r.desc.Width), int32(r.desc.Height),
			r.format.format, r.format.xtype, gl.Ptr(&r.shadow[0]))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
}

// Present copies a render target into the default framebuffer, scaling it
// to width×height.
func (c *Context) Present(target gpu.RenderTarget, width, height int) {
	v, ok := target.(*view)
	if !ok || v == nil || c.dev.closed {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, c.framebuffer(v, nil))
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.BlitFramebuffer(0, 0, int32(v.tex.desc.Width), int32(v.tex.desc.Height),
		0, 0, int32(width), int32(height), gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.current)
}

func setEnabled(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}
