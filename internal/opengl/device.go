// Package opengl implements gpu.Device and gpu.Context on OpenGL 4.1 core.
//
// All calls must happen on the thread that owns the current GL context.
// Shader bytecode is GLSL source; programs are linked lazily for each
// vertex/pixel pair that is drawn with.
package opengl

import (
	"bytes"
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-toolkit/gpu"
	"render-toolkit/logging"
)

// Backend creates devices on the GL context current on the calling thread.
// It satisfies graphics.Backend.
type Backend struct {
	initialized bool
}

func (b *Backend) CreateDevice() (gpu.Device, gpu.Context, error) {
	if !b.initialized {
		if err := gl.Init(); err != nil {
			return nil, nil, gpu.NewError("CreateDevice", gpu.CodeUnsupported, fmt.Errorf("failed to initialize OpenGL: %w", err))
		}
		b.initialized = true
		logging.For("opengl").Info("context ready",
			"version", gl.GoStr(gl.GetString(gl.VERSION)),
			"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	}
	dev := newDevice()
	return dev, dev.ctx, nil
}

// glObject is implemented by objects that own a GL name.
type glObject interface {
	deleteGL()
}

// Device is the GL gpu.Device.
type Device struct {
	ctx    *Context
	closed bool
	live   map[gpu.Object]struct{}
}

var _ gpu.Device = (*Device)(nil)

func newDevice() *Device {
	d := &Device{live: make(map[gpu.Object]struct{})}
	d.ctx = newContext(d)
	return d
}

// Live returns the number of objects that have not been fully released.
func (d *Device) Live() int { return len(d.live) }

// Close deletes the GL names of every object still alive together with the
// context's cached framebuffers and programs. Later releases are no-ops on
// the GL side.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.ctx.release()
	for obj := range d.live {
		if o, ok := obj.(glObject); ok {
			o.deleteGL()
		}
	}
	d.closed = true
}

func (d *Device) admit(op string) error {
	if d.closed {
		return gpu.NewError(op, gpu.CodeDeviceLost, nil)
	}
	clearErrors()
	return nil
}

func (d *Device) track(rc *gpu.RefCount, obj gpu.Object, onFree func()) {
	d.live[obj] = struct{}{}
	rc.InitRef(func() {
		delete(d.live, obj)
		if d.closed {
			return
		}
		if o, ok := obj.(glObject); ok {
			o.deleteGL()
		}
		if onFree != nil {
			onFree()
		}
	})
}

func clearErrors() {
	for range 16 {
		if gl.GetError() == gl.NO_ERROR {
			return
		}
	}
}

// checkError turns a pending GL error into a *gpu.Error.
func checkError(op string) error {
	e := gl.GetError()
	if e == gl.NO_ERROR {
		return nil
	}
	return gpu.NewError(op, codeOfGLError(e), fmt.Errorf("gl error 0x%X", e))
}

func (b *buffer) deleteGL() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

func (t *texture) deleteGL() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func (s *shader) deleteGL() {
	if s.id != 0 {
		gl.DeleteShader(s.id)
		s.id = 0
	}
}

func (s *samplerState) deleteGL() {
	if s.id != 0 {
		gl.DeleteSamplers(1, &s.id)
		s.id = 0
	}
}

func (d *Device) CreateBuffer(desc *gpu.BufferDesc, data *gpu.ResourceData) (gpu.Ptr[gpu.Buffer], error) {
	const op = "CreateBuffer"
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.Buffer]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.Buffer]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if err := desc.Validate(); err != nil {
		return gpu.Ptr[gpu.Buffer]{}, gpu.NewError(op, gpu.CodeOf(err), err)
	}
	var ptr unsafe.Pointer
	if data != nil {
		if len(data.Data) < desc.ByteWidth {
			err := fmt.Errorf("initial data %d bytes, need %d: %w", len(data.Data), desc.ByteWidth, gpu.ErrInvalidArg)
			return gpu.Ptr[gpu.Buffer]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
		}
		ptr = gl.Ptr(&data.Data[0])
	}

	b := &buffer{desc: *desc}
	usage := uint32(gl.STATIC_DRAW)
	if desc.Dynamic {
		usage = gl.DYNAMIC_DRAW
		b.shadow = make([]byte, desc.ByteWidth)
		if data != nil {
			copy(b.shadow, data.Data)
		}
	}

	// buffers are untyped in GL; the copy target avoids disturbing VAO state
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, desc.ByteWidth, ptr, usage)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	if err := checkError(op); err != nil {
		b.deleteGL()
		return gpu.Ptr[gpu.Buffer]{}, err
	}
	d.track(&b.RefCount, b, nil)
	return gpu.Own[gpu.Buffer](b), nil
}

func (d *Device) CreateTexture2D(desc *gpu.TextureDesc, data *gpu.ResourceData) (gpu.Ptr[gpu.Texture], error) {
	const op = "CreateTexture2D"
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.Texture]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if err := desc.Validate(); err != nil {
		return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeOf(err), err)
	}
	format, ok := textureFormat(desc.Format)
	if !ok {
		return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeUnsupported, nil)
	}

	t := &texture{desc: *desc, format: format}
	t.desc.MipLevels = 1
	rowPitch := desc.RowPitch()
	pitch := rowPitch
	var ptr unsafe.Pointer
	if data != nil {
		if data.Pitch != 0 {
			pitch = data.Pitch
		}
		if pitch < rowPitch || pitch%desc.Format.Size() != 0 || len(data.Data) < pitch*(desc.Height-1)+rowPitch {
			err := fmt.Errorf("initial data too small for %dx%d: %w", desc.Width, desc.Height, gpu.ErrInvalidArg)
			return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
		}
		ptr = gl.Ptr(&data.Data[0])
	}
	if desc.Dynamic {
		t.shadow = make([]byte, rowPitch*desc.Height)
		if data != nil {
			for y := 0; y < desc.Height; y++ {
				copy(t.shadow[y*rowPitch:(y+1)*rowPitch], data.Data[y*pitch:])
			}
		}
	}

	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(pitch/desc.Format.Size()))
	gl.TexImage2D(gl.TEXTURE_2D, 0, format.internal,
		int32(desc.Width), int32(desc.Height), 0, format.format, format.xtype, ptr)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError(op); err != nil {
		t.deleteGL()
		return gpu.Ptr[gpu.Texture]{}, err
	}
	d.track(&t.RefCount, t, nil)
	return gpu.Own[gpu.Texture](t), nil
}

func (d *Device) createShader(op string, stage gpu.ShaderStage, kind uint32, bytecode []byte) (gpu.Ptr[gpu.Shader], error) {
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.Shader]{}, err
	}
	if len(bytecode) == 0 {
		return gpu.Ptr[gpu.Shader]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	id, err := compileShader(bytecode, kind)
	if err != nil {
		return gpu.Ptr[gpu.Shader]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
	}
	s := &shader{id: id, stage: stage, bytecode: bytes.Clone(bytecode)}
	d.track(&s.RefCount, s, func() { d.ctx.forgetShader(s) })
	return gpu.Own[gpu.Shader](s), nil
}

func (d *Device) CreateVertexShader(bytecode []byte) (gpu.Ptr[gpu.Shader], error) {
	return d.createShader("CreateVertexShader", gpu.StageVertex, gl.VERTEX_SHADER, bytecode)
}

func (d *Device) CreatePixelShader(bytecode []byte) (gpu.Ptr[gpu.Shader], error) {
	return d.createShader("CreatePixelShader", gpu.StagePixel, gl.FRAGMENT_SHADER, bytecode)
}

// CreateInputLayout maps element i to attribute location i.
func (d *Device) CreateInputLayout(elements []gpu.InputElement, vsBytecode []byte) (gpu.Ptr[gpu.InputLayout], error) {
	const op = "CreateInputLayout"
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.InputLayout]{}, err
	}
	if len(elements) == 0 {
		return gpu.Ptr[gpu.InputLayout]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	formats := make([]attribFormat, len(elements))
	for i, e := range elements {
		f, ok := vertexFormat(e.Format)
		if e.Semantic == "" || !ok || e.Offset < 0 || e.Slot < 0 || e.Slot >= maxVertexSlots {
			err := fmt.Errorf("element %d (%s): %w", i, e.Semantic, gpu.ErrInvalidArg)
			return gpu.Ptr[gpu.InputLayout]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
		}
		formats[i] = f
	}
	if !d.hasVertexShader(vsBytecode) {
		err := fmt.Errorf("bytecode does not belong to a live vertex shader: %w", gpu.ErrInvalidArg)
		return gpu.Ptr[gpu.InputLayout]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
	}
	l := &inputLayout{elements: append([]gpu.InputElement(nil), elements...), formats: formats}
	d.track(&l.RefCount, l, nil)
	return gpu.Own[gpu.InputLayout](l), nil
}

func (d *Device) hasVertexShader(bytecode []byte) bool {
	if len(bytecode) == 0 {
		return false
	}
	for obj := range d.live {
		if s, ok := obj.(*shader); ok && s.stage == gpu.StageVertex && bytes.Equal(s.bytecode, bytecode) {
			return true
		}
	}
	return false
}

func (d *Device) CreateRasterizerState(desc *gpu.RasterizerDesc) (gpu.Ptr[gpu.RasterizerState], error) {
	const op = "CreateRasterizerState"
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.RasterizerState]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.RasterizerState]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &rasterizerState{desc: *desc}
	d.track(&s.RefCount, s, nil)
	return gpu.Own[gpu.RasterizerState](s), nil
}

// CreateSamplerState ignores MaxAnisotropy: the core 4.1 profile has no
// anisotropic filtering.
func (d *Device) CreateSamplerState(desc *gpu.SamplerDesc) (gpu.Ptr[gpu.SamplerState], error) {
	const op = "CreateSamplerState"
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.SamplerState]{}, err
	}
	if desc == nil || desc.MaxAnisotropy < 0 || desc.MaxAnisotropy > 16 {
		return gpu.Ptr[gpu.SamplerState]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &samplerState{desc: *desc}
	gl.GenSamplers(1, &s.id)
	filter := filterMode(desc.Filter)
	gl.SamplerParameteri(s.id, gl.TEXTURE_MIN_FILTER, filter)
	gl.SamplerParameteri(s.id, gl.TEXTURE_MAG_FILTER, filter)
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_S, addressMode(desc.AddressU))
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_T, addressMode(desc.AddressV))
	if err := checkError(op); err != nil {
		s.deleteGL()
		return gpu.Ptr[gpu.SamplerState]{}, err
	}
	d.track(&s.RefCount, s, nil)
	return gpu.Own[gpu.SamplerState](s), nil
}

func (d *Device) CreateDepthStencilState(desc *gpu.DepthStencilDesc) (gpu.Ptr[gpu.DepthStencilState], error) {
	const op = "CreateDepthStencilState"
	if err := d.admit(op); err != nil {
		return gpu.Ptr[gpu.DepthStencilState]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.DepthStencilState]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &depthStencilState{desc: *desc}
	d.track(&s.RefCount, s, nil)
	return gpu.Own[gpu.DepthStencilState](s), nil
}

func (d *Device) newView(op string, tex gpu.Texture, need gpu.BindFlags) (*view, error) {
	if err := d.admit(op); err != nil {
		return nil, err
	}
	t, ok := tex.(*texture)
	if !ok || t == nil {
		return nil, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if _, live := d.live[t]; !live {
		return nil, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if t.desc.ResType&need == 0 {
		err := fmt.Errorf("texture not created with bind flag %#x: %w", uint32(need), gpu.ErrInvalidArg)
		return nil, gpu.NewError(op, gpu.CodeInvalidArg, err)
	}
	t.AddRef()
	v := &view{tex: t}
	d.track(&v.RefCount, v, func() {
		d.ctx.forgetView(v)
		t.Release()
	})
	return v, nil
}

func (d *Device) CreateRenderTarget(tex gpu.Texture) (gpu.Ptr[gpu.RenderTarget], error) {
	v, err := d.newView("CreateRenderTarget", tex, gpu.BindRenderTarget)
	if err != nil {
		return gpu.Ptr[gpu.RenderTarget]{}, err
	}
	return gpu.Own[gpu.RenderTarget](v), nil
}

func (d *Device) CreateDepthStencil(tex gpu.Texture) (gpu.Ptr[gpu.DepthStencil], error) {
	v, err := d.newView("CreateDepthStencil", tex, gpu.BindDepthStencil)
	if err != nil {
		return gpu.Ptr[gpu.DepthStencil]{}, err
	}
	return gpu.Own[gpu.DepthStencil](v), nil
}

func (d *Device) CreateShaderResource(tex gpu.Texture) (gpu.Ptr[gpu.ShaderResource], error) {
	v, err := d.newView("CreateShaderResource", tex, gpu.BindShaderResource)
	if err != nil {
		return gpu.Ptr[gpu.ShaderResource]{}, err
	}
	return gpu.Own[gpu.ShaderResource](v), nil
}
