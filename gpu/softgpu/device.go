// Package softgpu is an in-memory gpu.Device/gpu.Context implementation.
//
// It keeps resource contents in byte slices, enforces the lock/unlock and
// input-layout rules of the gpu contracts, records every draw, and can be
// told to lose the device or to fail upcoming creations. Tests and the
// headless demo run on it.
package softgpu

import (
	"bytes"
	"fmt"

	"render-toolkit/gpu"
)

// Device is the software gpu.Device.
type Device struct {
	ctx    *Context
	lost   bool
	closed bool
	live   map[gpu.Object]Kind
	fail   [kindCount]int
}

var _ gpu.Device = (*Device)(nil)

// New creates a device and its immediate context.
func New() (*Device, *Context) {
	d := &Device{live: make(map[gpu.Object]Kind)}
	d.ctx = newContext(d)
	return d, d.ctx
}

// Context returns the immediate context of the device.
func (d *Device) Context() *Context { return d.ctx }

// Lose simulates a device removal: every later creation fails with
// gpu.ErrDeviceLost and every Lock returns nil. Existing objects stay
// tracked until their holders release them.
func (d *Device) Lose() { d.lost = true }

// Lost reports whether Lose or Close was called.
func (d *Device) Lost() bool { return d.lost || d.closed }

// Live returns the number of objects that have not been fully released.
func (d *Device) Live() int { return len(d.live) }

// LiveOf counts live objects of one kind.
func (d *Device) LiveOf(kind Kind) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// FailNext makes the next n creations of kind fail with
// gpu.ErrOutOfMemory.
func (d *Device) FailNext(kind Kind, n int) { d.fail[kind] = n }

// Close tears the device down; it behaves as lost afterwards.
func (d *Device) Close() { d.closed = true }

func (d *Device) isLive(obj gpu.Object) bool {
	_, ok := d.live[obj]
	return ok
}

// admit checks the device state and failure injection before a creation.
func (d *Device) admit(op string, kind Kind) error {
	if d.lost || d.closed {
		return gpu.NewError(op, gpu.CodeDeviceLost, nil)
	}
	if d.fail[kind] > 0 {
		d.fail[kind]--
		return gpu.NewError(op, gpu.CodeOutOfMemory, nil)
	}
	return nil
}

// track registers obj as live and arranges for it to be dropped when its
// last reference goes away.
func (d *Device) track(rc *gpu.RefCount, obj gpu.Object, kind Kind, onFree func()) {
	d.live[obj] = kind
	rc.InitRef(func() {
		delete(d.live, obj)
		if onFree != nil {
			onFree()
		}
	})
}

func (d *Device) CreateBuffer(desc *gpu.BufferDesc, data *gpu.ResourceData) (gpu.Ptr[gpu.Buffer], error) {
	const op = "CreateBuffer"
	if err := d.admit(op, KindBuffer); err != nil {
		return gpu.Ptr[gpu.Buffer]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.Buffer]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if err := desc.Validate(); err != nil {
		return gpu.Ptr[gpu.Buffer]{}, gpu.NewError(op, gpu.CodeOf(err), err)
	}

	b := &buffer{dev: d, desc: *desc, data: make([]byte, desc.ByteWidth)}
	if data != nil {
		if len(data.Data) < desc.ByteWidth {
			err := fmt.Errorf("initial data %d bytes, need %d: %w", len(data.Data), desc.ByteWidth, gpu.ErrInvalidArg)
			return gpu.Ptr[gpu.Buffer]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
		}
		copy(b.data, data.Data)
	}
	d.track(&b.RefCount, b, KindBuffer, nil)
	return gpu.Own[gpu.Buffer](b), nil
}

func (d *Device) CreateTexture2D(desc *gpu.TextureDesc, data *gpu.ResourceData) (gpu.Ptr[gpu.Texture], error) {
	const op = "CreateTexture2D"
	if err := d.admit(op, KindTexture); err != nil {
		return gpu.Ptr[gpu.Texture]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if err := desc.Validate(); err != nil {
		return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeOf(err), err)
	}

	t := &texture{dev: d, desc: *desc}
	if t.desc.MipLevels == 0 {
		t.desc.MipLevels = 1
	}
	rowPitch := desc.RowPitch()
	t.data = make([]byte, rowPitch*desc.Height)
	if data != nil {
		pitch := data.Pitch
		if pitch == 0 {
			pitch = rowPitch
		}
		if pitch < rowPitch || len(data.Data) < pitch*(desc.Height-1)+rowPitch {
			err := fmt.Errorf("initial data too small for %dx%d: %w", desc.Width, desc.Height, gpu.ErrInvalidArg)
			return gpu.Ptr[gpu.Texture]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
		}
		for y := 0; y < desc.Height; y++ {
			copy(t.data[y*rowPitch:(y+1)*rowPitch], data.Data[y*pitch:])
		}
	}
	d.track(&t.RefCount, t, KindTexture, nil)
	return gpu.Own[gpu.Texture](t), nil
}

func (d *Device) createShader(op string, kind Kind, stage gpu.ShaderStage, bytecode []byte) (gpu.Ptr[gpu.Shader], error) {
	if err := d.admit(op, kind); err != nil {
		return gpu.Ptr[gpu.Shader]{}, err
	}
	if len(bytecode) == 0 {
		return gpu.Ptr[gpu.Shader]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &shader{stage: stage, bytecode: bytes.Clone(bytecode)}
	d.track(&s.RefCount, s, kind, nil)
	return gpu.Own[gpu.Shader](s), nil
}

func (d *Device) CreateVertexShader(bytecode []byte) (gpu.Ptr[gpu.Shader], error) {
	return d.createShader("CreateVertexShader", KindVertexShader, gpu.StageVertex, bytecode)
}

func (d *Device) CreatePixelShader(bytecode []byte) (gpu.Ptr[gpu.Shader], error) {
	return d.createShader("CreatePixelShader", KindPixelShader, gpu.StagePixel, bytecode)
}

func (d *Device) CreateInputLayout(elements []gpu.InputElement, vsBytecode []byte) (gpu.Ptr[gpu.InputLayout], error) {
	const op = "CreateInputLayout"
	if err := d.admit(op, KindInputLayout); err != nil {
		return gpu.Ptr[gpu.InputLayout]{}, err
	}
	if len(elements) == 0 {
		return gpu.Ptr[gpu.InputLayout]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	for i, e := range elements {
		if e.Semantic == "" || e.Format.Components() == 0 || e.Offset < 0 || e.Slot < 0 {
			err := fmt.Errorf("element %d (%s): %w", i, e.Semantic, gpu.ErrInvalidArg)
			return gpu.Ptr[gpu.InputLayout]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
		}
	}
	if !d.hasVertexShader(vsBytecode) {
		err := fmt.Errorf("bytecode does not belong to a live vertex shader: %w", gpu.ErrInvalidArg)
		return gpu.Ptr[gpu.InputLayout]{}, gpu.NewError(op, gpu.CodeInvalidArg, err)
	}

	l := &inputLayout{elements: append([]gpu.InputElement(nil), elements...)}
	d.track(&l.RefCount, l, KindInputLayout, nil)
	return gpu.Own[gpu.InputLayout](l), nil
}

func (d *Device) hasVertexShader(bytecode []byte) bool {
	if len(bytecode) == 0 {
		return false
	}
	for obj, kind := range d.live {
		if kind != KindVertexShader {
			continue
		}
		if bytes.Equal(obj.(*shader).bytecode, bytecode) {
			return true
		}
	}
	return false
}

func (d *Device) CreateRasterizerState(desc *gpu.RasterizerDesc) (gpu.Ptr[gpu.RasterizerState], error) {
	const op = "CreateRasterizerState"
	if err := d.admit(op, KindRasterizerState); err != nil {
		return gpu.Ptr[gpu.RasterizerState]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.RasterizerState]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &rasterizerState{desc: *desc}
	d.track(&s.RefCount, s, KindRasterizerState, nil)
	return gpu.Own[gpu.RasterizerState](s), nil
}

func (d *Device) CreateSamplerState(desc *gpu.SamplerDesc) (gpu.Ptr[gpu.SamplerState], error) {
	const op = "CreateSamplerState"
	if err := d.admit(op, KindSamplerState); err != nil {
		return gpu.Ptr[gpu.SamplerState]{}, err
	}
	if desc == nil || desc.MaxAnisotropy < 0 || desc.MaxAnisotropy > 16 {
		return gpu.Ptr[gpu.SamplerState]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &samplerState{desc: *desc}
	d.track(&s.RefCount, s, KindSamplerState, nil)
	return gpu.Own[gpu.SamplerState](s), nil
}

func (d *Device) CreateDepthStencilState(desc *gpu.DepthStencilDesc) (gpu.Ptr[gpu.DepthStencilState], error) {
	const op = "CreateDepthStencilState"
	if err := d.admit(op, KindDepthStencilState); err != nil {
		return gpu.Ptr[gpu.DepthStencilState]{}, err
	}
	if desc == nil {
		return gpu.Ptr[gpu.DepthStencilState]{}, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	s := &depthStencilState{desc: *desc}
	d.track(&s.RefCount, s, KindDepthStencilState, nil)
	return gpu.Own[gpu.DepthStencilState](s), nil
}

// newView validates tex for the requested binding and takes a reference on
// it for the lifetime of the view.
func (d *Device) newView(op string, kind Kind, tex gpu.Texture, need gpu.BindFlags) (*view, error) {
	if err := d.admit(op, kind); err != nil {
		return nil, err
	}
	st, ok := tex.(*texture)
	if !ok || st == nil || st.dev != d || !d.isLive(st) {
		return nil, gpu.NewError(op, gpu.CodeInvalidArg, nil)
	}
	if st.desc.ResType&need == 0 {
		err := fmt.Errorf("texture not created with bind flag %#x: %w", uint32(need), gpu.ErrInvalidArg)
		return nil, gpu.NewError(op, gpu.CodeInvalidArg, err)
	}
	tex.AddRef()
	v := &view{tex: tex}
	d.track(&v.RefCount, v, kind, func() { tex.Release() })
	return v, nil
}

func (d *Device) CreateRenderTarget(tex gpu.Texture) (gpu.Ptr[gpu.RenderTarget], error) {
	v, err := d.newView("CreateRenderTarget", KindRenderTarget, tex, gpu.BindRenderTarget)
	if err != nil {
		return gpu.Ptr[gpu.RenderTarget]{}, err
	}
	return gpu.Own[gpu.RenderTarget](v), nil
}

func (d *Device) CreateDepthStencil(tex gpu.Texture) (gpu.Ptr[gpu.DepthStencil], error) {
	v, err := d.newView("CreateDepthStencil", KindDepthStencil, tex, gpu.BindDepthStencil)
	if err != nil {
		return gpu.Ptr[gpu.DepthStencil]{}, err
	}
	return gpu.Own[gpu.DepthStencil](v), nil
}

func (d *Device) CreateShaderResource(tex gpu.Texture) (gpu.Ptr[gpu.ShaderResource], error) {
	v, err := d.newView("CreateShaderResource", KindShaderResource, tex, gpu.BindShaderResource)
	if err != nil {
		return gpu.Ptr[gpu.ShaderResource]{}, err
	}
	return gpu.Own[gpu.ShaderResource](v), nil
}
