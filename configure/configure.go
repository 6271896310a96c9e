// Package configure bundles the shaders, input layout and transform
// constant buffer of each draw style.
package configure

import (
	"errors"
	"fmt"

	"render-toolkit/drawing"
	"render-toolkit/gpu"
	"render-toolkit/logging"
	"render-toolkit/math"
	"render-toolkit/resource"
)

// ErrNotInitialized is returned by Restore before a successful Init.
var ErrNotInitialized = errors.New("configure: not initialized")

var matrixSize = gpu.SizeOf[math.Mat4]()

// TerrainVertex is the vertex of the height field.
type TerrainVertex struct {
	Position math.Vec3
	Normal   math.Vec3
}

// TerrainElements is the input layout of TerrainVertex.
func TerrainElements() []gpu.InputElement {
	return []gpu.InputElement{
		{Semantic: "POSITION", Format: gpu.FormatR32G32B32Float, Offset: 0},
		{Semantic: "NORMAL", Format: gpu.FormatR32G32B32Float, Offset: 12},
	}
}

// pipeline owns one vertex shader, pixel shader, input layout and constant
// buffer. The shader blobs are kept after Init so the objects can be
// recreated on a new device from the very same bytes.
type pipeline struct {
	name     string
	vsPath   string
	psPath   string
	elements []gpu.InputElement

	vsCode []byte
	psCode []byte

	vs     gpu.Ptr[gpu.Shader]
	ps     gpu.Ptr[gpu.Shader]
	layout gpu.Ptr[gpu.InputLayout]
	cb     gpu.Ptr[gpu.Buffer]
}

// Init loads the shader blobs and creates the GPU objects. With a nil
// device only the blobs are loaded and Restore creates the objects later.
func (p *pipeline) Init(dev gpu.Device, res resource.Provider) error {
	vsCode, err := res.FileData(p.vsPath)
	if err != nil {
		logging.For("configure").Error("load vertex shader", "configure", p.name, "err", err)
		return fmt.Errorf("%s: %w", p.name, err)
	}
	psCode, err := res.FileData(p.psPath)
	if err != nil {
		logging.For("configure").Error("load pixel shader", "configure", p.name, "err", err)
		return fmt.Errorf("%s: %w", p.name, err)
	}
	p.vsCode, p.psCode = vsCode, psCode
	if dev == nil {
		return nil
	}
	return p.create(dev)
}

// Restore recreates the GPU objects on dev from the blobs read by Init.
func (p *pipeline) Restore(dev gpu.Device) error {
	if p.vsCode == nil || p.psCode == nil {
		return fmt.Errorf("%s: %w", p.name, ErrNotInitialized)
	}
	return p.create(dev)
}

// create builds shaders first, then the layout from the retained vertex
// shader blob, then the constant buffer. A failure leaves nothing behind.
func (p *pipeline) create(dev gpu.Device) (err error) {
	p.Close()
	defer func() {
		if err != nil {
			p.Close()
			logging.For("configure").Error("create pipeline", "configure", p.name, "err", err)
			err = fmt.Errorf("%s: %w", p.name, err)
		}
	}()

	if p.vs, err = dev.CreateVertexShader(p.vsCode); err != nil {
		return err
	}
	if p.ps, err = dev.CreatePixelShader(p.psCode); err != nil {
		return err
	}
	if p.layout, err = dev.CreateInputLayout(p.elements, p.vsCode); err != nil {
		return err
	}
	p.cb, err = dev.CreateBuffer(&gpu.BufferDesc{
		ByteWidth: matrixSize,
		ResType:   gpu.BindConstantBuffer,
		Dynamic:   true,
		CPUAccess: gpu.CPUAccessWrite,
	}, nil)
	return err
}

// Ready reports whether all four objects exist.
func (p *pipeline) Ready() bool {
	return !p.vs.IsNull() && !p.ps.IsNull() && !p.layout.IsNull() && !p.cb.IsNull()
}

// Active binds the shaders and the input layout. The constant buffer is
// bound by SetMatrix.
func (p *pipeline) Active(ctx gpu.Context) bool {
	if !p.Ready() {
		return false
	}
	ctx.SetVertexShader(p.vs.Get())
	ctx.SetPixelShader(p.ps.Get())
	ctx.SetInputLayout(p.layout.Get())
	return true
}

// SetMatrix writes m into the constant buffer and binds it to vertex
// shader slot 0.
func (p *pipeline) SetMatrix(ctx gpu.Context, m math.Mat4) bool {
	if p.cb.IsNull() {
		return false
	}
	ok := gpu.WithLock(ctx, p.cb.Get(), func(data []byte) {
		copy(data, gpu.AsBytes([]math.Mat4{m}))
	})
	if !ok {
		return false
	}
	ctx.SetVConstantBuffers(0, []gpu.Buffer{p.cb.Get()})
	return true
}

// Close releases the GPU objects and keeps the shader blobs.
func (p *pipeline) Close() {
	p.cb.Reset()
	p.layout.Reset()
	p.ps.Reset()
	p.vs.Reset()
}

// Assist draws unlit colored lines.
type Assist struct{ pipeline }

func NewAssist() *Assist {
	return &Assist{pipeline{
		name:     "assist",
		vsPath:   resource.AssistVS,
		psPath:   resource.AssistPS,
		elements: drawing.AssistElements(),
	}}
}

// Model draws lit, vertex-colored solids.
type Model struct{ pipeline }

func NewModel() *Model {
	return &Model{pipeline{
		name:     "model",
		vsPath:   resource.ModelVS,
		psPath:   resource.ModelPS,
		elements: drawing.ModelElements(),
	}}
}

// Terrain draws the height field shaded by altitude.
type Terrain struct{ pipeline }

func NewTerrain() *Terrain {
	return &Terrain{pipeline{
		name:     "terrain",
		vsPath:   resource.TerrainVS,
		psPath:   resource.TerrainPS,
		elements: TerrainElements(),
	}}
}
