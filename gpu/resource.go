package gpu

import (
	"fmt"
	"math/bits"
)

// ResourceType tags the variant of a Resource.
type ResourceType int

const (
	ResourceBuffer ResourceType = iota + 1
	ResourceTexture
)

func (t ResourceType) String() string {
	switch t {
	case ResourceBuffer:
		return "Buffer"
	case ResourceTexture:
		return "Texture"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// BindFlags says how the pipeline may use a resource.
type BindFlags uint32

const (
	BindVertexBuffer BindFlags = 1 << iota
	BindIndexBuffer
	BindConstantBuffer
	BindShaderResource
	BindRenderTarget
	BindDepthStencil
)

// CPUAccess flags request CPU mapping of a resource. Only write mapping of
// dynamic resources is implemented; CPUAccessRead is rejected with
// ErrUnsupported by every Validate since no backend reads resources back.
type CPUAccess uint32

const (
	CPUAccessWrite CPUAccess = 1 << iota
	CPUAccessRead
)

// Format describes one texel or one vertex attribute.
type Format int

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatR16Uint
	FormatR32Uint
	FormatR32Float
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR32G32B32A32Float
	FormatD24UnormS8Uint
	FormatD32Float
)

// Size returns the byte size of one element, or 0 for FormatUnknown.
func (f Format) Size() int {
	switch f {
	case FormatR16Uint:
		return 2
	case FormatR8G8B8A8Unorm, FormatB8G8R8A8Unorm, FormatR32Uint, FormatR32Float,
		FormatD24UnormS8Uint, FormatD32Float:
		return 4
	case FormatR32G32Float:
		return 8
	case FormatR32G32B32Float:
		return 12
	case FormatR32G32B32A32Float:
		return 16
	}
	return 0
}

// Components returns the number of scalar components of a vertex format.
func (f Format) Components() int {
	switch f {
	case FormatR16Uint, FormatR32Uint, FormatR32Float:
		return 1
	case FormatR32G32Float:
		return 2
	case FormatR32G32B32Float:
		return 3
	case FormatR32G32B32A32Float, FormatR8G8B8A8Unorm, FormatB8G8R8A8Unorm:
		return 4
	}
	return 0
}

// IsDepth reports whether f is a depth(-stencil) format.
func (f Format) IsDepth() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32Float
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	ByteWidth    int
	StructStride int
	ResType      BindFlags
	Dynamic      bool
	CPUAccess    CPUAccess
}

// Validate enforces a single usage class per buffer and the rule that CPU
// writes go through dynamic resources only.
func (d *BufferDesc) Validate() error {
	if d.ByteWidth <= 0 {
		return fmt.Errorf("buffer byte width %d: %w", d.ByteWidth, ErrInvalidArg)
	}
	if bits.OnesCount32(uint32(d.ResType)) != 1 ||
		d.ResType&(BindVertexBuffer|BindIndexBuffer|BindConstantBuffer|BindShaderResource) == 0 {
		return fmt.Errorf("buffer res type %#x: %w", uint32(d.ResType), ErrInvalidArg)
	}
	if d.ResType == BindConstantBuffer && d.ByteWidth%16 != 0 {
		return fmt.Errorf("constant buffer width %d not a multiple of 16: %w", d.ByteWidth, ErrInvalidArg)
	}
	return validateAccess(d.Dynamic, d.CPUAccess)
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Width     int
	Height    int
	MipLevels int
	Format    Format
	ResType   BindFlags
	Dynamic   bool
	CPUAccess CPUAccess
}

// Validate accepts shader-resource and/or render-target color textures, or
// depth-stencil textures on their own.
func (d *TextureDesc) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("texture size %dx%d: %w", d.Width, d.Height, ErrInvalidArg)
	}
	if d.Format.Size() == 0 {
		return fmt.Errorf("texture format %d: %w", d.Format, ErrInvalidArg)
	}
	switch {
	case d.ResType == BindDepthStencil:
		if !d.Format.IsDepth() {
			return fmt.Errorf("depth-stencil texture needs a depth format: %w", ErrInvalidArg)
		}
	case d.ResType != 0 && d.ResType&^(BindShaderResource|BindRenderTarget) == 0:
		if d.Format.IsDepth() {
			return fmt.Errorf("color texture with depth format: %w", ErrInvalidArg)
		}
	default:
		return fmt.Errorf("texture res type %#x: %w", uint32(d.ResType), ErrInvalidArg)
	}
	if d.Dynamic && d.ResType != BindShaderResource {
		return fmt.Errorf("dynamic textures can only be shader resources: %w", ErrInvalidArg)
	}
	return validateAccess(d.Dynamic, d.CPUAccess)
}

// RowPitch is the byte size of one texel row.
func (d *TextureDesc) RowPitch() int { return d.Width * d.Format.Size() }

func validateAccess(dynamic bool, access CPUAccess) error {
	if access&CPUAccessRead != 0 {
		return fmt.Errorf("cpu read access: %w", ErrUnsupported)
	}
	if dynamic != (access&CPUAccessWrite != 0) {
		return fmt.Errorf("dynamic=%v with cpu access %#x: %w", dynamic, uint32(access), ErrInvalidArg)
	}
	return nil
}

// ResourceData is the optional initial content of a resource. It is only
// read during creation.
type ResourceData struct {
	Data       []byte
	Pitch      int
	SlicePitch int
}

// Resource is a GPU memory object: a Buffer or a Texture.
type Resource interface {
	Object
	ResourceType() ResourceType
}

type Buffer interface {
	Resource
	Desc() BufferDesc
}

type Texture interface {
	Resource
	Desc() TextureDesc
}

// ShaderStage identifies the pipeline stage a shader runs in.
type ShaderStage int

const (
	StageVertex ShaderStage = iota + 1
	StagePixel
)

type Shader interface {
	Object
	Stage() ShaderStage
	// Bytecode returns the blob the shader was created from.
	Bytecode() []byte
}

// InputElement describes one vertex attribute within an input slot.
type InputElement struct {
	Semantic      string
	SemanticIndex int
	Format        Format
	Slot          int
	Offset        int
}

type InputLayout interface {
	Object
	Elements() []InputElement
}

type FillMode int

const (
	FillSolid FillMode = iota
	FillWireframe
)

type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

type RasterizerDesc struct {
	Fill      FillMode
	Cull      CullMode
	FrontCCW  bool
	DepthClip bool
	Scissor   bool
}

type RasterizerState interface {
	Object
	Desc() RasterizerDesc
}

type ComparisonFunc int

const (
	CompareNever ComparisonFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

type DepthStencilDesc struct {
	DepthEnable      bool
	DepthWrite       bool
	DepthFunc        ComparisonFunc
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
}

type DepthStencilState interface {
	Object
	Desc() DepthStencilDesc
}

type Filter int

const (
	FilterPoint Filter = iota
	FilterLinear
	FilterAnisotropic
)

type AddressMode int

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressMirror
)

type SamplerDesc struct {
	Filter        Filter
	AddressU      AddressMode
	AddressV      AddressMode
	MaxAnisotropy int
}

type SamplerState interface {
	Object
	Desc() SamplerDesc
}

// ShaderResource, RenderTarget and DepthStencil are views over a texture.
// A view holds a reference to its texture for its whole lifetime.
type ShaderResource interface {
	Object
	Texture() Texture
}

type RenderTarget interface {
	Object
	Texture() Texture
}

type DepthStencil interface {
	Object
	Texture() Texture
}
