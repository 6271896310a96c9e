package opengl

import (
	"render-toolkit/gpu"
)

type buffer struct {
	gpu.RefCount
	id     uint32
	desc   gpu.BufferDesc
	// shadow backs Lock for dynamic buffers; Unlock uploads it whole.
	shadow []byte
	locked bool
}

func (b *buffer) ResourceType() gpu.ResourceType { return gpu.ResourceBuffer }
func (b *buffer) Desc() gpu.BufferDesc           { return b.desc }

type texture struct {
	gpu.RefCount
	id     uint32
	desc   gpu.TextureDesc
	format texFormat
	shadow []byte
	locked bool
}

func (t *texture) ResourceType() gpu.ResourceType { return gpu.ResourceTexture }
func (t *texture) Desc() gpu.TextureDesc          { return t.desc }

type shader struct {
	gpu.RefCount
	id       uint32
	stage    gpu.ShaderStage
	bytecode []byte
}

func (s *shader) Stage() gpu.ShaderStage { return s.stage }
func (s *shader) Bytecode() []byte       { return s.bytecode }

type inputLayout struct {
	gpu.RefCount
	elements []gpu.InputElement
	formats  []attribFormat
}

func (l *inputLayout) Elements() []gpu.InputElement { return l.elements }

type rasterizerState struct {
	gpu.RefCount
	desc gpu.RasterizerDesc
}

func (s *rasterizerState) Desc() gpu.RasterizerDesc { return s.desc }

type samplerState struct {
	gpu.RefCount
	id   uint32
	desc gpu.SamplerDesc
}

func (s *samplerState) Desc() gpu.SamplerDesc { return s.desc }

type depthStencilState struct {
	gpu.RefCount
	desc gpu.DepthStencilDesc
}

func (s *depthStencilState) Desc() gpu.DepthStencilDesc { return s.desc }

// view backs RenderTarget, DepthStencil and ShaderResource. GL has no view
// objects; a view is its texture plus the reference that keeps it alive.
type view struct {
	gpu.RefCount
	tex *texture
}

func (v *view) Texture() gpu.Texture { return v.tex }
