package softgpu

import "render-toolkit/gpu"

// Kind classifies tracked objects for Live accounting and failure
// injection.
type Kind int

const (
	KindBuffer Kind = iota
	KindTexture
	KindVertexShader
	KindPixelShader
	KindInputLayout
	KindRasterizerState
	KindSamplerState
	KindDepthStencilState
	KindRenderTarget
	KindDepthStencil
	KindShaderResource
	kindCount
)

func (k Kind) String() string {
	return [...]string{
		"Buffer", "Texture", "VertexShader", "PixelShader", "InputLayout",
		"RasterizerState", "SamplerState", "DepthStencilState",
		"RenderTarget", "DepthStencil", "ShaderResource",
	}[k]
}

type buffer struct {
	gpu.RefCount
	dev    *Device
	desc   gpu.BufferDesc
	data   []byte
	locked bool
}

func (b *buffer) ResourceType() gpu.ResourceType { return gpu.ResourceBuffer }
func (b *buffer) Desc() gpu.BufferDesc           { return b.desc }

type texture struct {
	gpu.RefCount
	dev    *Device
	desc   gpu.TextureDesc
	data   []byte
	locked bool
}

func (t *texture) ResourceType() gpu.ResourceType { return gpu.ResourceTexture }
func (t *texture) Desc() gpu.TextureDesc          { return t.desc }

type shader struct {
	gpu.RefCount
	stage    gpu.ShaderStage
	bytecode []byte
}

func (s *shader) Stage() gpu.ShaderStage { return s.stage }
func (s *shader) Bytecode() []byte       { return s.bytecode }

type inputLayout struct {
	gpu.RefCount
	elements []gpu.InputElement
}

func (l *inputLayout) Elements() []gpu.InputElement { return l.elements }

type rasterizerState struct {
	gpu.RefCount
	desc gpu.RasterizerDesc
}

func (s *rasterizerState) Desc() gpu.RasterizerDesc { return s.desc }

type samplerState struct {
	gpu.RefCount
	desc gpu.SamplerDesc
}

func (s *samplerState) Desc() gpu.SamplerDesc { return s.desc }

type depthStencilState struct {
	gpu.RefCount
	desc gpu.DepthStencilDesc
}

func (s *depthStencilState) Desc() gpu.DepthStencilDesc { return s.desc }

// view backs RenderTarget, DepthStencil and ShaderResource.
type view struct {
	gpu.RefCount
	tex gpu.Texture
}

func (v *view) Texture() gpu.Texture { return v.tex }
