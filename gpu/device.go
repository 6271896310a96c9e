package gpu

// Device turns descriptions into backend objects. It is the only way to
// obtain one. Every method returns a null Ptr together with a non-nil
// error (see CodeOf) on failure; callers must check before use.
//
// Initial data is only read during the call.
type Device interface {
	CreateBuffer(desc *BufferDesc, data *ResourceData) (Ptr[Buffer], error)
	CreateTexture2D(desc *TextureDesc, data *ResourceData) (Ptr[Texture], error)

	CreateVertexShader(bytecode []byte) (Ptr[Shader], error)
	CreatePixelShader(bytecode []byte) (Ptr[Shader], error)
	// CreateInputLayout validates elements against the vertex shader the
	// bytecode was compiled for, so it needs that exact blob.
	CreateInputLayout(elements []InputElement, vsBytecode []byte) (Ptr[InputLayout], error)

	CreateRasterizerState(desc *RasterizerDesc) (Ptr[RasterizerState], error)
	CreateSamplerState(desc *SamplerDesc) (Ptr[SamplerState], error)
	CreateDepthStencilState(desc *DepthStencilDesc) (Ptr[DepthStencilState], error)

	CreateRenderTarget(tex Texture) (Ptr[RenderTarget], error)
	CreateDepthStencil(tex Texture) (Ptr[DepthStencil], error)
	CreateShaderResource(tex Texture) (Ptr[ShaderResource], error)

	// Close tears down device-level state. Objects created by the device
	// must not be used afterwards, even if references remain.
	Close()
}

// DeviceSource hands out the current device. Device returns nil while no
// usable device exists, e.g. between a device loss and its restore.
type DeviceSource interface {
	Device() Device
}
