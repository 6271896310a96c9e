package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-toolkit/gpu"
)

// texFormat is the TexImage2D triple for a texel format.
type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

func textureFormat(f gpu.Format) (texFormat, bool) {
	switch f {
	case gpu.FormatR8G8B8A8Unorm:
		return texFormat{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}, true
	case gpu.FormatB8G8R8A8Unorm:
		return texFormat{gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE}, true
	case gpu.FormatR16Uint:
		return texFormat{gl.R16UI, gl.RED_INTEGER, gl.UNSIGNED_SHORT}, true
	case gpu.FormatR32Uint:
		return texFormat{gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT}, true
	case gpu.FormatR32Float:
		return texFormat{gl.R32F, gl.RED, gl.FLOAT}, true
	case gpu.FormatR32G32Float:
		return texFormat{gl.RG32F, gl.RG, gl.FLOAT}, true
	case gpu.FormatR32G32B32Float:
		return texFormat{gl.RGB32F, gl.RGB, gl.FLOAT}, true
	case gpu.FormatR32G32B32A32Float:
		return texFormat{gl.RGBA32F, gl.RGBA, gl.FLOAT}, true
	case gpu.FormatD24UnormS8Uint:
		return texFormat{gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8}, true
	case gpu.FormatD32Float:
		return texFormat{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT}, true
	}
	return texFormat{}, false
}

// attribFormat describes a vertex attribute. Integer attributes go through
// VertexAttribIPointer.
type attribFormat struct {
	size       int32
	xtype      uint32
	normalized bool
	integer    bool
}

func vertexFormat(f gpu.Format) (attribFormat, bool) {
	switch f {
	case gpu.FormatR32Float, gpu.FormatR32G32Float, gpu.FormatR32G32B32Float, gpu.FormatR32G32B32A32Float:
		return attribFormat{size: int32(f.Components()), xtype: gl.FLOAT}, true
	case gpu.FormatR8G8B8A8Unorm:
		return attribFormat{size: 4, xtype: gl.UNSIGNED_BYTE, normalized: true}, true
	case gpu.FormatB8G8R8A8Unorm:
		return attribFormat{size: gl.BGRA, xtype: gl.UNSIGNED_BYTE, normalized: true}, true
	case gpu.FormatR16Uint:
		return attribFormat{size: 1, xtype: gl.UNSIGNED_SHORT, integer: true}, true
	case gpu.FormatR32Uint:
		return attribFormat{size: 1, xtype: gl.UNSIGNED_INT, integer: true}, true
	}
	return attribFormat{}, false
}

func primitiveMode(t gpu.Topology) uint32 {
	switch t {
	case gpu.TopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.TopologyLineList:
		return gl.LINES
	case gpu.TopologyLineStrip:
		return gl.LINE_STRIP
	case gpu.TopologyPointList:
		return gl.POINTS
	}
	return gl.TRIANGLES
}

func indexType(f gpu.IndexFormat) uint32 {
	if f == gpu.IndexUint16 {
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}

func compareFunc(c gpu.ComparisonFunc) uint32 {
	switch c {
	case gpu.CompareNever:
		return gl.NEVER
	case gpu.CompareLess:
		return gl.LESS
	case gpu.CompareEqual:
		return gl.EQUAL
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareGreater:
		return gl.GREATER
	case gpu.CompareNotEqual:
		return gl.NOTEQUAL
	case gpu.CompareGreaterEqual:
		return gl.GEQUAL
	}
	return gl.ALWAYS
}

func addressMode(a gpu.AddressMode) int32 {
	switch a {
	case gpu.AddressClamp:
		return gl.CLAMP_TO_EDGE
	case gpu.AddressMirror:
		return gl.MIRRORED_REPEAT
	}
	return gl.REPEAT
}

// filterMode returns the min/mag filter. Anisotropic filtering is linear
// filtering plus the anisotropy parameter. Textures carry a single level,
// so no mipmap filter is used.
func filterMode(f gpu.Filter) int32 {
	if f == gpu.FilterPoint {
		return gl.NEAREST
	}
	return gl.LINEAR
}

// frontFace maps the winding flag. Winding is judged as seen on screen, so
// the two conventions agree and only the default differs from GL's.
func frontFace(frontCCW bool) uint32 {
	if frontCCW {
		return gl.CCW
	}
	return gl.CW
}

// flipViewport converts a top-left origin Y into GL's bottom-left one for
// a target of the given height. A zero height leaves y unchanged.
func flipViewport(y, height, targetHeight float32) float32 {
	if targetHeight <= 0 {
		return y
	}
	return targetHeight - (y + height)
}

// codeOfGLError classifies a glGetError value.
func codeOfGLError(e uint32) gpu.ErrorCode {
	switch e {
	case gl.NO_ERROR:
		return gpu.CodeOK
	case gl.OUT_OF_MEMORY:
		return gpu.CodeOutOfMemory
	case gl.INVALID_ENUM, gl.INVALID_VALUE:
		return gpu.CodeInvalidArg
	}
	return gpu.CodeBackend
}
