package drawing

import (
	"render-toolkit/gpu"
	"render-toolkit/math"
)

// AssistVertex is the vertex of helper geometry: lines, axes, grids.
type AssistVertex struct {
	Position math.Vec3
	Color    math.Color
}

// ModelVertex is the vertex of lit solid geometry.
type ModelVertex struct {
	Position math.Vec3
	Color    math.Color
	Normal   math.Vec3
	TexCoord math.Vec2
}

var (
	assistSize = gpu.SizeOf[AssistVertex]()
	modelSize  = gpu.SizeOf[ModelVertex]()
)

// AssistElements is the input layout of AssistVertex.
func AssistElements() []gpu.InputElement {
	return []gpu.InputElement{
		{Semantic: "POSITION", Format: gpu.FormatR32G32B32Float, Offset: 0},
		{Semantic: "COLOR", Format: gpu.FormatR32G32B32A32Float, Offset: 12},
	}
}

// ModelElements is the input layout of ModelVertex.
func ModelElements() []gpu.InputElement {
	return []gpu.InputElement{
		{Semantic: "POSITION", Format: gpu.FormatR32G32B32Float, Offset: 0},
		{Semantic: "COLOR", Format: gpu.FormatR32G32B32A32Float, Offset: 12},
		{Semantic: "NORMAL", Format: gpu.FormatR32G32B32Float, Offset: 28},
		{Semantic: "TEXCOORD", Format: gpu.FormatR32G32Float, Offset: 40},
	}
}
