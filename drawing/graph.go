package drawing

import (
	"github.com/chewxy/math32"

	"render-toolkit/gpu"
	"render-toolkit/internal/meshbuf"
	"render-toolkit/logging"
	"render-toolkit/math"
)

// DefaultModelColor is used by shapes that take no color.
var DefaultModelColor = math.Color{R: 0.8, G: 0.8, B: 0.8, A: 1}

// GraphCreator builds shapes straight into a Manager. Assist shapes are
// line lists of AssistVertex; solid shapes are triangle lists of
// ModelVertex with computed normals. Triangles wind clockwise seen from
// outside.
type GraphCreator struct {
	m *Manager
}

func NewGraphCreator(m *Manager) *GraphCreator { return &GraphCreator{m: m} }

func (g *GraphCreator) putAssist(tag int, vertices []AssistVertex, indices []uint32) bool {
	return g.put(tag, gpu.AsBytes(vertices), indices, assistSize, len(vertices), gpu.TopologyLineList)
}

func (g *GraphCreator) putModel(tag int, vertices []ModelVertex, indices []uint32) bool {
	CalculateNormalVector(vertices, indices)
	return g.put(tag, gpu.AsBytes(vertices), indices, modelSize, len(vertices), gpu.TopologyTriangleList)
}

func (g *GraphCreator) put(tag int, vertices []byte, indices []uint32, size, count int, topology gpu.Topology) bool {
	mesh, err := meshbuf.New(vertices, indices, size, count, len(indices))
	if err != nil {
		logging.For("drawing").Error("shape rejected", "tag", tag, "err", err)
		return false
	}
	mesh.Topology = topology
	return g.m.Insert(tag, &Object{Tag: tag, Mesh: mesh})
}

// PutLine adds a single segment.
func (g *GraphCreator) PutLine(tag int, from, to math.Vec3, color math.Color) bool {
	return g.putAssist(tag,
		[]AssistVertex{{Position: from, Color: color}, {Position: to, Color: color}},
		[]uint32{0, 1})
}

// PutWorldAxis adds the three positive axes from the origin: X red,
// Y green, Z blue.
func (g *GraphCreator) PutWorldAxis(tag int, length float32) bool {
	vertices := []AssistVertex{
		{Position: math.Vec3Zero, Color: math.ColorRed},
		{Position: math.Vec3Right.Mul(length), Color: math.ColorRed},
		{Position: math.Vec3Zero, Color: math.ColorGreen},
		{Position: math.Vec3Up.Mul(length), Color: math.ColorGreen},
		{Position: math.Vec3Zero, Color: math.ColorBlue},
		{Position: math.Vec3Front.Mul(length), Color: math.ColorBlue},
	}
	return g.putAssist(tag, vertices, []uint32{0, 1, 2, 3, 4, 5})
}

// PutMark adds three axis-aligned segments of the given length crossing at
// center.
func (g *GraphCreator) PutMark(tag int, center math.Vec3, length float32, color math.Color) bool {
	h := length / 2
	var vertices []AssistVertex
	for _, axis := range []math.Vec3{math.Vec3Right, math.Vec3Up, math.Vec3Front} {
		vertices = append(vertices,
			AssistVertex{Position: center.Sub(axis.Mul(h)), Color: color},
			AssistVertex{Position: center.Add(axis.Mul(h)), Color: color},
		)
	}
	return g.putAssist(tag, vertices, []uint32{0, 1, 2, 3, 4, 5})
}

// PutGrid adds a square grid on the XZ plane spanning size, centered on the
// origin, with divisions cells per side. The center lines along X and Z
// are colored red and blue.
func (g *GraphCreator) PutGrid(tag int, size float32, divisions int) bool {
	if divisions < 1 {
		divisions = 1
	}
	half := size / 2
	step := size / float32(divisions)

	var vertices []AssistVertex
	var indices []uint32
	addLine := func(a, b math.Vec3, c math.Color) {
		base := uint32(len(vertices))
		vertices = append(vertices, AssistVertex{Position: a, Color: c}, AssistVertex{Position: b, Color: c})
		indices = append(indices, base, base+1)
	}

	for i := 0; i <= divisions; i++ {
		x := -half + float32(i)*step
		c := math.ColorGray
		if divisions%2 == 0 && i == divisions/2 {
			c = math.ColorBlue
		}
		addLine(math.NewVec3(x, 0, -half), math.NewVec3(x, 0, half), c)
	}
	for i := 0; i <= divisions; i++ {
		z := -half + float32(i)*step
		c := math.ColorGray
		if divisions%2 == 0 && i == divisions/2 {
			c = math.ColorRed
		}
		addLine(math.NewVec3(-half, 0, z), math.NewVec3(half, 0, z), c)
	}
	return g.putAssist(tag, vertices, indices)
}

// PutCube adds a cube of the given edge length centered on the origin.
func (g *GraphCreator) PutCube(tag int, edge float32) bool {
	h := edge / 2
	vertices, indices := box(math.NewVec3(-h, -h, -h), math.NewVec3(h, h, h), DefaultModelColor)
	return g.putModel(tag, vertices, indices)
}

// PutBlock adds an axis-aligned box with its minimum corner at pos.
func (g *GraphCreator) PutBlock(tag int, pos, size math.Vec3, color math.Color) bool {
	vertices, indices := box(pos, pos.Add(size), color)
	return g.putModel(tag, vertices, indices)
}

// box returns the 8 shared corners and 12 triangles of an axis-aligned box.
func box(lo, hi math.Vec3, color math.Color) ([]ModelVertex, []uint32) {
	corners := [8]math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
	}
	vertices := make([]ModelVertex, len(corners))
	for i, p := range corners {
		vertices[i] = ModelVertex{
			Position: p,
			Color:    color,
			TexCoord: math.NewVec2(float32(i&1), float32(i>>1&1)),
		}
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3, // -Z
		7, 6, 5, 7, 5, 4, // +Z
		4, 5, 1, 4, 1, 0, // -X
		3, 2, 6, 3, 6, 7, // +X
		1, 5, 6, 1, 6, 2, // +Y
		4, 0, 3, 4, 3, 7, // -Y
	}
	return vertices, indices
}

// PutSphere adds a UV sphere centered on the origin.
func (g *GraphCreator) PutSphere(tag int, radius float32, segments, rings int, color math.Color) bool {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var vertices []ModelVertex
	for ring := 0; ring <= rings; ring++ {
		phi := float32(ring) * math32.Pi / float32(rings)
		sinPhi, cosPhi := math32.Sin(phi), math32.Cos(phi)
		for seg := 0; seg <= segments; seg++ {
			theta := float32(seg) * 2 * math32.Pi / float32(segments)
			sinTheta, cosTheta := math32.Sin(theta), math32.Cos(theta)

			normal := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			vertices = append(vertices, ModelVertex{
				Position: normal.Mul(radius),
				Color:    color,
				Normal:   normal,
				TexCoord: math.NewVec2(float32(seg)/float32(segments), float32(ring)/float32(rings)),
			})
		}
	}

	var indices []uint32
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)
			indices = append(indices, current, current+1, next)
			indices = append(indices, current+1, next+1, next)
		}
	}
	return g.putModel(tag, vertices, indices)
}
