package space

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"render-toolkit/drawing"
	"render-toolkit/gpu"
	"render-toolkit/logging"
	"render-toolkit/math"
)

// LoadGLTF imports every triangle primitive reachable from the document's
// scene as a ModelVertex object, tagging them firstTag, firstTag+1, ...
// Node transforms become the objects' world matrices. Geometry is mirrored
// on Z to go from glTF's right-handed space to the left-handed one used
// here. It returns the number of objects added.
func LoadGLTF(path string, m *Manager, firstTag int) (int, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("gltf open %q: %w", path, err)
	}

	log := logging.For("space")
	tag := firstTag
	added := 0

	var visit func(idx int, parent math.Mat4, depth int)
	visit = func(idx int, parent math.Mat4, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		node := doc.Nodes[idx]
		world := nodeMatrix(node).Mul(parent)

		if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {
			mesh := doc.Meshes[*node.Mesh]
			for pi, prim := range mesh.Primitives {
				vertices, indices, err := readPrimitive(doc, prim)
				if err != nil {
					log.Warn("gltf primitive skipped", "mesh", mesh.Name, "prim", pi, "err", err)
					continue
				}
				if !m.Add(gpu.AsBytes(vertices), indices, gpu.SizeOf[drawing.ModelVertex](), len(vertices), len(indices), tag) {
					tag++
					continue
				}
				m.GetByTag(tag).World = world
				tag++
				added++
			}
		}
		for _, child := range node.Children {
			visit(child, world, depth+1)
		}
	}

	for _, root := range rootNodes(doc) {
		visit(root, math.Mat4Identity(), 0)
	}
	return added, nil
}

func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// nodeMatrix is the node's local transform, mirrored on Z. An explicit
// matrix wins over translation/rotation/scale.
func nodeMatrix(n *gltf.Node) math.Mat4 {
	if n.Matrix != [16]float64{} && n.Matrix != identityMatrix {
		// column-major with column vectors is row-major with row vectors
		var m math.Mat4
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				v := float32(n.Matrix[i*4+j])
				if (i == 2) != (j == 2) {
					v = -v
				}
				m[i][j] = v
			}
		}
		return m
	}

	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	r := n.RotationOrDefault() // x, y, z, w

	scale := math.Mat4Scale(math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])))
	rot := math.Mat4FromQuaternion(-float32(r[0]), -float32(r[1]), float32(r[2]), float32(r[3]))
	trans := math.Mat4Translation(math.NewVec3(float32(t[0]), float32(t[1]), -float32(t[2])))
	return scale.Mul(rot).Mul(trans)
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]drawing.ModelVertex, []uint32, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, nil, fmt.Errorf("unsupported primitive mode %v", prim.Mode)
	}
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	color := drawing.DefaultModelColor
	if prim.Material != nil && *prim.Material < len(doc.Materials) {
		if pbr := doc.Materials[*prim.Material].PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			color = math.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
		}
	}

	vertices := make([]drawing.ModelVertex, len(positions))
	for i, p := range positions {
		v := drawing.ModelVertex{
			Position: math.NewVec3(p[0], p[1], -p[2]),
			Color:    color,
		}
		if i < len(normals) {
			v.Normal = math.NewVec3(normals[i][0], normals[i][1], -normals[i][2])
		}
		if i < len(uvs) {
			v.TexCoord = math.NewVec2(uvs[i][0], uvs[i][1])
		}
		vertices[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(normals) == 0 {
		drawing.CalculateNormalVector(vertices, indices)
	}
	return vertices, indices, nil
}
