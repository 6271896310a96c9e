package space

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"render-toolkit/drawing"
	"render-toolkit/gpu"
	"render-toolkit/logging"
	"render-toolkit/math"
)

// Load imports a model file by extension: .gltf and .glb go through
// LoadGLTF, .obj through LoadOBJ.
func Load(path string, m *Manager, firstTag int) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(path, m, firstTag)
	case ".obj":
		return LoadOBJ(path, m, firstTag)
	}
	return 0, fmt.Errorf("unknown model format %q", path)
}

// objCorner indexes one face corner, 0-based, -1 when absent.
type objCorner struct{ v, vt, vn int }

type objGroup struct {
	name     string
	material string
	corners  []objCorner // three per triangle
}

// LoadOBJ imports a Wavefront file, one object per "o"/"g" group, with the
// diffuse colour of a referenced .mtl material. Polygons are fan
// triangulated and geometry is mirrored on Z like LoadGLTF.
func LoadOBJ(path string, m *Manager, firstTag int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	var positions, normals []math.Vec3
	var uvs []math.Vec2
	colors := map[string]math.Color{}
	var groups []*objGroup
	cur := &objGroup{name: "default"}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if p, ok := parseFloats(fields[1:], 3); ok {
				positions = append(positions, math.NewVec3(p[0], p[1], -p[2]))
			}
		case "vn":
			if p, ok := parseFloats(fields[1:], 3); ok {
				normals = append(normals, math.NewVec3(p[0], p[1], -p[2]))
			}
		case "vt":
			if p, ok := parseFloats(fields[1:], 2); ok {
				uvs = append(uvs, math.NewVec2(p[0], p[1]))
			}
		case "o", "g":
			if len(cur.corners) > 0 {
				groups = append(groups, cur)
			}
			name := "default"
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = &objGroup{name: name, material: cur.material}
		case "usemtl":
			if len(fields) > 1 {
				cur.material = fields[1]
			}
		case "mtllib":
			if len(fields) > 1 {
				mtl := filepath.Join(filepath.Dir(path), fields[1])
				if err := loadMTL(mtl, colors); err != nil {
					logging.For("space").Warn("mtl skipped", "path", mtl, "err", err)
				}
			}
		case "f":
			if len(fields) < 4 {
				continue
			}
			corners := make([]objCorner, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				corners = append(corners, parseCorner(tok, len(positions), len(uvs), len(normals)))
			}
			for i := 1; i+1 < len(corners); i++ {
				cur.corners = append(cur.corners, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan obj %q: %w", path, err)
	}
	if len(cur.corners) > 0 {
		groups = append(groups, cur)
	}
	if len(groups) == 0 {
		return 0, fmt.Errorf("no geometry in %q", path)
	}

	added := 0
	for i, g := range groups {
		color, ok := colors[g.material]
		if !ok {
			color = drawing.DefaultModelColor
		}
		vertices, indices := buildGroup(g, positions, normals, uvs, color)
		if m.Add(gpu.AsBytes(vertices), indices, gpu.SizeOf[drawing.ModelVertex](), len(vertices), len(indices), firstTag+i) {
			added++
		}
	}
	return added, nil
}

func parseFloats(fields []string, n int) ([]float32, bool) {
	if len(fields) < n {
		return nil, false
	}
	out := make([]float32, n)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, false
		}
		out[i] = float32(v)
	}
	return out, true
}

// parseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn". Negative references
// count back from the end of what has been read so far.
func parseCorner(tok string, nv, nvt, nvn int) objCorner {
	ref := func(s string, count int) int {
		n, err := strconv.Atoi(s)
		switch {
		case err != nil || n == 0:
			return -1
		case n < 0:
			return count + n
		}
		return n - 1
	}
	c := objCorner{-1, -1, -1}
	parts := strings.Split(tok, "/")
	c.v = ref(parts[0], nv)
	if len(parts) > 1 {
		c.vt = ref(parts[1], nvt)
	}
	if len(parts) > 2 {
		c.vn = ref(parts[2], nvn)
	}
	return c
}

// buildGroup shares a vertex between corners with identical references.
func buildGroup(g *objGroup, positions, normals []math.Vec3, uvs []math.Vec2, color math.Color) ([]drawing.ModelVertex, []uint32) {
	seen := map[objCorner]uint32{}
	var vertices []drawing.ModelVertex
	indices := make([]uint32, 0, len(g.corners))
	hasNormals := true

	for _, c := range g.corners {
		if idx, ok := seen[c]; ok {
			indices = append(indices, idx)
			continue
		}
		v := drawing.ModelVertex{Color: color}
		if c.v >= 0 && c.v < len(positions) {
			v.Position = positions[c.v]
		}
		if c.vn >= 0 && c.vn < len(normals) {
			v.Normal = normals[c.vn]
		} else {
			hasNormals = false
		}
		if c.vt >= 0 && c.vt < len(uvs) {
			v.TexCoord = uvs[c.vt]
		}
		idx := uint32(len(vertices))
		seen[c] = idx
		vertices = append(vertices, v)
		indices = append(indices, idx)
	}
	if !hasNormals {
		drawing.CalculateNormalVector(vertices, indices)
	}
	return vertices, indices
}

// loadMTL adds the Kd colour of every material in path to colors.
func loadMTL(path string, colors map[string]math.Color) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			name = fields[1]
			colors[name] = drawing.DefaultModelColor
		case "Kd":
			if p, ok := parseFloats(fields[1:], 3); ok && name != "" {
				colors[name] = math.Color{R: p[0], G: p[1], B: p[2], A: 1}
			}
		case "d":
			if p, ok := parseFloats(fields[1:], 1); ok && name != "" {
				c := colors[name]
				c.A = p[0]
				colors[name] = c
			}
		}
	}
	return scanner.Err()
}
