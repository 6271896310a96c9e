package terrain

import (
	"fmt"

	"github.com/chewxy/math32"

	"render-toolkit/math"
)

const (
	nodeLeaf uint8 = iota
	nodeSplit
	nodeCulled
)

// LodGenerator triangulates a HeightField with a quadtree refined by eye
// distance and surface roughness. A node of edge length d at distance l is
// split while
//
//	l < d · C1 · max(C2 · d2, 1)
//
// where d2 is the node's roughness. C1 sets the minimum resolution and C2
// how much rough areas are favored. Nodes are keyed by their centre sample,
// which is unique across levels.
type LodGenerator struct {
	hf     *HeightField
	c1, c2 float32

	d2     []float32
	lo, hi []float32
	state  []uint8
	stamp  []uint32
	frame  uint32

	eye     math.Vec3
	frustum *Frustum
	indices []uint32
}

// NewLodGenerator precomputes roughness and height bounds for every node.
// c1 must be greater than one.
func NewLodGenerator(hf *HeightField, c1, c2 float32) (*LodGenerator, error) {
	if c1 <= 1 || c2 < 0 {
		return nil, fmt.Errorf("lod constants c1=%g c2=%g: c1 must exceed 1 and c2 be non-negative", c1, c2)
	}
	n := hf.size * hf.size
	g := &LodGenerator{
		hf:    hf,
		c1:    c1,
		c2:    c2,
		d2:    make([]float32, n),
		lo:    make([]float32, n),
		hi:    make([]float32, n),
		state: make([]uint8, n),
		stamp: make([]uint32, n),
	}
	half := (hf.size - 1) / 2
	g.prepare(half, half, half)
	return g, nil
}

// MaxIndexCount bounds the length of any Generate result.
func (g *LodGenerator) MaxIndexCount() int {
	leaves := (g.hf.size - 1) / 2
	return leaves * leaves * 8 * 3
}

func (g *LodGenerator) C1() float32 { return g.c1 }
func (g *LodGenerator) C2() float32 { return g.c2 }

// prepare fills d2, lo and hi bottom-up. A parent's roughness is raised to
// K times each child's so that neighbouring leaves differ by at most one
// level wherever the frustum does not intervene.
func (g *LodGenerator) prepare(cx, cz, hw int) (lo, hi, d2 float32) {
	hf := g.hf
	x0, x1, z0, z1 := cx-hw, cx+hw, cz-hw, cz+hw
	h := hf.At

	dh := max(
		math32.Abs(h(cx, z0)-(h(x0, z0)+h(x1, z0))/2),
		math32.Abs(h(cx, z1)-(h(x0, z1)+h(x1, z1))/2),
		math32.Abs(h(x0, cz)-(h(x0, z0)+h(x0, z1))/2),
		math32.Abs(h(x1, cz)-(h(x1, z0)+h(x1, z1))/2),
		math32.Abs(h(cx, cz)-(h(x0, z0)+h(x1, z1))/2),
		math32.Abs(h(cx, cz)-(h(x1, z0)+h(x0, z1))/2),
	)
	d2 = dh / (float32(2*hw) * hf.spacing)

	lo, hi = h(cx, cz), h(cx, cz)
	for _, z := range [3]int{z0, cz, z1} {
		for _, x := range [3]int{x0, cx, x1} {
			lo = min(lo, h(x, z))
			hi = max(hi, h(x, z))
		}
	}

	if hw > 1 {
		k := g.c1 / (2 * (g.c1 - 1))
		q := hw / 2
		for _, c := range [4][2]int{{cx - q, cz - q}, {cx + q, cz - q}, {cx - q, cz + q}, {cx + q, cz + q}} {
			clo, chi, cd2 := g.prepare(c[0], c[1], q)
			lo, hi = min(lo, clo), max(hi, chi)
			d2 = max(d2, k*cd2)
		}
	}

	idx := cz*hf.size + cx
	g.d2[idx], g.lo[idx], g.hi[idx] = d2, lo, hi
	return lo, hi, d2
}

// Generate returns a triangle list for the current eye position. Nodes
// outside frustum are dropped; a nil frustum keeps everything. The slice
// is reused by the next call.
func (g *LodGenerator) Generate(eye math.Vec3, frustum *Frustum) []uint32 {
	g.frame++
	g.eye, g.frustum = eye, frustum
	g.indices = g.indices[:0]

	half := (g.hf.size - 1) / 2
	g.refine(half, half, half)
	g.emit(half, half, half)
	return g.indices
}

func (g *LodGenerator) mark(idx int, s uint8) {
	g.state[idx] = s
	g.stamp[idx] = g.frame
}

func (g *LodGenerator) refine(cx, cz, hw int) {
	idx := cz*g.hf.size + cx
	if g.frustum != nil && !g.bounds(cx, cz, hw).IntersectsFrustum(g.frustum) {
		g.mark(idx, nodeCulled)
		return
	}
	if hw <= 1 {
		g.mark(idx, nodeLeaf)
		return
	}

	l := g.eye.Distance(g.hf.Position(cx, cz))
	d := float32(2*hw) * g.hf.spacing
	if l >= d*g.c1*max(g.c2*g.d2[idx], 1) {
		g.mark(idx, nodeLeaf)
		return
	}
	g.mark(idx, nodeSplit)
	q := hw / 2
	g.refine(cx-q, cz-q, q)
	g.refine(cx+q, cz-q, q)
	g.refine(cx-q, cz+q, q)
	g.refine(cx+q, cz+q, q)
}

func (g *LodGenerator) bounds(cx, cz, hw int) AABB {
	idx := cz*g.hf.size + cx
	lo := g.hf.Position(cx-hw, cz-hw)
	hi := g.hf.Position(cx+hw, cz+hw)
	lo.Y, hi.Y = g.lo[idx], g.hi[idx]
	return AABB{Min: lo, Max: hi}
}

// split reports whether the node centred on (cx, cz) was split this frame.
// Nodes outside the grid or not reached this frame count as unsplit.
func (g *LodGenerator) split(cx, cz int) bool {
	if cx < 0 || cz < 0 || cx >= g.hf.size || cz >= g.hf.size {
		return false
	}
	idx := cz*g.hf.size + cx
	return g.stamp[idx] == g.frame && g.state[idx] == nodeSplit
}

func (g *LodGenerator) emit(cx, cz, hw int) {
	idx := cz*g.hf.size + cx
	switch g.state[idx] {
	case nodeCulled:
		return
	case nodeSplit:
		q := hw / 2
		g.emit(cx-q, cz-q, q)
		g.emit(cx+q, cz-q, q)
		g.emit(cx-q, cz+q, q)
		g.emit(cx+q, cz+q, q)
		return
	}

	// Fan around the centre, clockwise seen from above. An edge midpoint is
	// used only when the neighbour across that edge is finer, so it shares
	// the vertex.
	type offset struct{ x, z int }
	ring := [8]offset{{-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}}
	var fan [8]uint32
	n := 0
	for _, o := range ring {
		if (o.x == 0) != (o.z == 0) && !g.split(cx+2*hw*o.x, cz+2*hw*o.z) {
			continue
		}
		fan[n] = g.vertex(cx+hw*o.x, cz+hw*o.z)
		n++
	}
	center := g.vertex(cx, cz)
	for i := 0; i < n; i++ {
		g.indices = append(g.indices, center, fan[i], fan[(i+1)%n])
	}
}

func (g *LodGenerator) vertex(x, z int) uint32 {
	return uint32(z*g.hf.size + x)
}
