package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/camera"
	"render-toolkit/math"
)

func flatField(t *testing.T, exponent int) *HeightField {
	t.Helper()
	size := 1<<exponent + 1
	hf, err := NewHeightFieldFrom(make([]float32, size*size), 1)
	require.NoError(t, err)
	return hf
}

func requireValidTriangles(t *testing.T, hf *HeightField, indices []uint32) {
	t.Helper()
	require.Zero(t, len(indices)%3)
	vertexCount := uint32(hf.Size() * hf.Size())
	for i := 0; i < len(indices); i += 3 {
		for _, idx := range indices[i : i+3] {
			require.Less(t, idx, vertexCount)
		}
		a, b, c := indices[i], indices[i+1], indices[i+2]
		require.True(t, a != b && b != c && a != c, "degenerate triangle at %d", i)
	}
}

func TestLodFlatFieldWindsUpward(t *testing.T) {
	hf := flatField(t, 4)
	g, err := NewLodGenerator(hf, 8, 20)
	require.NoError(t, err)

	indices := g.Generate(math.NewVec3(0, 5, 0), nil)
	requireValidTriangles(t, hf, indices)
	assert.LessOrEqual(t, len(indices), g.MaxIndexCount())

	vertices := hf.Vertices()
	for i := 0; i < len(indices); i += 3 {
		a := vertices[indices[i]].Position
		b := vertices[indices[i+1]].Position
		c := vertices[indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		require.Greater(t, n.Y, float32(0), "triangle %d faces down", i/3)
	}
}

func TestLodFarAwayIsRootOnly(t *testing.T) {
	hf := flatField(t, 4)
	g, err := NewLodGenerator(hf, 8, 20)
	require.NoError(t, err)

	indices := g.Generate(math.NewVec3(0, 1e6, 0), nil)
	assert.Len(t, indices, 12, "four corner triangles")
}

func TestLodShrinksWithDistance(t *testing.T) {
	hf, err := NewHeightField(6, 4, 64, 7)
	require.NoError(t, err)
	g, err := NewLodGenerator(hf, 4, 2)
	require.NoError(t, err)

	prev := -1
	counts := []int{}
	for _, height := range []float32{100, 400, 1600, 6400, 1e6} {
		indices := g.Generate(math.NewVec3(0, height, 0), nil)
		requireValidTriangles(t, hf, indices)
		n := len(indices)
		if prev >= 0 {
			assert.LessOrEqual(t, n, prev, "height %g", height)
		}
		prev = n
		counts = append(counts, n)
	}
	assert.Greater(t, counts[0], counts[len(counts)-1])
}

func TestLodFrustumCulling(t *testing.T) {
	hf := flatField(t, 4)
	g, err := NewLodGenerator(hf, 8, 20)
	require.NoError(t, err)

	cam := camera.New(640, 480)
	cam.SetCameraPosition(math.NewVec3(0, 50, -200))

	cam.SetCameraLookAt(math.Vec3Zero)
	f := FrustumFromVP(cam.ViewProjection())
	assert.NotEmpty(t, g.Generate(cam.Position(), &f))

	cam.SetCameraLookAt(math.NewVec3(0, 50, -1000))
	f = FrustumFromVP(cam.ViewProjection())
	assert.Empty(t, g.Generate(cam.Position(), &f))
}

func TestFrustumPlanes(t *testing.T) {
	cam := camera.New(800, 600)
	f := FrustumFromVP(cam.ViewProjection())

	for i, p := range f.Planes {
		assert.Greater(t, p.DistanceTo(math.Vec3Zero), float32(0), "plane %d", i)
		assert.InDelta(t, 1, p.Normal.Length(), 1e-4)
	}
	assert.Less(t, f.Planes[4].DistanceTo(math.NewVec3(0, 0, -700)), float32(0), "behind the eye")
	assert.Less(t, f.Planes[5].DistanceTo(math.NewVec3(0, 0, 20000)), float32(0), "past the far plane")

	inside := AABB{Min: math.NewVec3(-10, -10, -10), Max: math.NewVec3(10, 10, 10)}
	outside := AABB{Min: math.NewVec3(5000, 0, 0), Max: math.NewVec3(5010, 10, 10)}
	assert.True(t, inside.IntersectsFrustum(&f))
	assert.False(t, outside.IntersectsFrustum(&f))
}

func TestConstructorsValidate(t *testing.T) {
	_, err := NewHeightField(0, 1, 1, 0)
	assert.Error(t, err)
	_, err = NewHeightField(4, 0, 1, 0)
	assert.Error(t, err)
	_, err = NewHeightFieldFrom(make([]float32, 16), 1)
	assert.Error(t, err, "4x4 is not 2^n+1")

	_, err = NewLodGenerator(flatField(t, 2), 1, 1)
	assert.Error(t, err)
}

func TestHeightFieldIsDeterministic(t *testing.T) {
	a, err := NewHeightField(5, 2, 100, 3)
	require.NoError(t, err)
	b, err := NewHeightField(5, 2, 100, 3)
	require.NoError(t, err)
	assert.Equal(t, a.Vertices(), b.Vertices())

	assert.Equal(t, 33, a.Size())
	assert.Equal(t, float32(64), a.Extent())
	for _, v := range a.Vertices() {
		require.GreaterOrEqual(t, v.Position.Y, float32(0))
		require.LessOrEqual(t, v.Position.Y, float32(100))
		require.InDelta(t, 1, v.Normal.Length(), 1e-4)
		require.Greater(t, v.Normal.Y, float32(0))
	}
	assert.Equal(t, math.NewVec3(-32, a.At(0, 0), -32), a.Position(0, 0))
}
