package camera

import (
	"math/rand/v2"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-toolkit/math"
)

const eps = 1e-4

func requireOrthonormal(t *testing.T, c *Camera, step int) {
	t.Helper()
	up, right, look := c.Up(), c.Right(), c.Look()
	require.InDelta(t, 1, up.Length(), eps, "step %d: |up|", step)
	require.InDelta(t, 1, right.Length(), eps, "step %d: |right|", step)
	require.InDelta(t, 1, look.Length(), eps, "step %d: |look|", step)
	require.InDelta(t, 0, up.Dot(right), eps, "step %d: up·right", step)
	require.InDelta(t, 0, up.Dot(look), eps, "step %d: up·look", step)
	require.InDelta(t, 0, right.Dot(look), eps, "step %d: right·look", step)
}

func TestConstructorState(t *testing.T) {
	c := New(800, 600)
	assert.Equal(t, math.NewVec3(0, 0, -600), c.Position())
	assert.Equal(t, math.Vec3Zero, c.LookAt())
	assert.True(t, c.Look().ApproxEqual(math.Vec3Front, eps))
	assert.True(t, c.Up().ApproxEqual(math.Vec3Up, eps))
	assert.True(t, c.Right().ApproxEqual(math.Vec3Right, eps))
	assert.InDelta(t, 600, c.Radius(), eps)
	w, h := c.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestWVPAfterConstruction(t *testing.T) {
	c := New(800, 600)

	view := math.Mat4LookAtLH(math.NewVec3(0, 0, -600), math.Vec3Zero, math.Vec3Up)
	proj := math.Mat4PerspectiveFovLH(math32.Pi/4, 800.0/600.0, 1, 10000)
	want := math.Mat4Identity().Mul(view).Mul(proj)

	assert.True(t, c.WVPMatrix().ApproxEqual(want, 1e-6))

	ortho := math.Mat4OrthographicLH(800, 600, 1, 10000)
	assert.True(t, c.WVOMatrix().ApproxEqual(math.Mat4Identity().Mul(view).Mul(ortho), 1e-6))
}

func TestOriginProjectsToCenter(t *testing.T) {
	c := New(640, 480)
	clip := math.Vec3Zero.ToVec4(1).MulMat(c.WVPMatrix())
	ndc := clip.ToVec3DivW()
	assert.InDelta(t, 0, ndc.X, eps)
	assert.InDelta(t, 0, ndc.Y, eps)
	assert.Greater(t, ndc.Z, float32(0))
	assert.Less(t, ndc.Z, float32(1))
}

func TestBasisStaysOrthonormal(t *testing.T) {
	c := New(800, 600)
	rng := rand.New(rand.NewPCG(1, 2))
	angle := func() float32 { return (rng.Float32() - 0.5) * math32.Pi / 2 }

	for i := 0; i < 500; i++ {
		switch rng.IntN(4) {
		case 0:
			c.MoveCamera((rng.Float32()-0.5)*200, (rng.Float32()-0.5)*200)
		case 1:
			c.ScaleCamera(0.5 + rng.Float32())
		case 2:
			c.CircleCamera2(angle(), angle())
		case 3:
			c.CircleCamera(angle(), angle())
		}
		requireOrthonormal(t, c, i)
	}
}

func TestScaleCameraKeepsTarget(t *testing.T) {
	c := New(800, 600)
	c.CircleCamera(0.3, 0.2)
	look := c.Look()

	c.ScaleCamera(0.5)
	assert.InDelta(t, 300, c.Radius(), 1e-2)
	assert.Equal(t, math.Vec3Zero, c.LookAt())
	assert.True(t, c.Look().ApproxEqual(look, eps))

	c.ScaleCamera(0)
	assert.InDelta(t, 300, c.Radius(), 1e-2, "non-positive factor is ignored")
}

func TestScaleCameraStopsAtFarPlane(t *testing.T) {
	c := New(800, 600)
	c.CircleCamera(0.3, 0.2)
	for i := 0; i < 100; i++ {
		c.ScaleCamera(2)
		requireOrthonormal(t, c, i)
	}
	_, far := c.DepthRange()
	assert.InDelta(t, far, c.Radius(), 1)

	c.ScaleCamera(0.5)
	c.CircleCamera2(0.1, 0.1)
	requireOrthonormal(t, c, 100)
	assert.InDelta(t, far/2, c.Radius(), 1)
	assert.False(t, math32.IsNaN(c.Position().X))
}

func TestMoveCameraPansTarget(t *testing.T) {
	c := New(800, 600)
	c.MoveCamera(10, 20)
	assert.True(t, c.LookAt().ApproxEqual(math.NewVec3(10, 20, 0), eps))
	assert.True(t, c.Position().ApproxEqual(math.NewVec3(10, 20, -600), eps))
	assert.InDelta(t, 600, c.Radius(), eps)
}

func TestCircleCameraKeepsRadius(t *testing.T) {
	c := New(800, 600)
	c.CircleCamera(math32.Pi/2, 0)
	assert.InDelta(t, 600, c.Radius(), 1e-2)
	assert.InDelta(t, 0, c.Position().Y, 1e-2, "yaw stays in the horizontal plane")
	assert.True(t, c.Up().ApproxEqual(math.Vec3Up, eps))

	c.CircleCamera2(0, 0.4)
	assert.InDelta(t, 600, c.Radius(), 1e-2)
	assert.NotZero(t, c.Position().Y)
}

func TestSetCameraPositionKeepsUp(t *testing.T) {
	c := New(800, 600)
	c.SetCameraPosition(math.NewVec3(0, 300, -300))

	assert.Equal(t, math.Vec3Up, c.Up(), "up is not re-derived")
	assert.InDelta(t, math32.Sqrt(2)*300, c.Radius(), 1e-2)
	assert.NotZero(t, c.Up().Dot(c.Look()))

	c.SetCameraLookAt(math.NewVec3(0, 300, 0))
	assert.Equal(t, math.Vec3Up, c.Up())
	assert.True(t, c.Look().ApproxEqual(math.Vec3Front, eps))
}

func TestWorldTransforms(t *testing.T) {
	c := New(800, 600)
	c.MoveWorld(1, 2, 3)
	p := math.Vec3Zero.TransformCoord(c.World())
	assert.True(t, p.ApproxEqual(math.NewVec3(1, 2, 3), eps))

	c.ResetWorld()
	c.RotateWorld(math32.Pi/2, 0)
	assert.True(t, math.Vec3Right.TransformNormal(c.World()).ApproxEqual(math.NewVec3(0, 0, -1), eps))
	assert.True(t, c.WVPMatrix().ApproxEqual(c.World().Mul(c.ViewProjection()), 1e-3))
}

func TestResizeRejectsZero(t *testing.T) {
	c := New(0, 0)
	w, h := c.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	c.SetDepthRange(10, 5)
	n, f := c.DepthRange()
	assert.Equal(t, float32(1), n)
	assert.Equal(t, float32(10000), f)
}

func TestRayThroughCentre(t *testing.T) {
	c := New(800, 600)
	origin, dir, ok := c.Ray(400, 300)
	require.True(t, ok)
	assert.True(t, dir.ApproxEqual(c.Look(), 1e-3), "centre ray follows the view direction: %v", dir)
	assert.InDelta(t, 1, origin.Distance(c.Position()), 1e-2, "starts on the near plane")

	_, dir, ok = c.Ray(0, 300)
	require.True(t, ok)
	assert.Negative(t, dir.X, "left edge ray points left")

	c.MoveWorld(100, 0, 0)
	origin, dir, ok = c.Ray(400, 300)
	require.True(t, ok)
	assert.InDelta(t, -100, origin.X, 1e-2, "rays live in object space")
	assert.True(t, dir.ApproxEqual(c.Look(), 1e-3))
}
