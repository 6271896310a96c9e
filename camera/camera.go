// Package camera keeps an orbiting look-at camera and derives the world,
// view and projection matrices the scenes upload each frame. It never
// touches the GPU.
package camera

import (
	"github.com/chewxy/math32"

	"render-toolkit/math"
)

const (
	defaultFOV      = math32.Pi / 4
	defaultNear     = 1
	defaultFar      = 10000
	defaultDistance = 600

	// minRadius keeps ScaleCamera from collapsing the eye onto the target.
	minRadius = 1e-3
)

// Camera orbits lookAt at distance radius. up, right and look form an
// orthonormal basis after every Move/Scale/Circle call.
type Camera struct {
	pos    math.Vec3
	lookAt math.Vec3
	up     math.Vec3
	right  math.Vec3
	look   math.Vec3
	radius float32

	world      math.Mat4
	view       math.Mat4
	projection math.Mat4
	ortho      math.Mat4

	width, height int
	fov           float32
	near, far     float32
}

// New places the eye 600 units behind the origin looking down +Z with +Y
// up, a 45° field of view and a 1..10000 depth range.
func New(width, height int) *Camera {
	c := &Camera{
		pos:    math.NewVec3(0, 0, -defaultDistance),
		lookAt: math.Vec3Zero,
		up:     math.Vec3Up,
		world:  math.Mat4Identity(),
		fov:    defaultFOV,
		near:   defaultNear,
		far:    defaultFar,
	}
	c.Resize(width, height)
	c.update()
	return c
}

// Resize rebuilds the perspective and orthographic projections. A zero
// height is treated as one pixel.
func (c *Camera) Resize(width, height int) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	c.width, c.height = width, height
	c.projection = math.Mat4PerspectiveFovLH(c.fov, float32(width)/float32(height), c.near, c.far)
	c.ortho = math.Mat4OrthographicLH(float32(width), float32(height), c.near, c.far)
}

// SetDepthRange changes the near and far planes.
func (c *Camera) SetDepthRange(near, far float32) {
	if near <= 0 || far <= near {
		return
	}
	c.near, c.far = near, far
	c.Resize(c.width, c.height)
}

// update re-derives the basis from pos, lookAt and the current up.
func (c *Camera) update() {
	offset := c.lookAt.Sub(c.pos)
	c.radius = offset.Length()
	c.look = offset.Normalize()
	c.right = c.up.Cross(c.look).Normalize()
	c.up = c.look.Cross(c.right).Normalize()
	c.view = math.Mat4LookAtLH(c.pos, c.lookAt, c.up)
}

// MoveCamera pans eye and target together in the view plane.
func (c *Camera) MoveCamera(dx, dy float32) {
	delta := c.right.Mul(dx).Add(c.up.Mul(dy))
	c.pos = c.pos.Add(delta)
	c.lookAt = c.lookAt.Add(delta)
	c.update()
}

// ScaleCamera multiplies the eye distance by factor, keeping it between
// minRadius and the far plane. Non-positive factors are ignored.
func (c *Camera) ScaleCamera(factor float32) {
	if factor <= 0 {
		return
	}
	r := min(max(c.radius*factor, minRadius), c.far)
	c.pos = c.lookAt.Sub(c.look.Mul(r))
	c.update()
}

// CircleCamera orbits the eye about the world Y axis through lookAt by
// dxAngle, then about the camera's right axis by dyAngle.
func (c *Camera) CircleCamera(dxAngle, dyAngle float32) {
	yaw := math.Mat4RotationAxis(math.Vec3Up, dxAngle)
	c.orbit(yaw)
	pitch := math.Mat4RotationAxis(c.right, dyAngle)
	c.orbit(pitch)
	c.update()
}

// CircleCamera2 orbits about the camera's own up axis, then about the
// right axis recomputed after the first turn.
func (c *Camera) CircleCamera2(dxAngle, dyAngle float32) {
	yaw := math.Mat4RotationAxis(c.up, dxAngle)
	c.orbit(yaw)
	c.right = c.up.Cross(c.look).Normalize()
	pitch := math.Mat4RotationAxis(c.right, dyAngle)
	c.orbit(pitch)
	c.update()
}

// orbit rotates the eye offset and the basis by rot.
func (c *Camera) orbit(rot math.Mat4) {
	offset := c.pos.Sub(c.lookAt).TransformNormal(rot)
	c.pos = c.lookAt.Add(offset)
	c.up = c.up.TransformNormal(rot).Normalize()
	c.look = c.look.TransformNormal(rot).Normalize()
	c.right = c.right.TransformNormal(rot).Normalize()
}

// SetCameraPosition moves the eye and keeps the stored up vector as is,
// even when the new viewing direction is no longer perpendicular to it.
// Only the view matrix is built from an orthogonalized basis.
func (c *Camera) SetCameraPosition(pos math.Vec3) {
	c.pos = pos
	c.retarget()
}

// SetCameraLookAt moves the target. Like SetCameraPosition it leaves up
// untouched.
func (c *Camera) SetCameraLookAt(lookAt math.Vec3) {
	c.lookAt = lookAt
	c.retarget()
}

func (c *Camera) retarget() {
	offset := c.lookAt.Sub(c.pos)
	c.radius = offset.Length()
	c.look = offset.Normalize()
	c.right = c.up.Cross(c.look).Normalize()
	c.view = math.Mat4LookAtLH(c.pos, c.lookAt, c.up)
}

// MoveWorld appends a translation to the world matrix.
func (c *Camera) MoveWorld(dx, dy, dz float32) {
	c.world = c.world.Mul(math.Mat4Translation(math.NewVec3(dx, dy, dz)))
}

// RotateWorld appends a turn about world Y by dxAngle and about world X
// by dyAngle to the world matrix.
func (c *Camera) RotateWorld(dxAngle, dyAngle float32) {
	c.world = c.world.Mul(math.Mat4RotationY(dxAngle)).Mul(math.Mat4RotationX(dyAngle))
}

// ResetWorld restores the identity world matrix.
func (c *Camera) ResetWorld() { c.world = math.Mat4Identity() }

// WVPMatrix returns world × view × projection.
func (c *Camera) WVPMatrix() math.Mat4 {
	return c.world.Mul(c.view).Mul(c.projection)
}

// WVOMatrix returns world × view × orthographic projection.
func (c *Camera) WVOMatrix() math.Mat4 {
	return c.world.Mul(c.view).Mul(c.ortho)
}

// ViewProjection is view × projection without the world transform.
func (c *Camera) ViewProjection() math.Mat4 {
	return c.view.Mul(c.projection)
}

// Ray returns the ray through window pixel (x, y), origin top-left, in the
// space the world matrix maps from. dir is normalized. ok is false when the
// transform cannot be inverted.
func (c *Camera) Ray(x, y float32) (origin, dir math.Vec3, ok bool) {
	inv, ok := c.WVPMatrix().Inverse()
	if !ok {
		return math.Vec3{}, math.Vec3{}, false
	}
	ndcX := 2*x/float32(c.width) - 1
	ndcY := 1 - 2*y/float32(c.height)
	near := math.NewVec4(ndcX, ndcY, 0, 1).MulMat(inv).ToVec3DivW()
	far := math.NewVec4(ndcX, ndcY, 0.5, 1).MulMat(inv).ToVec3DivW()
	return near, far.Sub(near).Normalize(), true
}

func (c *Camera) Position() math.Vec3 { return c.pos }
func (c *Camera) LookAt() math.Vec3 { return c.lookAt }
func (c *Camera) Up() math.Vec3 { return c.up }
func (c *Camera) Right() math.Vec3 { return c.right }
func (c *Camera) Look() math.Vec3 { return c.look }
func (c *Camera) Radius() float32 { return c.radius }
func (c *Camera) World() math.Mat4 { return c.world }
func (c *Camera) View() math.Mat4 { return c.view }
func (c *Camera) Projection() math.Mat4 { return c.projection }
func (c *Camera) Ortho() math.Mat4 { return c.ortho }
func (c *Camera) Size() (int, int) { return c.width, c.height }
func (c *Camera) FOV() float32 { return c.fov }
func (c *Camera) DepthRange() (n, f float32) { return c.near, c.far }
