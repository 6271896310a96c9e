package math

import "github.com/chewxy/math32"

// Mat4 is a row-major 4x4 matrix applied to row vectors (v' = v × M).
// Translation lives in row 3, matching the layout the GPU constant buffers
// expect.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				result[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return result
}

func (m Mat4) Transpose() Mat4 {
	return Mat4{
		{m[0][0], m[1][0], m[2][0], m[3][0]},
		{m[0][1], m[1][1], m[2][1], m[3][1]},
		{m[0][2], m[1][2], m[2][2], m[3][2]},
		{m[0][3], m[1][3], m[2][3], m[3][3]},
	}
}

// Column returns column j as a Vec4.
func (m Mat4) Column(j int) Vec4 {
	return Vec4{X: m[0][j], Y: m[1][j], Z: m[2][j], W: m[3][j]}
}

// ApproxEqual compares element-wise within eps.
func (m Mat4) ApproxEqual(other Mat4, eps float32) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math32.Abs(m[i][j]-other[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

func Mat4Translation(translation Vec3) Mat4 {
	m := Mat4Identity()
	m[3][0] = translation.X
	m[3][1] = translation.Y
	m[3][2] = translation.Z
	return m
}

func Mat4Scale(scale Vec3) Mat4 {
	m := Mat4Identity()
	m[0][0] = scale.X
	m[1][1] = scale.Y
	m[2][2] = scale.Z
	return m
}

func Mat4RotationX(angle float32) Mat4 {
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	return Mat4{
		{1, 0, 0, 0},
		{0, c, s, 0},
		{0, -s, c, 0},
		{0, 0, 0, 1},
	}
}

func Mat4RotationY(angle float32) Mat4 {
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

// Mat4RotationAxis rotates about an arbitrary axis. The axis is normalized
// first; a zero axis yields the identity.
func Mat4RotationAxis(axis Vec3, angle float32) Mat4 {
	if axis.LengthSqr() == 0 {
		return Mat4Identity()
	}
	axis = axis.Normalize()
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	t := 1 - c

	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{
		{t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0},
		{t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0},
		{t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0},
		{0, 0, 0, 1},
	}
}

// Mat4LookAtLH builds a left-handed view matrix (camera looks down +Z).
func Mat4LookAtLH(eye, target, up Vec3) Mat4 {
	zAxis := target.Sub(eye).Normalize()
	xAxis := up.Cross(zAxis).Normalize()
	yAxis := zAxis.Cross(xAxis)

	return Mat4{
		{xAxis.X, yAxis.X, zAxis.X, 0},
		{xAxis.Y, yAxis.Y, zAxis.Y, 0},
		{xAxis.Z, yAxis.Z, zAxis.Z, 0},
		{-xAxis.Dot(eye), -yAxis.Dot(eye), -zAxis.Dot(eye), 1},
	}
}

// Mat4PerspectiveFovLH maps view-space depth [near, far] to [0, 1].
func Mat4PerspectiveFovLH(fovY, aspect, near, far float32) Mat4 {
	yScale := 1 / math32.Tan(fovY/2)
	xScale := yScale / aspect
	q := far / (far - near)

	var m Mat4
	m[0][0] = xScale
	m[1][1] = yScale
	m[2][2] = q
	m[2][3] = 1
	m[3][2] = -q * near
	return m
}

// Mat4OrthographicLH is a centered orthographic projection of the given
// view volume size, depth mapped to [0, 1].
func Mat4OrthographicLH(width, height, near, far float32) Mat4 {
	m := Mat4Identity()
	m[0][0] = 2 / width
	m[1][1] = 2 / height
	m[2][2] = 1 / (far - near)
	m[3][2] = -near / (far - near)
	return m
}

// Mat4FromQuaternion returns the rotation of the unit quaternion
// (x, y, z, w) for row vectors.
func Mat4FromQuaternion(x, y, z, w float32) Mat4 {
	return Mat4{
		{1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0},
		{2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0},
		{2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0},
		{0, 0, 0, 1},
	}
}

// Inverse returns the inverse of m by Gauss-Jordan elimination with partial
// pivoting. ok is false for singular matrices, in which case the identity
// is returned.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	a := m
	inv = Mat4Identity()
	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math32.Abs(a[r][col]) > math32.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math32.Abs(a[pivot][col]) < 1e-12 {
			return Mat4Identity(), false
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		f := 1 / a[col][col]
		for j := 0; j < 4; j++ {
			a[col][j] *= f
			inv[col][j] *= f
		}
		for r := 0; r < 4; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			k := a[r][col]
			for j := 0; j < 4; j++ {
				a[r][j] -= k * a[col][j]
				inv[r][j] -= k * inv[col][j]
			}
		}
	}
	return inv, true
}
