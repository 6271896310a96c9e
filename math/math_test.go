package math

import (
	"math"
	"testing"
)

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	result := v1.Add(v2)
	expected := NewVec3(5, 7, 9)
	if result != expected {
		t.Errorf("Add: expected %v, got %v", expected, result)
	}

	result = v2.Sub(v1)
	expected = NewVec3(3, 3, 3)
	if result != expected {
		t.Errorf("Sub: expected %v, got %v", expected, result)
	}

	dot := v1.Dot(v2)
	if dot != 32 {
		t.Errorf("Dot: expected 32, got %v", dot)
	}

	cross := Vec3Right.Cross(Vec3Up)
	if cross != Vec3Front {
		t.Errorf("Cross: expected %v, got %v", Vec3Front, cross)
	}
}

func TestVec3Normalize(t *testing.T) {
	normalized := NewVec3(3, 0, 0).Normalize()
	if normalized != NewVec3(1, 0, 0) {
		t.Errorf("Normalize: expected (1,0,0), got %v", normalized)
	}

	zero := Vec3Zero.Normalize()
	if zero != Vec3Zero {
		t.Errorf("Normalize: zero vector should stay zero, got %v", zero)
	}
}

func TestMat4IdentityMul(t *testing.T) {
	m := Mat4Translation(NewVec3(1, 2, 3)).Mul(Mat4Identity())
	if m != Mat4Translation(NewVec3(1, 2, 3)) {
		t.Errorf("Mul by identity changed the matrix: %v", m)
	}
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	if got := Vec3Zero.TransformCoord(m); got != translation {
		t.Errorf("TransformCoord: expected %v, got %v", translation, got)
	}
	if got := Vec3Up.TransformNormal(m); got != Vec3Up {
		t.Errorf("TransformNormal must ignore translation, got %v", got)
	}
}

func TestMat4RotationAxis(t *testing.T) {
	m := Mat4RotationAxis(Vec3Up, float32(math.Pi/2))
	got := Vec3Right.TransformNormal(m)
	if !got.ApproxEqual(NewVec3(0, 0, -1), 1e-5) {
		t.Errorf("RotationAxis: expected (0,0,-1), got %v", got)
	}

	if Mat4RotationAxis(Vec3Zero, 1) != Mat4Identity() {
		t.Error("RotationAxis with a zero axis should be identity")
	}
	if !Mat4RotationAxis(Vec3Up, 0.7).ApproxEqual(Mat4RotationY(0.7), 1e-6) {
		t.Error("RotationAxis(Y) should match RotationY")
	}
}

func TestMat4FromQuaternion(t *testing.T) {
	half := float32(0.35)
	q := Mat4FromQuaternion(0, float32(math.Sin(float64(half))), 0, float32(math.Cos(float64(half))))
	if !q.ApproxEqual(Mat4RotationY(2*half), 1e-6) {
		t.Errorf("quaternion about Y should match RotationY, got %v", q)
	}
}

func TestMat4LookAtLH(t *testing.T) {
	eye := NewVec3(0, 0, -5)
	m := Mat4LookAtLH(eye, Vec3Zero, Vec3Up)

	if got := eye.TransformCoord(m); !got.ApproxEqual(Vec3Zero, 1e-5) {
		t.Errorf("LookAtLH: eye should map to origin, got %v", got)
	}
	// the target lies straight ahead on +Z in view space
	if got := Vec3Zero.TransformCoord(m); !got.ApproxEqual(NewVec3(0, 0, 5), 1e-5) {
		t.Errorf("LookAtLH: target should map to (0,0,5), got %v", got)
	}
}

func TestMat4PerspectiveFovLHDepthRange(t *testing.T) {
	near, far := float32(1), float32(100)
	m := Mat4PerspectiveFovLH(float32(math.Pi/4), 4.0/3.0, near, far)

	if z := NewVec3(0, 0, near).TransformCoord(m).Z; math.Abs(float64(z)) > 1e-5 {
		t.Errorf("near plane should map to depth 0, got %v", z)
	}
	if z := NewVec3(0, 0, far).TransformCoord(m).Z; math.Abs(float64(z-1)) > 1e-5 {
		t.Errorf("far plane should map to depth 1, got %v", z)
	}
}

func TestMat4OrthographicLH(t *testing.T) {
	m := Mat4OrthographicLH(800, 600, 1, 101)
	got := NewVec3(400, -300, 51).TransformCoord(m)
	if !got.ApproxEqual(NewVec3(1, -1, 0.5), 1e-5) {
		t.Errorf("OrthographicLH: expected (1,-1,0.5), got %v", got)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4RotationY(0.3)
	m2 := Mat4Translation(NewVec3(1, 2, 3))

	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4RotationAxis(NewVec3(1, 2, 3).Normalize(), 0.7).
		Mul(Mat4Scale(NewVec3(2, 3, 4))).
		Mul(Mat4Translation(NewVec3(5, -6, 7)))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("regular matrix reported singular")
	}
	if !m.Mul(inv).ApproxEqual(Mat4Identity(), 1e-5) {
		t.Errorf("m × inverse = %v", m.Mul(inv))
	}

	proj := Mat4PerspectiveFovLH(0.8, 1.5, 1, 100)
	inv, ok = proj.Inverse()
	if !ok || !inv.Mul(proj).ApproxEqual(Mat4Identity(), 1e-4) {
		t.Errorf("projection inverse = %v, %v", inv, ok)
	}

	if _, ok := Mat4Scale(NewVec3(1, 0, 1)).Inverse(); ok {
		t.Error("singular matrix inverted")
	}
}
