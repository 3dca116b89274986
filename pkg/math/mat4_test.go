package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Perspective(float32(math.Pi/3), 1.5, 0.1, 10)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestPerspective(t *testing.T) {
	fov := float32(math.Pi / 4) // 45 degrees
	m := Perspective(fov, 1, 0.1, 100)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	m := LookAt(eye, Vec3{0, 0, 0}, Vec3{0, 1, 0})

	// The eye maps to the view-space origin.
	p := m.MulVec4(Vec4{eye.X, eye.Y, eye.Z, 1})
	if abs(p[0]) > 1e-5 || abs(p[1]) > 1e-5 || abs(p[2]) > 1e-5 || p[3] != 1 {
		t.Errorf("LookAt eye = %v, want origin", p)
	}

	// The view centre lies along -Z.
	c := m.MulVec4(Vec4{0, 0, 0, 1})
	if abs(c[0]) > 1e-5 || abs(c[2]+5) > 1e-5 {
		t.Errorf("LookAt centre = %v, want (0, 0, -5)", c)
	}
}

func TestMulVec4(t *testing.T) {
	m := Identity()
	m[12], m[13], m[14] = 10, 20, 30

	got := m.MulVec4(Vec4{1, 2, 3, 1})
	want := Vec4{11, 22, 33, 1}
	if got != want {
		t.Errorf("MulVec4 point = %v, want %v", got, want)
	}

	// Directions ignore translation.
	got = m.MulVec4(Vec4{1, 2, 3, 0})
	if got != (Vec4{1, 2, 3, 0}) {
		t.Errorf("MulVec4 direction = %v", got)
	}
}

func TestInverse(t *testing.T) {
	view := LookAt(Vec3{1, 2, 3}, Vec3{-2, 0.5, 4}, Vec3{0, 1, 0})
	m := Perspective(float32(math.Pi/3), 16.0/9.0, 0.1, 10).Mul(view)

	p := m.Mul(m.Inverse())
	id := Identity()
	for i := 0; i < 16; i++ {
		if abs(p[i]-id[i]) > 1e-4 {
			t.Errorf("M * M^-1 element %d = %f, want %f", i, p[i], id[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	if zero.Inverse() != Identity() {
		t.Error("singular matrix should invert to identity")
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
