package math

import "math"

// Vec3d is a double precision 3D vector.
// Used where float32 loses too much precision, e.g. planet-scale distances.
type Vec3d struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3d) Add(other Vec3d) Vec3d {
	return Vec3d{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3d) Sub(other Vec3d) Vec3d {
	return Vec3d{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3d) Scale(s float64) Vec3d {
	return Vec3d{v.X * s, v.Y * s, v.Z * s}
}

// Mul returns the component-wise product.
func (v Vec3d) Mul(other Vec3d) Vec3d {
	return Vec3d{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// Dot returns the dot product.
func (v Vec3d) Dot(other Vec3d) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3d) Cross(other Vec3d) Vec3d {
	return Vec3d{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3d) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector.
func (v Vec3d) Normalize() Vec3d {
	l := v.Length()
	if l == 0 {
		return Vec3d{}
	}
	return Vec3d{v.X / l, v.Y / l, v.Z / l}
}

// Exp returns the component-wise natural exponential.
func (v Vec3d) Exp() Vec3d {
	return Vec3d{math.Exp(v.X), math.Exp(v.Y), math.Exp(v.Z)}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3d) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// IsUnit reports whether the vector length is within tolerance of 1.
func (v Vec3d) IsUnit(tolerance float64) bool {
	return v.IsFinite() && math.Abs(v.Length()-1) <= tolerance
}

// Float32 converts to a single precision Vec3.
func (v Vec3d) Float32() Vec3 {
	return Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Float64 converts to a double precision Vec3d.
func (v Vec3) Float64() Vec3d {
	return Vec3d{float64(v.X), float64(v.Y), float64(v.Z)}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
