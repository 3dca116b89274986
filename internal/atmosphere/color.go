package atmosphere

import "math"

// Color is a linear RGB color with alpha.
type Color struct {
	R, G, B, A float32
}

// Add returns the channel-wise sum.
func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B, c.A + other.A}
}

// Scale multiplies every channel by s.
func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Lerp interpolates between c and other.
func (c Color) Lerp(other Color, t float32) Color {
	return c.Scale(1 - t).Add(other.Scale(t))
}

// IsValid reports whether all channels are finite and non-negative.
func (c Color) IsValid() bool {
	for _, v := range [4]float32{c.R, c.G, c.B, c.A} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return false
		}
	}
	return true
}
