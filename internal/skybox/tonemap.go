package skybox

import (
	"image/color"
	"math"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
)

// Tonemap maps linear HDR radiance to display sRGB with 1 - exp(-c*exposure).
func Tonemap(c atmosphere.Color, exposure float64) color.NRGBA {
	return color.NRGBA{
		R: encodeSRGB(1 - math.Exp(-float64(c.R)*exposure)),
		G: encodeSRGB(1 - math.Exp(-float64(c.G)*exposure)),
		B: encodeSRGB(1 - math.Exp(-float64(c.B)*exposure)),
		A: clamp8(float64(c.A) * 255),
	}
}

// encodeSRGB applies the sRGB transfer curve to a linear value in [0, 1].
func encodeSRGB(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v <= 0.0031308 {
		return clamp8(v * 12.92 * 255)
	}
	return clamp8((1.055*math.Pow(v, 1/2.4) - 0.055) * 255)
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
