package atmosphere

import (
	"context"
	"fmt"
	"math"

	"github.com/Faultbox/midgard-sky/internal/workpool"
)

// LUT is a precomputed lat-long (equirectangular) table of sky colors.
// Row 0 looks straight up, the last row straight down. Column 0 faces +Z and
// azimuth increases toward +X.
type LUT struct {
	Width   int
	Height  int
	Version uint64
	Pixels  []Color // Row-major, Width*Height entries
}

// BuildLUT evaluates params at every texel centre. workers <= 0 uses all CPUs.
func BuildLUT(ctx context.Context, params Parameters, width, height, workers int) (*LUT, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid LUT size %dx%d", width, height)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	lut := &LUT{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}

	err := workpool.Run(ctx, height, workers, func(y int) {
		v := (float64(y) + 0.5) / float64(height)
		row := lut.Pixels[y*width : (y+1)*width]
		for x := range row {
			u := (float64(x) + 0.5) / float64(width)
			row[x] = scatter(LatLongDirection(u, v), &params)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("building LUT: %w", err)
	}
	return lut, nil
}

// At returns the texel at (x, y). x wraps around, y is clamped.
func (l *LUT) At(x, y int) Color {
	x %= l.Width
	if x < 0 {
		x += l.Width
	}
	if y < 0 {
		y = 0
	}
	if y >= l.Height {
		y = l.Height - 1
	}
	return l.Pixels[y*l.Width+x]
}

// Sample bilinearly interpolates the table in direction dir.
func (l *LUT) Sample(dir Vec3) Color {
	u, v := LatLongCoords(dir)
	fx := u*float64(l.Width) - 0.5
	fy := v*float64(l.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	top := l.At(x0, y0).Lerp(l.At(x0+1, y0), tx)
	bottom := l.At(x0, y0+1).Lerp(l.At(x0+1, y0+1), tx)
	return top.Lerp(bottom, ty)
}

// Floats returns the RGBA channels as a flat slice for texture upload.
func (l *LUT) Floats() []float32 {
	out := make([]float32, 0, len(l.Pixels)*4)
	for _, c := range l.Pixels {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	return out
}

// LatLongDirection maps texture coordinates in [0, 1] to a unit direction.
func LatLongDirection(u, v float64) Vec3 {
	azimuth := u * 2 * math.Pi
	elevation := (0.5 - v) * math.Pi
	cosEl := math.Cos(elevation)
	return Vec3{
		X: cosEl * math.Sin(azimuth),
		Y: math.Sin(elevation),
		Z: cosEl * math.Cos(azimuth),
	}
}

// LatLongCoords is the inverse of LatLongDirection.
func LatLongCoords(dir Vec3) (u, v float64) {
	dir = dir.Normalize()
	azimuth := math.Atan2(dir.X, dir.Z)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
	}
	elevation := math.Asin(math.Max(-1, math.Min(1, dir.Y)))
	return azimuth / (2 * math.Pi), 0.5 - elevation/math.Pi
}
