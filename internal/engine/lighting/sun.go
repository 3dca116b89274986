// Package lighting provides sun positioning for the sky.
package lighting

import (
	"math"

	skymath "github.com/Faultbox/midgard-sky/pkg/math"
)

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the sun. Azimuth rotates around the Y axis starting at +Z,
// elevation is measured from the horizon.
func SunDirection(azimuth, elevation float64) skymath.Vec3d {
	azRad := azimuth * math.Pi / 180.0
	elRad := elevation * math.Pi / 180.0

	// Spherical to Cartesian conversion
	return skymath.Vec3d{
		X: math.Cos(elRad) * math.Sin(azRad),
		Y: math.Sin(elRad),
		Z: math.Cos(elRad) * math.Cos(azRad),
	}
}

// SunAngles is the inverse of SunDirection. Returns degrees.
func SunAngles(dir skymath.Vec3d) (azimuth, elevation float64) {
	dir = dir.Normalize()
	azimuth = math.Atan2(dir.X, dir.Z) * 180.0 / math.Pi
	if azimuth < 0 {
		azimuth += 360
	}
	elevation = math.Asin(math.Max(-1, math.Min(1, dir.Y))) * 180.0 / math.Pi
	return azimuth, elevation
}

// DayCycle moves the sun along a tilted circle over a 24 hour day.
type DayCycle struct {
	Azimuth      float64 // Direction of sunrise in degrees
	MaxElevation float64 // Noon elevation in degrees
	DayLength    float64 // Real seconds per simulated day
}

// DefaultDayCycle returns a cycle with a 60 degree noon sun and a two minute day.
func DefaultDayCycle() DayCycle {
	return DayCycle{
		Azimuth:      90,
		MaxElevation: 60,
		DayLength:    120,
	}
}

// Hour maps elapsed real seconds to the hour of day in [0, 24).
// The cycle starts at 06:00 so the first frame is sunrise.
func (d DayCycle) Hour(elapsed float64) float64 {
	if d.DayLength <= 0 {
		return 12
	}
	h := math.Mod(6+elapsed/d.DayLength*24, 24)
	if h < 0 {
		h += 24
	}
	return h
}

// At returns the sun direction at the given hour. The sun rises at 06:00,
// peaks at 12:00 and sets at 18:00.
func (d DayCycle) At(hour float64) skymath.Vec3d {
	// Angle travelled along the sun's circle since sunrise.
	angle := (hour - 6) / 24 * 2 * math.Pi
	tilt := d.MaxElevation * math.Pi / 180.0

	// Circle in the plane spanned by the sunrise direction and the tilted zenith.
	rise := SunDirection(d.Azimuth, 0)
	up := skymath.Vec3d{Y: 1}
	south := up.Cross(rise).Normalize()
	zenith := up.Scale(math.Sin(tilt)).Add(south.Scale(math.Cos(tilt)))

	return rise.Scale(math.Cos(angle)).Add(zenith.Scale(math.Sin(angle))).Normalize()
}
