package atmosphere

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-sky/pkg/math"
)

const (
	// MaxSteps bounds PrimarySteps and LightSteps.
	MaxSteps = 256

	// unitTolerance is the allowed deviation from length 1 for direction inputs.
	unitTolerance = 1e-3
)

// Parameters is an immutable snapshot of the physical atmosphere settings.
// Distances are in metres, scattering coefficients in 1/m.
type Parameters struct {
	SunDirection Vec3
	SunIntensity float64

	RayleighCoefficient Vec3
	RayleighScaleHeight float64

	MieCoefficient float64
	MieScaleHeight float64
	MieDirection   float64 // Asymmetry factor g, strictly inside (-1, 1)

	PlanetRadius     float64
	AtmosphereRadius float64

	// Origin is the ray origin relative to the planet centre.
	Origin Vec3

	PrimarySteps int // Samples along the view ray
	LightSteps   int // Samples along each sun ray

	// Background is returned for rays that never enter the atmosphere.
	Background Color
}

// Vec3 is the double precision vector used by the integrator.
type Vec3 = math.Vec3d

// DefaultParameters returns an Earth-like atmosphere seen from 1 km above
// the surface with the sun at (1, 1, 1).
func DefaultParameters() Parameters {
	return Parameters{
		SunDirection:        Vec3{X: 1, Y: 1, Z: 1}.Normalize(),
		SunIntensity:        22.0,
		RayleighCoefficient: Vec3{X: 5.5e-6, Y: 13.0e-6, Z: 22.4e-6},
		RayleighScaleHeight: 8e3,
		MieCoefficient:      21e-6,
		MieScaleHeight:      1.2e3,
		MieDirection:        0.758,
		PlanetRadius:        6371e3,
		AtmosphereRadius:    6471e3,
		Origin:              Vec3{X: 0, Y: 6372e3, Z: 0},
		PrimarySteps:        16,
		LightSteps:          8,
		Background:          Color{},
	}
}

// Validate checks every invariant and returns an error wrapping
// ErrInvalidParameters that names the first offending field.
func (p Parameters) Validate() error {
	if !p.SunDirection.IsUnit(unitTolerance) {
		return invalid("sun_direction %v is not a unit vector", p.SunDirection)
	}
	if !positive(p.SunIntensity) {
		return invalid("sun_intensity %v must be positive", p.SunIntensity)
	}
	if !p.RayleighCoefficient.IsFinite() ||
		p.RayleighCoefficient.X < 0 || p.RayleighCoefficient.Y < 0 || p.RayleighCoefficient.Z < 0 {
		return invalid("rayleigh_coefficient %v must be non-negative", p.RayleighCoefficient)
	}
	if !positive(p.RayleighScaleHeight) {
		return invalid("rayleigh_scale_height %v must be positive", p.RayleighScaleHeight)
	}
	if !finite(p.MieCoefficient) || p.MieCoefficient < 0 {
		return invalid("mie_coefficient %v must be non-negative", p.MieCoefficient)
	}
	if !positive(p.MieScaleHeight) {
		return invalid("mie_scale_height %v must be positive", p.MieScaleHeight)
	}
	// Written as a negated range so NaN is rejected too.
	if !(p.MieDirection > -1 && p.MieDirection < 1) {
		return invalid("mie_direction %v must be strictly between -1 and 1", p.MieDirection)
	}
	if !positive(p.PlanetRadius) {
		return invalid("planet_radius %v must be positive", p.PlanetRadius)
	}
	if !finite(p.AtmosphereRadius) || p.AtmosphereRadius <= p.PlanetRadius {
		return invalid("atmosphere_radius %v must exceed planet_radius %v", p.AtmosphereRadius, p.PlanetRadius)
	}
	if !p.Origin.IsFinite() || p.Origin.Length() < p.PlanetRadius {
		return invalid("origin %v lies inside the planet", p.Origin)
	}
	if p.PrimarySteps < 1 || p.PrimarySteps > MaxSteps {
		return invalid("primary_steps %d outside [1, %d]", p.PrimarySteps, MaxSteps)
	}
	if p.LightSteps < 1 || p.LightSteps > MaxSteps {
		return invalid("light_steps %d outside [1, %d]", p.LightSteps, MaxSteps)
	}
	if !p.Background.IsValid() || p.Background.A > 1 {
		return invalid("background %v must be finite, non-negative with alpha <= 1", p.Background)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidParameters}, args...)...)
}

func finite(f float64) bool {
	return !gomath.IsNaN(f) && !gomath.IsInf(f, 0)
}

func positive(f float64) bool {
	return finite(f) && f > 0
}
