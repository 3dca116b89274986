// Package atmosphere computes single-scattering sky colors for a planet
// surrounded by an exponential Rayleigh and Mie atmosphere.
package atmosphere

import (
	"fmt"
	"math"
)

// Evaluate returns the light scattered toward the origin along dir.
// dir must be normalized. The result depends only on its inputs.
func Evaluate(dir Vec3, p Parameters) (Color, error) {
	if err := p.Validate(); err != nil {
		return Color{}, err
	}
	if !dir.IsUnit(unitTolerance) {
		return Color{}, fmt.Errorf("%w: view direction %v is not normalized", ErrInvalidParameters, dir)
	}
	return scatter(dir, &p), nil
}

// scatter integrates in-scattered light along the view ray. p must be valid.
func scatter(dir Vec3, p *Parameters) Color {
	tNear, tFar, hit := intersectSphere(p.Origin, dir, p.AtmosphereRadius)
	if !hit || tFar <= 0 {
		return p.Background
	}

	start := math.Max(tNear, 0)
	end := tFar
	if ground, ok := groundDistance(p.Origin, dir, p.PlanetRadius); ok {
		end = math.Min(end, ground)
	}
	if end <= start {
		return Color{A: 1}
	}

	sun := p.SunDirection.Normalize()
	mu := dir.Dot(sun)
	phaseR := rayleighPhase(mu)
	phaseM := miePhase(mu, p.MieDirection)

	stepSize := (end - start) / float64(p.PrimarySteps)
	var viewR, viewM float64
	var totalR, totalM Vec3

	for i := 0; i < p.PrimarySteps; i++ {
		pos := p.Origin.Add(dir.Scale(start + stepSize*(float64(i)+0.5)))
		height := pos.Length() - p.PlanetRadius

		odR := math.Exp(-height/p.RayleighScaleHeight) * stepSize
		odM := math.Exp(-height/p.MieScaleHeight) * stepSize
		viewR += odR
		viewM += odM

		sunR, sunM, lit := sunDepth(pos, sun, p)
		if !lit {
			continue
		}

		tau := p.RayleighCoefficient.Scale(viewR + sunR).
			Add(Vec3{X: 1, Y: 1, Z: 1}.Scale(p.MieCoefficient * (viewM + sunM)))
		attn := tau.Scale(-1).Exp()

		totalR = totalR.Add(attn.Scale(odR))
		totalM = totalM.Add(attn.Scale(odM))
	}

	rgb := p.RayleighCoefficient.Mul(totalR).Scale(phaseR).
		Add(totalM.Scale(p.MieCoefficient * phaseM)).
		Scale(p.SunIntensity)

	return Color{
		R: nonNegative(rgb.X),
		G: nonNegative(rgb.Y),
		B: nonNegative(rgb.Z),
		A: 1,
	}
}

// sunDepth returns the Rayleigh and Mie optical depth from pos to the top of
// the atmosphere along the sun direction. lit is false when the planet
// blocks the sun.
func sunDepth(pos, sun Vec3, p *Parameters) (rayleigh, mie float64, lit bool) {
	if groundNear, _, ground := intersectSphere(pos, sun, p.PlanetRadius); ground && groundNear > 0 {
		return 0, 0, false
	}

	_, exit, hit := intersectSphere(pos, sun, p.AtmosphereRadius)
	if !hit || exit <= 0 {
		return 0, 0, true
	}

	stepSize := exit / float64(p.LightSteps)
	for j := 0; j < p.LightSteps; j++ {
		sample := pos.Add(sun.Scale(stepSize * (float64(j) + 0.5)))
		height := sample.Length() - p.PlanetRadius
		rayleigh += math.Exp(-height/p.RayleighScaleHeight) * stepSize
		mie += math.Exp(-height/p.MieScaleHeight) * stepSize
	}
	return rayleigh, mie, true
}

// intersectSphere intersects the ray origin+t*dir with a sphere of the given
// radius centred on the planet. near <= far when hit is true.
func intersectSphere(origin, dir Vec3, radius float64) (near, far float64, hit bool) {
	a := dir.Dot(dir)
	b := 2 * dir.Dot(origin)
	c := origin.Dot(origin) - radius*radius
	d := b*b - 4*a*c
	if d < 0 || a == 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(d)
	return (-b - sq) / (2 * a), (-b + sq) / (2 * a), true
}

// groundDistance returns how far the ray travels before entering the planet.
// An origin on the surface enters immediately when dir points inward.
func groundDistance(origin, dir Vec3, radius float64) (float64, bool) {
	near, far, hit := intersectSphere(origin, dir, radius)
	if !hit || far <= 0 {
		return 0, false
	}
	if near > 0 {
		return near, true
	}
	if dir.Dot(origin) < 0 {
		return 0, true
	}
	return 0, false
}

// rayleighPhase is the Rayleigh phase function for cos(theta) = mu.
func rayleighPhase(mu float64) float64 {
	return 3 / (16 * math.Pi) * (1 + mu*mu)
}

// miePhase is the Cornette-Shanks approximation with asymmetry g.
func miePhase(mu, g float64) float64 {
	gg := g * g
	denom := math.Pow(1+gg-2*mu*g, 1.5) * (2 + gg)
	return 3 / (8 * math.Pi) * ((1 - gg) * (1 + mu*mu)) / denom
}

func nonNegative(v float64) float32 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat32
	}
	return float32(v)
}
