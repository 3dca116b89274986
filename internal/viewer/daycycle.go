package viewer

import (
	"math"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/engine/lighting"
)

// minSunStep is the smallest sun movement, in radians, worth a LUT rebuild.
const minSunStep = 0.1 * math.Pi / 180

// sunDriver moves the sun along a day cycle by submitting parameter updates.
type sunDriver struct {
	cycle lighting.DayCycle
	sched *atmosphere.Scheduler

	last    atmosphere.Vec3
	hasLast bool
}

func newSunDriver(cycle lighting.DayCycle, sched *atmosphere.Scheduler) *sunDriver {
	return &sunDriver{cycle: cycle, sched: sched}
}

// Step queues the sun position for elapsed seconds of real time. It reports
// whether an update was submitted.
func (d *sunDriver) Step(elapsed float64) (bool, error) {
	dir := d.cycle.At(d.cycle.Hour(elapsed))
	if d.hasLast && angleBetween(dir, d.last) < minSunStep {
		return false, nil
	}

	p := d.sched.Latest()
	p.SunDirection = dir
	if err := d.sched.Submit(p); err != nil {
		return false, err
	}
	d.last = dir
	d.hasLast = true
	return true, nil
}

func angleBetween(a, b atmosphere.Vec3) float64 {
	return math.Acos(math.Max(-1, math.Min(1, a.Dot(b))))
}
