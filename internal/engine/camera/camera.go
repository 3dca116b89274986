// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-sky/pkg/math"
)

// FreeLookCamera rotates in place at the origin. Yaw 0 looks along +Z,
// positive yaw turns towards +X, positive pitch looks up.
type FreeLookCamera struct {
	Yaw   float32 // Radians
	Pitch float32 // Radians
	FOV   float32 // Vertical field of view in degrees

	Near, Far float32

	// Constraints
	MinPitch, MaxPitch float32
	MinFOV, MaxFOV     float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewFreeLookCamera creates a camera looking at the horizon.
func NewFreeLookCamera(fov float32) *FreeLookCamera {
	return &FreeLookCamera{
		Yaw:             0,
		Pitch:           0.2,
		FOV:             fov,
		Near:            0.1,
		Far:             10,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		MinFOV:          20,
		MaxFOV:          120,
		DragSensitivity: 0.005,
		ZoomSensitivity: 2,
	}
}

// Forward returns the unit view direction.
func (c *FreeLookCamera) Forward() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	return math.Vec3{
		X: float32(cp * gomath.Sin(float64(c.Yaw))),
		Y: float32(gomath.Sin(float64(c.Pitch))),
		Z: float32(cp * gomath.Cos(float64(c.Yaw))),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FreeLookCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(math.Vec3{}, c.Forward(), up)
}

// ProjectionMatrix returns the perspective projection for the given aspect ratio.
func (c *FreeLookCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	fovY := c.FOV * gomath.Pi / 180
	return math.Perspective(fovY, aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *FreeLookCamera) ViewProjection(aspect float32) math.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix())
}

// Ray returns the unit world direction through a point in normalized
// device coordinates, where (0, 0) is the screen centre.
func (c *FreeLookCamera) Ray(ndcX, ndcY, aspect float32) math.Vec3 {
	inv := c.ViewProjection(aspect).Inverse()
	p := inv.MulVec4(math.Vec4{ndcX, ndcY, 1, 1})
	if p[3] != 0 {
		p[0], p[1], p[2] = p[0]/p[3], p[1]/p[3], p[2]/p[3]
	}
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}.Normalize()
}

// HandleDrag updates yaw and pitch based on mouse drag delta.
func (c *FreeLookCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw += deltaX * c.DragSensitivity
	c.Pitch -= deltaY * c.DragSensitivity

	c.Yaw = float32(gomath.Remainder(float64(c.Yaw), 2*gomath.Pi))
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleZoom narrows or widens the field of view based on scroll wheel delta.
func (c *FreeLookCamera) HandleZoom(delta float32) {
	c.FOV -= delta * c.ZoomSensitivity
	if c.FOV < c.MinFOV {
		c.FOV = c.MinFOV
	}
	if c.FOV > c.MaxFOV {
		c.FOV = c.MaxFOV
	}
}
