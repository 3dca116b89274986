// Package sky draws the atmosphere behind the scene.
package sky

import (
	"context"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/engine/shader"
	"github.com/Faultbox/midgard-sky/pkg/math"
)

// Hook is called once per frame by the host with the frame's parameter
// snapshot and the camera transform.
type Hook interface {
	Render(frame atmosphere.Frame, viewProj math.Mat4) error
}

// Config holds sky pass settings.
type Config struct {
	LUTWidth  int
	LUTHeight int
	Exposure  float32
}

// Pass renders the sky as a full-screen triangle sampling a lat-long LUT.
type Pass struct {
	model *atmosphere.Model
	cfg   Config
	log   *zap.Logger

	program *shader.Program
	vao     uint32
	texture uint32

	uploaded uint64 // LUT version on the GPU
	hasLUT   bool
}

var _ Hook = (*Pass)(nil)

// New creates the GPU resources. Must be called with a current GL context.
func New(model *atmosphere.Model, cfg Config, log *zap.Logger) (*Pass, error) {
	if cfg.LUTWidth < 1 || cfg.LUTHeight < 1 {
		return nil, fmt.Errorf("invalid LUT size %dx%d", cfg.LUTWidth, cfg.LUTHeight)
	}
	if log == nil {
		log = zap.NewNop()
	}

	program, err := shader.Compile(vertexShader, fragmentShader, uniformNames...)
	if err != nil {
		return nil, fmt.Errorf("sky shader: %w", err)
	}

	p := &Pass{
		model:   model,
		cfg:     cfg,
		log:     log,
		program: program,
	}

	// Core profile needs a bound VAO even without attributes.
	gl.GenVertexArrays(1, &p.vao)

	gl.GenTextures(1, &p.texture)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	log.Debug("sky pass created",
		zap.Uint32("program", program.ID),
		zap.Int("lut_width", cfg.LUTWidth),
		zap.Int("lut_height", cfg.LUTHeight),
	)
	return p, nil
}

// SetExposure changes the tone mapping exposure.
func (p *Pass) SetExposure(exposure float32) {
	p.cfg.Exposure = exposure
}

// Exposure returns the tone mapping exposure.
func (p *Pass) Exposure() float32 {
	return p.cfg.Exposure
}

// Render draws the sky for frame behind everything already in the depth buffer.
func (p *Pass) Render(frame atmosphere.Frame, viewProj math.Mat4) error {
	if p.stale(frame.Version) {
		lut, err := p.model.SnapshotLUT(context.Background(), frame.Snapshot, p.cfg.LUTWidth, p.cfg.LUTHeight)
		if err != nil {
			return fmt.Errorf("sky LUT: %w", err)
		}
		p.upload(lut)
	}

	inv := viewProj.Inverse()

	gl.DepthMask(false)
	p.program.Use()
	gl.UniformMatrix4fv(p.program.Uniform("uInvViewProj"), 1, false, inv.Ptr())
	gl.Uniform1f(p.program.Uniform("uExposure"), p.cfg.Exposure)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.Uniform1i(p.program.Uniform("uLUT"), 0)

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.DepthMask(true)
	return nil
}

// stale reports whether the GPU copy is older than version.
func (p *Pass) stale(version uint64) bool {
	return !p.hasLUT || p.uploaded != version
}

func (p *Pass) upload(lut *atmosphere.LUT) {
	pixels := lut.Floats()
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(lut.Width), int32(lut.Height), 0, gl.RGBA, gl.FLOAT, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	p.uploaded = lut.Version
	p.hasLUT = true
	p.log.Debug("sky LUT uploaded", zap.Uint64("version", lut.Version))
}

// Close releases GPU resources.
func (p *Pass) Close() {
	if p.texture != 0 {
		gl.DeleteTextures(1, &p.texture)
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
	}
	if p.program != nil {
		p.program.Delete()
	}
}
