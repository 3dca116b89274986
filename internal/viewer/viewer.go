// Package viewer implements the interactive sky viewer loop.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/config"
	"github.com/Faultbox/midgard-sky/internal/engine/camera"
	"github.com/Faultbox/midgard-sky/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-sky/internal/engine/input"
	"github.com/Faultbox/midgard-sky/internal/engine/lighting"
	"github.com/Faultbox/midgard-sky/internal/engine/renderer"
	"github.com/Faultbox/midgard-sky/internal/engine/sky"
	"github.com/Faultbox/midgard-sky/internal/engine/window"
	"github.com/Faultbox/midgard-sky/internal/skybox"
	"github.com/Faultbox/midgard-sky/internal/tuning"
)

const title = "Midgard Sky"

// exposureStep scales exposure per key press.
const exposureStep = 1.25

// Viewer renders the sky model in a window.
type Viewer struct {
	cfg   *config.Config
	sched *atmosphere.Scheduler
	log   *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.FreeLookCamera
	sky      *sky.Pass
	capture  *framebuffer.Framebuffer
	shots    *skybox.Writer

	sun       *sunDriver
	sunPaused bool
	running   bool
}

// New creates the window and GPU resources. The scheduler's model is the
// only source of sky colors; the viewer never creates its own.
func New(cfg *config.Config, sched *atmosphere.Scheduler, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Stringer("mode", sched.Model().Mode()),
	)

	v := &Viewer{
		cfg:    cfg,
		sched:  sched,
		log:    log,
		input:  input.New(),
		camera: camera.NewFreeLookCamera(cfg.Graphics.FOV),
		shots:  skybox.NewWriter("screenshots", skybox.Format(cfg.Bake.Format)),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context created by the window.
	width, height := v.window.GetSize()
	v.renderer, err = renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.sky, err = sky.New(sched.Model(), sky.Config{
		LUTWidth:  cfg.Graphics.LUTWidth,
		LUTHeight: cfg.Graphics.LUTHeight,
		Exposure:  cfg.Graphics.Exposure,
	}, log.Named("sky"))
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create sky pass: %w", err)
	}

	if cfg.Atmosphere.DayCycle.Enabled {
		if sched.Model().Mode() == atmosphere.Static {
			log.Warn("day cycle disabled in static mode")
		} else {
			v.sun = newSunDriver(cfg.Atmosphere.DayCycleSettings(), sched)
		}
	}

	log.Info("viewer initialized")
	return v, nil
}

// Run executes the render loop until the window closes or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if v.cfg.Tuning.Enabled {
		srv := tuning.New(v.sched, v.cfg.Atmosphere, v.log.Named("tuning"))
		go func() {
			if err := srv.ListenAndServe(ctx, v.cfg.Tuning.Addr); err != nil {
				v.log.Error("tuning server stopped", zap.Error(err))
			}
		}()
	}

	v.running = true
	start := time.Now()
	lastTime := start
	frameCount := 0
	fpsTimer := start

	v.log.Info("starting render loop")

	for v.running && ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			break
		}
		screenshot := v.handleEvents()

		if v.sun != nil && !v.sunPaused {
			if _, err := v.sun.Step(now.Sub(start).Seconds()); err != nil {
				v.log.Warn("day cycle update rejected", zap.Error(err))
			}
		}

		// Parameters change only here, between frames. A rejected update is
		// logged by the scheduler and the frame keeps the previous state.
		frame, _ := v.sched.BeginFrame()

		if err := v.render(frame); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		if x, y, ok := v.input.Clicked(); ok {
			v.sampleAt(frame, x, y)
		}
		if screenshot {
			v.saveScreenshot(frame)
		}

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(statusTitle(frame, frameCount))
			v.log.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	v.log.Info("render loop stopped")
	return nil
}

// handleEvents applies this frame's input. Returns true when a screenshot
// was requested.
func (v *Viewer) handleEvents() bool {
	screenshot := false
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.GetSize())
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_F12:
				screenshot = true
			case sdl.SCANCODE_S:
				v.saveConfig()
			case sdl.SCANCODE_SPACE:
				v.sunPaused = !v.sunPaused
			case sdl.SCANCODE_EQUALS:
				v.sky.SetExposure(v.sky.Exposure() * exposureStep)
			case sdl.SCANCODE_MINUS:
				v.sky.SetExposure(v.sky.Exposure() / exposureStep)
			}
		}
	}

	if dx, dy := v.input.Drag(); dx != 0 || dy != 0 {
		v.camera.HandleDrag(dx, dy)
	}
	if wheel := v.input.Wheel(); wheel != 0 {
		v.camera.HandleZoom(wheel)
	}
	return screenshot
}

func (v *Viewer) render(frame atmosphere.Frame) error {
	v.renderer.Begin()
	if err := v.sky.Render(frame, v.camera.ViewProjection(v.renderer.Aspect())); err != nil {
		return err
	}
	v.renderer.End()
	return nil
}

// sampleAt logs the exact sky color under a window position.
func (v *Viewer) sampleAt(frame atmosphere.Frame, x, y int) {
	w, h := v.window.GetSize()
	ndcX, ndcY := toNDC(x, y, w, h)
	dir := v.camera.Ray(ndcX, ndcY, v.renderer.Aspect()).Float64().Normalize()

	c, err := frame.Evaluate(dir)
	if err != nil {
		v.log.Warn("sky sample failed", zap.Error(err))
		return
	}
	az, el := lighting.SunAngles(dir)
	v.log.Info("sky sample",
		zap.Float64("azimuth", az),
		zap.Float64("elevation", el),
		zap.Float32("r", c.R),
		zap.Float32("g", c.G),
		zap.Float32("b", c.B),
	)
}

// saveScreenshot renders the current view offscreen at the configured scale.
func (v *Viewer) saveScreenshot(frame atmosphere.Frame) {
	w, h := v.renderer.Size()
	scale := v.cfg.Graphics.ScreenshotScale
	w, h = w*scale, h*scale

	if v.capture == nil {
		fb, err := framebuffer.New(w, h)
		if err != nil {
			v.log.Error("screenshot failed", zap.Error(err))
			return
		}
		v.capture = fb
	}
	v.capture.Resize(w, h)
	w, h = v.capture.Size()

	pixels, err := v.capture.Capture(func() error {
		return v.sky.Render(frame, v.camera.ViewProjection(renderer.Aspect(w, h)))
	})
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	img, err := skybox.FromGLPixels(pixels, w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	path, err := v.shots.SaveScreenshot(img)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) saveConfig() {
	v.cfg.Atmosphere.FromParameters(v.sched.Latest())
	v.cfg.Graphics.Exposure = v.sky.Exposure()
	if err := v.cfg.Save(); err != nil {
		v.log.Error("failed to save config", zap.Error(err))
		return
	}
	v.log.Info("config saved", zap.String("dir", config.ConfigDir()))
}

// Close releases the window and GPU resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.capture != nil {
		v.capture.Destroy()
	}
	if v.sky != nil {
		v.sky.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// toNDC converts window pixel coordinates to normalized device coordinates.
func toNDC(x, y, width, height int) (float32, float32) {
	if width < 1 || height < 1 {
		return 0, 0
	}
	ndcX := (float32(x)+0.5)/float32(width)*2 - 1
	ndcY := 1 - (float32(y)+0.5)/float32(height)*2
	return ndcX, ndcY
}

func statusTitle(frame atmosphere.Frame, fps int) string {
	_, el := lighting.SunAngles(frame.Params.SunDirection)
	return fmt.Sprintf("%s | v%d | sun %.1f° | %d fps", title, frame.Version, el, fps)
}
