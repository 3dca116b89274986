// Package config handles sky configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/engine/lighting"
)

// Config holds all settings.
type Config struct {
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Bake       BakeConfig       `yaml:"bake"`
	Tuning     TuningConfig     `yaml:"tuning"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AtmosphereConfig holds the physical sky settings. Distances are in metres.
type AtmosphereConfig struct {
	Mode string `yaml:"mode" json:"mode"` // "dynamic" or "static"

	SunAzimuth   float64 `yaml:"sun_azimuth" json:"sun_azimuth"`     // Degrees from +Z towards +X
	SunElevation float64 `yaml:"sun_elevation" json:"sun_elevation"` // Degrees above the horizon
	SunIntensity float64 `yaml:"sun_intensity" json:"sun_intensity"`

	RayleighCoefficient [3]float64 `yaml:"rayleigh_coefficient" json:"rayleigh_coefficient"`
	RayleighScaleHeight float64    `yaml:"rayleigh_scale_height" json:"rayleigh_scale_height"`
	MieCoefficient      float64    `yaml:"mie_coefficient" json:"mie_coefficient"`
	MieScaleHeight      float64    `yaml:"mie_scale_height" json:"mie_scale_height"`
	MieDirection        float64    `yaml:"mie_direction" json:"mie_direction"`

	PlanetRadius     float64 `yaml:"planet_radius" json:"planet_radius"`
	AtmosphereRadius float64 `yaml:"atmosphere_radius" json:"atmosphere_radius"`
	Altitude         float64 `yaml:"altitude" json:"altitude"` // Viewer height above the surface

	PrimarySteps int        `yaml:"primary_steps" json:"primary_steps"`
	LightSteps   int        `yaml:"light_steps" json:"light_steps"`
	Background   [4]float32 `yaml:"background" json:"background"`

	DayCycle DayCycleConfig `yaml:"day_cycle" json:"day_cycle"`
}

// DayCycleConfig animates the sun in dynamic mode.
type DayCycleConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	DayLength    float64 `yaml:"day_length" json:"day_length"` // Real seconds per simulated day
	MaxElevation float64 `yaml:"max_elevation" json:"max_elevation"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	Fullscreen      bool    `yaml:"fullscreen"`
	VSync           bool    `yaml:"vsync"`
	FOV             float32 `yaml:"fov"` // Vertical field of view in degrees
	LUTWidth        int     `yaml:"lut_width"`
	LUTHeight       int     `yaml:"lut_height"`
	Exposure        float32 `yaml:"exposure"`
	ScreenshotScale int     `yaml:"screenshot_scale"` // Screenshot size as a multiple of the window
}

// BakeConfig holds offline skybox export settings.
type BakeConfig struct {
	OutputDir   string  `yaml:"output_dir"`
	Layout      string  `yaml:"layout"` // "equirect" or "cubemap"
	Format      string  `yaml:"format"` // "png" or "webp"
	Size        int     `yaml:"size"`   // Face size, or panorama height
	Supersample int     `yaml:"supersample"`
	Exposure    float64 `yaml:"exposure"`
	Workers     int     `yaml:"workers"`
}

// TuningConfig holds the live parameter server settings.
type TuningConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Atmosphere: AtmosphereConfig{
			Mode:                "dynamic",
			SunAzimuth:          45,
			SunElevation:        35,
			SunIntensity:        22,
			RayleighCoefficient: [3]float64{5.5e-6, 13.0e-6, 22.4e-6},
			RayleighScaleHeight: 8e3,
			MieCoefficient:      21e-6,
			MieScaleHeight:      1.2e3,
			MieDirection:        0.758,
			PlanetRadius:        6371e3,
			AtmosphereRadius:    6471e3,
			Altitude:            1e3,
			PrimarySteps:        16,
			LightSteps:          8,
			Background:          [4]float32{0, 0, 0, 0},
			DayCycle: DayCycleConfig{
				Enabled:      false,
				DayLength:    120,
				MaxElevation: 60,
			},
		},
		Graphics: GraphicsConfig{
			Width:           1280,
			Height:          720,
			Fullscreen:      false,
			VSync:           true,
			FOV:             70,
			LUTWidth:        256,
			LUTHeight:       128,
			Exposure:        1,
			ScreenshotScale: 1,
		},
		Bake: BakeConfig{
			OutputDir:   "sky",
			Layout:      "equirect",
			Format:      "png",
			Size:        512,
			Supersample: 1,
			Exposure:    1,
			Workers:     0,
		},
		Tuning: TuningConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Parameters converts the settings to validated atmosphere parameters.
func (a AtmosphereConfig) Parameters() (atmosphere.Parameters, error) {
	p := atmosphere.Parameters{
		SunDirection: lighting.SunDirection(a.SunAzimuth, a.SunElevation),
		SunIntensity: a.SunIntensity,
		RayleighCoefficient: atmosphere.Vec3{
			X: a.RayleighCoefficient[0],
			Y: a.RayleighCoefficient[1],
			Z: a.RayleighCoefficient[2],
		},
		RayleighScaleHeight: a.RayleighScaleHeight,
		MieCoefficient:      a.MieCoefficient,
		MieScaleHeight:      a.MieScaleHeight,
		MieDirection:        a.MieDirection,
		PlanetRadius:        a.PlanetRadius,
		AtmosphereRadius:    a.AtmosphereRadius,
		Origin:              atmosphere.Vec3{Y: a.PlanetRadius + a.Altitude},
		PrimarySteps:        a.PrimarySteps,
		LightSteps:          a.LightSteps,
		Background: atmosphere.Color{
			R: a.Background[0],
			G: a.Background[1],
			B: a.Background[2],
			A: a.Background[3],
		},
	}
	if err := p.Validate(); err != nil {
		return atmosphere.Parameters{}, fmt.Errorf("atmosphere config: %w", err)
	}
	return p, nil
}

// ParsedMode returns the configured atmosphere mode.
func (a AtmosphereConfig) ParsedMode() (atmosphere.Mode, error) {
	return atmosphere.ParseMode(a.Mode)
}

// DayCycleSettings returns the sun path for the configured day cycle.
func (a AtmosphereConfig) DayCycleSettings() lighting.DayCycle {
	return lighting.DayCycle{
		Azimuth:      a.SunAzimuth,
		MaxElevation: a.DayCycle.MaxElevation,
		DayLength:    a.DayCycle.DayLength,
	}
}

// FromParameters updates the settings to describe p. Mode and day cycle
// settings are left untouched.
func (a *AtmosphereConfig) FromParameters(p atmosphere.Parameters) {
	a.SunAzimuth, a.SunElevation = lighting.SunAngles(p.SunDirection)
	a.SunIntensity = p.SunIntensity
	a.RayleighCoefficient = [3]float64{p.RayleighCoefficient.X, p.RayleighCoefficient.Y, p.RayleighCoefficient.Z}
	a.RayleighScaleHeight = p.RayleighScaleHeight
	a.MieCoefficient = p.MieCoefficient
	a.MieScaleHeight = p.MieScaleHeight
	a.MieDirection = p.MieDirection
	a.PlanetRadius = p.PlanetRadius
	a.AtmosphereRadius = p.AtmosphereRadius
	a.Altitude = p.Origin.Length() - p.PlanetRadius
	a.PrimarySteps = p.PrimarySteps
	a.LightSteps = p.LightSteps
	a.Background = [4]float32{p.Background.R, p.Background.G, p.Background.B, p.Background.A}
}

// Validate checks settings that cannot be fixed up later.
func (c *Config) Validate() error {
	if _, err := c.Atmosphere.ParsedMode(); err != nil {
		return err
	}
	if _, err := c.Atmosphere.Parameters(); err != nil {
		return err
	}
	switch c.Bake.Layout {
	case "equirect", "cubemap":
	default:
		return fmt.Errorf("unknown bake layout %q", c.Bake.Layout)
	}
	switch c.Bake.Format {
	case "png", "webp":
	default:
		return fmt.Errorf("unknown bake format %q", c.Bake.Format)
	}
	if c.Bake.Size < 1 || c.Bake.Supersample < 1 {
		return fmt.Errorf("bake size %d and supersample %d must be positive", c.Bake.Size, c.Bake.Supersample)
	}
	if c.Graphics.LUTWidth < 1 || c.Graphics.LUTHeight < 1 {
		return fmt.Errorf("LUT size %dx%d must be positive", c.Graphics.LUTWidth, c.Graphics.LUTHeight)
	}
	if c.Graphics.ScreenshotScale < 1 || c.Graphics.ScreenshotScale > 8 {
		return fmt.Errorf("screenshot scale %d must be between 1 and 8", c.Graphics.ScreenshotScale)
	}
	return nil
}
