package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test atmosphere defaults
	if cfg.Atmosphere.Mode != "dynamic" {
		t.Errorf("expected dynamic mode, got %s", cfg.Atmosphere.Mode)
	}
	if cfg.Atmosphere.MieDirection != 0.758 {
		t.Errorf("expected mie direction 0.758, got %f", cfg.Atmosphere.MieDirection)
	}
	if cfg.Atmosphere.PlanetRadius != 6371e3 {
		t.Errorf("expected planet radius 6371e3, got %f", cfg.Atmosphere.PlanetRadius)
	}
	if cfg.Atmosphere.PrimarySteps != 16 || cfg.Atmosphere.LightSteps != 8 {
		t.Errorf("expected 16/8 steps, got %d/%d", cfg.Atmosphere.PrimarySteps, cfg.Atmosphere.LightSteps)
	}

	// Test graphics defaults
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	// Test bake defaults
	if cfg.Bake.Layout != "equirect" || cfg.Bake.Format != "png" {
		t.Errorf("expected equirect png, got %s %s", cfg.Bake.Layout, cfg.Bake.Format)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestDefaultParameters(t *testing.T) {
	p, err := Default().Atmosphere.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if p.Origin.Y != 6372e3 {
		t.Errorf("expected origin 1km above the surface, got %v", p.Origin)
	}
	if !p.SunDirection.IsUnit(1e-9) {
		t.Errorf("sun direction should be unit, got %v", p.SunDirection)
	}
	if p.SunDirection.Y <= 0 {
		t.Error("default sun should be above the horizon")
	}
}

func TestParametersInvalid(t *testing.T) {
	cfg := Default()
	cfg.Atmosphere.MieDirection = 1
	if _, err := cfg.Atmosphere.Parameters(); !errors.Is(err, atmosphere.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate to fail")
	}
}

func TestFromParametersRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Atmosphere.SunAzimuth = 200
	cfg.Atmosphere.SunElevation = 12
	cfg.Atmosphere.Altitude = 2500

	p, err := cfg.Atmosphere.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}

	var back AtmosphereConfig
	back.FromParameters(p)

	if math.Abs(back.SunAzimuth-200) > 1e-6 || math.Abs(back.SunElevation-12) > 1e-6 {
		t.Errorf("sun angles = (%v, %v), want (200, 12)", back.SunAzimuth, back.SunElevation)
	}
	if math.Abs(back.Altitude-2500) > 1e-6 {
		t.Errorf("altitude = %v, want 2500", back.Altitude)
	}
	if back.MieDirection != cfg.Atmosphere.MieDirection {
		t.Errorf("mie direction = %v, want %v", back.MieDirection, cfg.Atmosphere.MieDirection)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"layout", func(c *Config) { c.Bake.Layout = "sphere" }},
		{"format", func(c *Config) { c.Bake.Format = "bmp" }},
		{"size", func(c *Config) { c.Bake.Size = 0 }},
		{"supersample", func(c *Config) { c.Bake.Supersample = 0 }},
		{"lut", func(c *Config) { c.Graphics.LUTWidth = 0 }},
		{"screenshot scale", func(c *Config) { c.Graphics.ScreenshotScale = 0 }},
		{"screenshot scale too large", func(c *Config) { c.Graphics.ScreenshotScale = 16 }},
		{"mode", func(c *Config) { c.Atmosphere.Mode = "frozen" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sky.yaml")

	yamlContent := `
atmosphere:
  mode: static
  sun_elevation: 5
  mie_direction: 0.5
  rayleigh_coefficient: [1.0e-6, 2.0e-6, 3.0e-6]
  day_cycle:
    enabled: true
    day_length: 30

graphics:
  width: 1920
  height: 1080
  fullscreen: true

bake:
  layout: cubemap
  format: webp
  size: 256

tuning:
  enabled: true
  addr: "0.0.0.0:9000"

logging:
  level: "debug"
  log_file: "sky.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Atmosphere.Mode != "static" {
		t.Errorf("expected static mode, got %s", cfg.Atmosphere.Mode)
	}
	if cfg.Atmosphere.SunElevation != 5 {
		t.Errorf("expected sun elevation 5, got %f", cfg.Atmosphere.SunElevation)
	}
	if cfg.Atmosphere.RayleighCoefficient != [3]float64{1e-6, 2e-6, 3e-6} {
		t.Errorf("unexpected rayleigh coefficient %v", cfg.Atmosphere.RayleighCoefficient)
	}
	if !cfg.Atmosphere.DayCycle.Enabled || cfg.Atmosphere.DayCycle.DayLength != 30 {
		t.Errorf("unexpected day cycle %+v", cfg.Atmosphere.DayCycle)
	}
	// Unset keys keep their defaults
	if cfg.Atmosphere.DayCycle.MaxElevation != 60 {
		t.Errorf("expected default max elevation, got %f", cfg.Atmosphere.DayCycle.MaxElevation)
	}
	if cfg.Atmosphere.PlanetRadius != 6371e3 {
		t.Errorf("expected default planet radius, got %f", cfg.Atmosphere.PlanetRadius)
	}

	if cfg.Graphics.Width != 1920 || !cfg.Graphics.Fullscreen {
		t.Errorf("unexpected graphics %+v", cfg.Graphics)
	}
	if cfg.Bake.Layout != "cubemap" || cfg.Bake.Format != "webp" || cfg.Bake.Size != 256 {
		t.Errorf("unexpected bake %+v", cfg.Bake)
	}
	if !cfg.Tuning.Enabled || cfg.Tuning.Addr != "0.0.0.0:9000" {
		t.Errorf("unexpected tuning %+v", cfg.Tuning)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "sky.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}

	mode, err := cfg.Atmosphere.ParsedMode()
	if err != nil || mode != atmosphere.Static {
		t.Errorf("ParsedMode = %v, %v; want static", mode, err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "typo.yaml")

	if err := os.WriteFile(configPath, []byte("atmosphere:\n  mie_dir: 0.2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for unknown key, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")

	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("empty file should load, got %v", err)
	}
	if cfg.Graphics.Width != 1280 {
		t.Error("empty file should keep defaults")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/sky.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create sky.yaml in current directory
	configPath := filepath.Join(tmpDir, "sky.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find sky.yaml in current directory")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "sky.yaml")

	cfg := Default()
	cfg.Atmosphere.SunElevation = 3
	cfg.Bake.Format = "webp"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Atmosphere.SunElevation != 3 || loaded.Bake.Format != "webp" {
		t.Errorf("saved values not restored: %+v", loaded)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "static flag",
			setup: func() {
				*flagStatic = true
			},
			verify: func(cfg *Config) {
				if cfg.Atmosphere.Mode != "static" {
					t.Errorf("expected static mode, got %s", cfg.Atmosphere.Mode)
				}
			},
			teardown: func() {
				*flagStatic = false
			},
		},
		{
			name: "sun flags",
			setup: func() {
				*flagSunElevation = 0
				*flagSunAzimuth = 270
			},
			verify: func(cfg *Config) {
				if cfg.Atmosphere.SunElevation != 0 || cfg.Atmosphere.SunAzimuth != 270 {
					t.Errorf("expected sun (270, 0), got (%v, %v)", cfg.Atmosphere.SunAzimuth, cfg.Atmosphere.SunElevation)
				}
			},
			teardown: func() {
				*flagSunElevation = unsetAngle
				*flagSunAzimuth = unsetAngle
			},
		},
		{
			name: "tuning flag",
			setup: func() {
				*flagTuning = ":9999"
			},
			verify: func(cfg *Config) {
				if !cfg.Tuning.Enabled || cfg.Tuning.Addr != ":9999" {
					t.Errorf("unexpected tuning %+v", cfg.Tuning)
				}
			},
			teardown: func() {
				*flagTuning = ""
			},
		},
		{
			name: "bake flags",
			setup: func() {
				*flagOutput = "out"
				*flagLayout = "cubemap"
				*flagFormat = "webp"
				*flagSize = 64
			},
			verify: func(cfg *Config) {
				if cfg.Bake.OutputDir != "out" || cfg.Bake.Layout != "cubemap" || cfg.Bake.Format != "webp" || cfg.Bake.Size != 64 {
					t.Errorf("unexpected bake %+v", cfg.Bake)
				}
			},
			teardown: func() {
				*flagOutput = ""
				*flagLayout = ""
				*flagFormat = ""
				*flagSize = 0
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
				*flagFullscreen = true
			},
			verify: func(cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
				*flagFullscreen = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sky.yaml")

	yamlContent := `
atmosphere:
  sun_elevation: 20
  sun_azimuth: 100
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagSunElevation = 40
	defer func() {
		*flagConfig = ""
		*flagSunElevation = unsetAngle
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Elevation from flag, azimuth from file
	if cfg.Atmosphere.SunElevation != 40 {
		t.Errorf("expected elevation 40 from flag, got %f", cfg.Atmosphere.SunElevation)
	}
	if cfg.Atmosphere.SunAzimuth != 100 {
		t.Errorf("expected azimuth 100 from file, got %f", cfg.Atmosphere.SunAzimuth)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sky.yaml")

	if err := os.WriteFile(configPath, []byte("atmosphere:\n  mie_direction: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, atmosphere.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}
