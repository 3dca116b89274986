package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagStatic       = flag.Bool("static", false, "Lock atmosphere parameters after first use")
	flagWindowed     = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen   = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth        = flag.Int("width", 0, "Window width")
	flagHeight       = flag.Int("height", 0, "Window height")
	flagSunElevation = flag.Float64("sun-elevation", -1000, "Sun elevation in degrees")
	flagSunAzimuth   = flag.Float64("sun-azimuth", -1000, "Sun azimuth in degrees")
	flagDayCycle     = flag.Bool("day-cycle", false, "Animate the sun over a day")
	flagTuning       = flag.String("tuning", "", "Serve live parameter tuning on this address")
	flagOutput       = flag.String("output", "", "Bake output directory")
	flagLayout       = flag.String("layout", "", "Bake layout: equirect or cubemap")
	flagFormat       = flag.String("format", "", "Bake image format: png or webp")
	flagSize         = flag.Int("size", 0, "Bake face size or panorama height")
)

// unsetAngle marks an angle flag that was not given.
const unsetAngle = -1000

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagStatic {
		cfg.Atmosphere.Mode = "static"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagSunElevation != unsetAngle {
		cfg.Atmosphere.SunElevation = *flagSunElevation
	}
	if *flagSunAzimuth != unsetAngle {
		cfg.Atmosphere.SunAzimuth = *flagSunAzimuth
	}
	if *flagDayCycle {
		cfg.Atmosphere.DayCycle.Enabled = true
	}
	if *flagTuning != "" {
		cfg.Tuning.Enabled = true
		cfg.Tuning.Addr = *flagTuning
	}
	if *flagOutput != "" {
		cfg.Bake.OutputDir = *flagOutput
	}
	if *flagLayout != "" {
		cfg.Bake.Layout = *flagLayout
	}
	if *flagFormat != "" {
		cfg.Bake.Format = *flagFormat
	}
	if *flagSize > 0 {
		cfg.Bake.Size = *flagSize
	}
}
