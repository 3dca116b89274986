package atmosphere

import (
	"fmt"
	"strings"
)

// Mode controls whether parameters may change after the model is first used.
type Mode int

const (
	// Dynamic allows parameter updates between any two frames.
	Dynamic Mode = iota
	// Static locks parameters after the first evaluation so lookup data can
	// be cached for the lifetime of the model.
	Static
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dynamic":
		return Dynamic, nil
	case "static":
		return Static, nil
	default:
		return Dynamic, fmt.Errorf("unknown atmosphere mode %q", s)
	}
}
