package atmosphere

import "errors"

var (
	// ErrInvalidParameters is returned when a parameter set or view direction
	// is out of range. The caller keeps its previous valid state.
	ErrInvalidParameters = errors.New("invalid atmosphere parameters")

	// ErrStaticModeViolation is returned when parameters are updated after a
	// static model has been evaluated.
	ErrStaticModeViolation = errors.New("static atmosphere cannot be updated after first evaluation")
)
