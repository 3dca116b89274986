package atmosphere

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Snapshot is a read-only parameter set with the version it was published as.
type Snapshot struct {
	Params  Parameters
	Version uint64
}

// Model owns the active atmosphere parameters for one host.
//
// Evaluations read an immutable snapshot and may run concurrently. Updates
// are serialized and, in Static mode, refused once anything has been evaluated.
type Model struct {
	mode Mode

	mu        sync.Mutex // serializes Update and the static lock
	current   atomic.Pointer[Snapshot]
	evaluated atomic.Bool

	lutMu     sync.Mutex
	lut       *LUT
	lutParams Parameters
}

// NewModel creates a model with the given mode and initial parameters.
func NewModel(mode Mode, params Parameters) (*Model, error) {
	if mode != Dynamic && mode != Static {
		return nil, fmt.Errorf("unknown mode %v", mode)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m := &Model{mode: mode}
	m.current.Store(&Snapshot{Params: params, Version: 1})
	return m, nil
}

// Mode returns the model's mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// Locked reports whether the parameters can no longer change.
func (m *Model) Locked() bool {
	return m.mode == Static && m.evaluated.Load()
}

// Snapshot returns the active parameter snapshot.
func (m *Model) Snapshot() Snapshot {
	return *m.current.Load()
}

// Update replaces the active parameters. The previous parameters stay
// active when an error is returned.
func (m *Model) Update(params Parameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Locked() {
		return fmt.Errorf("%w: parameters were fixed at version %d", ErrStaticModeViolation, m.current.Load().Version)
	}
	if err := params.Validate(); err != nil {
		return err
	}

	prev := m.current.Load()
	m.current.Store(&Snapshot{Params: params, Version: prev.Version + 1})
	return nil
}

// Evaluate returns the sky color along dir for the active parameters.
func (m *Model) Evaluate(dir Vec3) (Color, error) {
	if !dir.IsUnit(unitTolerance) {
		return Color{}, fmt.Errorf("%w: view direction %v is not normalized", ErrInvalidParameters, dir)
	}
	return m.Acquire().Evaluate(dir)
}

// LUT returns a lat-long lookup table of the active parameters.
// Static models build it once; dynamic models rebuild it whenever the
// parameter version changes.
func (m *Model) LUT(ctx context.Context, width, height int) (*LUT, error) {
	return m.SnapshotLUT(ctx, m.Acquire(), width, height)
}

// SnapshotLUT returns a lookup table of s, such as the snapshot of the frame
// being rendered, even if the model has moved on since. The table is cached
// until a different snapshot is requested.
func (m *Model) SnapshotLUT(ctx context.Context, s Snapshot, width, height int) (*LUT, error) {
	m.lutMu.Lock()
	defer m.lutMu.Unlock()

	if m.lut != nil && m.lut.Width == width && m.lut.Height == height &&
		m.lut.Version == s.Version && m.lutParams == s.Params {
		return m.lut, nil
	}

	lut, err := BuildLUT(ctx, s.Params, width, height, 0)
	if err != nil {
		return nil, err
	}
	lut.Version = s.Version
	m.lut = lut
	m.lutParams = s.Params
	return lut, nil
}

// Acquire returns the snapshot for a batch of evaluations, such as one
// frame, and records that the model has been used. The first static
// acquisition takes the update lock so no Update can slip in between the
// snapshot load and the lock.
func (m *Model) Acquire() Snapshot {
	if m.mode == Static && !m.evaluated.Load() {
		m.mu.Lock()
		m.evaluated.Store(true)
		s := m.current.Load()
		m.mu.Unlock()
		return *s
	}
	m.evaluated.Store(true)
	return *m.current.Load()
}

// Evaluate returns the sky color along dir for the snapshot's parameters.
// Snapshots built outside a Model are validated like any other input.
func (s Snapshot) Evaluate(dir Vec3) (Color, error) {
	return Evaluate(dir, s.Params)
}
