package atmosphere

import (
	"sync"

	"go.uber.org/zap"
)

// Frame is the parameter state a host renders one frame with.
type Frame struct {
	Snapshot
	Index   uint64 // Frame counter, starting at 1
	Applied bool   // True when a pending update was applied at this boundary
}

// Scheduler defers parameter updates to frame boundaries.
// Submit may be called from any goroutine; BeginFrame belongs to the render loop.
type Scheduler struct {
	model *Model
	log   *zap.Logger

	mu      sync.Mutex
	pending *Parameters
	frame   uint64
}

// NewScheduler creates a scheduler for model. A nil logger discards output.
func NewScheduler(model *Model, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{model: model, log: log}
}

// Model returns the scheduled model.
func (s *Scheduler) Model() *Model {
	return s.model
}

// Submit queues params for the next frame boundary. Later submissions
// replace earlier ones. Invalid parameters and updates to a locked static
// model are rejected immediately.
func (s *Scheduler) Submit(params Parameters) error {
	if s.model.Locked() {
		return ErrStaticModeViolation
	}
	if err := params.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = &params
	s.mu.Unlock()
	return nil
}

// Pending reports whether an update is waiting for the next frame.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Latest returns the parameters the next frame will use.
func (s *Scheduler) Latest() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return *s.pending
	}
	return s.model.Snapshot().Params
}

// BeginFrame applies the pending update, if any, and returns the state to
// render with. Rendering counts as use, so a static model is locked from the
// first frame on. When the update fails the frame still carries the previous
// valid parameters alongside the error.
func (s *Scheduler) BeginFrame() (Frame, error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.frame++
	index := s.frame
	s.mu.Unlock()

	var err error
	applied := false
	if pending != nil {
		if err = s.model.Update(*pending); err != nil {
			s.log.Warn("atmosphere update rejected",
				zap.Uint64("frame", index),
				zap.Error(err),
			)
		} else {
			applied = true
		}
	}

	frame := Frame{
		Snapshot: s.model.Acquire(),
		Index:    index,
		Applied:  applied,
	}
	if applied {
		s.log.Debug("atmosphere updated",
			zap.Uint64("frame", index),
			zap.Uint64("version", frame.Version),
		)
	}
	return frame, err
}
