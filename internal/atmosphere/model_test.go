package atmosphere

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestNewModelRejectsInvalid(t *testing.T) {
	p := DefaultParameters()
	p.PlanetRadius = -1
	if _, err := NewModel(Dynamic, p); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
	if _, err := NewModel(Mode(7), DefaultParameters()); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestStaticModelLocksAfterFirstEvaluation(t *testing.T) {
	m, err := NewModel(Static, DefaultParameters())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	// Updates before first use are allowed.
	early := DefaultParameters()
	early.SunIntensity = 10
	if err := m.Update(early); err != nil {
		t.Fatalf("update before first evaluation should succeed: %v", err)
	}
	if m.Locked() {
		t.Fatal("model should not be locked before evaluation")
	}

	if _, err := m.Evaluate(Vec3{Y: 1}); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !m.Locked() {
		t.Fatal("static model should lock after evaluation")
	}

	before := m.Snapshot()
	late := DefaultParameters()
	late.SunIntensity = 50
	err = m.Update(late)
	if !errors.Is(err, ErrStaticModeViolation) {
		t.Fatalf("expected ErrStaticModeViolation, got %v", err)
	}
	if m.Snapshot() != before {
		t.Error("rejected update must leave parameters unchanged")
	}
}

func TestStaticModelInvalidDirectionDoesNotLock(t *testing.T) {
	m, err := NewModel(Static, DefaultParameters())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	if _, err := m.Evaluate(Vec3{Y: 3}); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
	if m.Locked() {
		t.Error("rejected evaluation should not lock the model")
	}
}

func TestDynamicModelReflectsUpdates(t *testing.T) {
	m, err := NewModel(Dynamic, DefaultParameters())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	dir := Vec3{X: 0.2, Y: 0.9, Z: 0.1}.Normalize()

	before, err := m.Evaluate(dir)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	next := DefaultParameters()
	next.SunDirection = Vec3{X: -1, Y: 0.1, Z: 0}.Normalize()
	next.MieDirection = 0.2
	if err := m.Update(next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if m.Snapshot().Version != 2 {
		t.Errorf("expected version 2, got %d", m.Snapshot().Version)
	}

	got, err := m.Evaluate(dir)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want, err := Evaluate(dir, next)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != want {
		t.Errorf("model returned %+v, want %+v for updated parameters", got, want)
	}
	if got == before {
		t.Error("expected color to change after update")
	}
}

func TestUpdateInvalidKeepsPrevious(t *testing.T) {
	m, err := NewModel(Dynamic, DefaultParameters())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	before := m.Snapshot()

	bad := DefaultParameters()
	bad.MieDirection = -1
	if err := m.Update(bad); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
	if m.Snapshot() != before {
		t.Error("invalid update must leave parameters unchanged")
	}
}

func TestConcurrentEvaluate(t *testing.T) {
	m, err := NewModel(Dynamic, DefaultParameters())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	dir := Vec3{X: 0.5, Y: 0.5, Z: 0.5}.Normalize()
	want, _ := m.Evaluate(dir)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Evaluate(dir)
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- errors.New("concurrent evaluation diverged")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestModelLUTCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("static builds once", func(t *testing.T) {
		m, err := NewModel(Static, DefaultParameters())
		if err != nil {
			t.Fatalf("NewModel failed: %v", err)
		}
		first, err := m.LUT(ctx, 16, 8)
		if err != nil {
			t.Fatalf("LUT failed: %v", err)
		}
		second, err := m.LUT(ctx, 16, 8)
		if err != nil {
			t.Fatalf("LUT failed: %v", err)
		}
		if first != second {
			t.Error("static model should reuse its LUT")
		}
		if err := m.Update(DefaultParameters()); !errors.Is(err, ErrStaticModeViolation) {
			t.Errorf("building the LUT should lock a static model, got %v", err)
		}
	})

	t.Run("dynamic rebuilds on update", func(t *testing.T) {
		m, err := NewModel(Dynamic, DefaultParameters())
		if err != nil {
			t.Fatalf("NewModel failed: %v", err)
		}
		first, err := m.LUT(ctx, 16, 8)
		if err != nil {
			t.Fatalf("LUT failed: %v", err)
		}
		same, err := m.LUT(ctx, 16, 8)
		if err != nil {
			t.Fatalf("LUT failed: %v", err)
		}
		if first != same {
			t.Error("unchanged parameters should reuse the LUT")
		}

		next := DefaultParameters()
		next.SunDirection = Vec3{Y: 1}
		if err := m.Update(next); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		rebuilt, err := m.LUT(ctx, 16, 8)
		if err != nil {
			t.Fatalf("LUT failed: %v", err)
		}
		if rebuilt == first {
			t.Fatal("expected a new LUT after update")
		}
		if rebuilt.Version != m.Snapshot().Version {
			t.Errorf("LUT version %d, want %d", rebuilt.Version, m.Snapshot().Version)
		}

		want, _ := Evaluate(LatLongDirection(0.5/16, 0.5/8), next)
		got := rebuilt.At(0, 0)
		if math.Abs(float64(got.B-want.B)) > 1e-9 {
			t.Errorf("LUT texel %+v does not match new parameters %+v", got, want)
		}
	})
}

func TestSnapshotEvaluateValidatesParameters(t *testing.T) {
	outside := DefaultParameters()
	outside.Origin = Vec3{Y: outside.AtmosphereRadius * 2}
	outside.Background = Color{R: -5}

	badMie := DefaultParameters()
	badMie.MieDirection = 1

	tests := []struct {
		name   string
		params Parameters
	}{
		{"mie direction", badMie},
		{"negative background", outside},
		{"zero value", Parameters{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Snapshot{Params: tt.params, Version: 1}
			c, err := s.Evaluate(Vec3{Y: 1})
			if !errors.Is(err, ErrInvalidParameters) {
				t.Fatalf("Evaluate = %+v, %v; want ErrInvalidParameters", c, err)
			}
		})
	}
}

func TestSnapshotLUTUsesGivenSnapshot(t *testing.T) {
	ctx := context.Background()
	m, err := NewModel(Dynamic, DefaultParameters())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	frame := m.Acquire()

	next := DefaultParameters()
	next.SunDirection = Vec3{Y: 1}
	if err := m.Update(next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	lut, err := m.SnapshotLUT(ctx, frame, 16, 8)
	if err != nil {
		t.Fatalf("SnapshotLUT failed: %v", err)
	}
	if lut.Version != frame.Version {
		t.Errorf("LUT version %d, want frame version %d", lut.Version, frame.Version)
	}
	want, _ := Evaluate(LatLongDirection(0.5/16, 0.5/8), frame.Params)
	if got := lut.At(0, 0); got != want {
		t.Errorf("LUT texel %+v, want frame texel %+v", got, want)
	}

	current, err := m.SnapshotLUT(ctx, m.Snapshot(), 16, 8)
	if err != nil {
		t.Fatalf("SnapshotLUT failed: %v", err)
	}
	if current == lut || current.Version != m.Snapshot().Version {
		t.Errorf("expected a rebuild for version %d, got %d", m.Snapshot().Version, current.Version)
	}

	// A hand-built snapshot reusing a version does not get the cached table.
	forged := Snapshot{Params: frame.Params, Version: current.Version}
	other, err := m.SnapshotLUT(ctx, forged, 16, 8)
	if err != nil {
		t.Fatalf("SnapshotLUT failed: %v", err)
	}
	if other == current {
		t.Error("different parameters under the same version must not share a LUT")
	}

	bad := Snapshot{Params: Parameters{}, Version: 9}
	if _, err := m.SnapshotLUT(ctx, bad, 16, 8); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}
