package state

import (
	"bytes"
	"testing"

	"github.com/haying/madlib/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	sm := NewStateManager()
	if sm.IsFitted() {
		t.Error("new manager should not be fitted")
	}
	if err := sm.RequireFitted("Model", "Predict"); err == nil {
		t.Error("RequireFitted should fail before SetFitted")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	}

	sm.SetDimensions(3, 100)
	sm.SetFitted()
	if !sm.IsFitted() {
		t.Error("manager should be fitted after SetFitted")
	}
	if err := sm.RequireFitted("Model", "Predict"); err != nil {
		t.Errorf("RequireFitted after SetFitted: %v", err)
	}
	if f, n := sm.GetDimensions(); f != 3 || n != 100 {
		t.Errorf("dimensions = (%d, %d), want (3, 100)", f, n)
	}

	sm.Reset()
	if sm.IsFitted() {
		t.Error("Reset should clear the fitted flag")
	}
	if f, n := sm.GetDimensions(); f != 0 || n != 0 {
		t.Errorf("Reset should clear dimensions, got (%d, %d)", f, n)
	}
}

type demoModel struct {
	State *StateManager
	Coefs []float64
}

func TestPersistenceRoundTrip(t *testing.T) {
	saved := &demoModel{State: NewStateManager(), Coefs: []float64{1.5, -2.5}}
	saved.State.SetDimensions(2, 10)
	saved.State.SetFitted()

	var buf bytes.Buffer
	if err := SaveModelToWriter(saved, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}

	loaded := &demoModel{State: NewStateManager()}
	if err := LoadModelFromReader(loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}
	if !loaded.State.IsFitted() {
		t.Error("loaded model lost its fitted flag")
	}
	if f, n := loaded.State.GetDimensions(); f != 2 || n != 10 {
		t.Errorf("loaded dimensions = (%d, %d), want (2, 10)", f, n)
	}
	for i := range saved.Coefs {
		if loaded.Coefs[i] != saved.Coefs[i] {
			t.Errorf("loaded coef %d = %v, want %v", i, loaded.Coefs[i], saved.Coefs[i])
		}
	}
}
