package capture

import (
	"errors"
	"testing"

	"github.com/visvikbharti/reprokit/internal/value"
)

// fakeModule is a minimal Capturable for tests
type fakeModule struct {
	version string
	state   float64
	failCap bool
	failRes bool
}

func (f *fakeModule) CaptureState() (value.Value, error) {
	if f.failCap {
		return value.Value{}, errors.New("internal buffer locked")
	}
	return value.Map(map[string]value.Value{"state": value.Float(f.state)}), nil
}

func (f *fakeModule) RestoreState(v value.Value) error {
	if f.failRes {
		return errors.New("refused")
	}
	f.state = v.Fields["state"].Scalar.Float
	return nil
}

func (f *fakeModule) StateVersion() string { return f.version }

func TestCaptureAndRestore(t *testing.T) {
	m := &fakeModule{version: "v1", state: 3.5}

	st := Capture("scaler", m)
	if !st.OK() {
		t.Fatalf("capture failed: %s", st.Err)
	}
	if st.Module != "scaler" || st.Version != "v1" {
		t.Errorf("identity wrong: %+v", st)
	}

	m.state = 0
	if !Restore(m, st) {
		t.Fatal("restore should succeed")
	}
	if m.state != 3.5 {
		t.Errorf("state not restored, got %v", m.state)
	}
}

func TestCaptureFailureIsRecordedNotReturned(t *testing.T) {
	m := &fakeModule{version: "v1", failCap: true}

	st := Capture("broken", m)
	if st.OK() {
		t.Fatal("capture should record the failure")
	}
	if st.State.Kind != value.KindOpaque {
		t.Errorf("failed capture should leave an opaque placeholder, got %s", st.State.Kind)
	}
}

func TestCaptureAllIsolatesFailures(t *testing.T) {
	modules := map[string]Capturable{
		"good":   &fakeModule{version: "v1", state: 1},
		"broken": &fakeModule{version: "v1", failCap: true},
		"other":  &fakeModule{version: "v2", state: 2},
	}

	snap := CaptureAll(modules)
	if len(snap.Modules) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap.Modules))
	}
	if failed := snap.Failed(); len(failed) != 1 || failed[0] != "broken" {
		t.Errorf("expected only the broken module to fail, got %v", failed)
	}
	if !snap.Modules["good"].OK() || !snap.Modules["other"].OK() {
		t.Error("healthy modules must capture despite a sibling failure")
	}
}

func TestRestoreVersionMismatch(t *testing.T) {
	m := &fakeModule{version: "v2", state: 1}
	st := ModuleState{
		Module:  "scaler",
		Version: "v1",
		State:   value.Map(map[string]value.Value{"state": value.Float(9)}),
	}

	if Restore(m, st) {
		t.Fatal("restore must refuse a different state version")
	}
	if m.state != 1 {
		t.Error("refused restore must leave the module untouched")
	}
}

func TestRestoreAll(t *testing.T) {
	live := map[string]Capturable{
		"a": &fakeModule{version: "v1"},
		"b": &fakeModule{version: "v1", failRes: true},
	}
	snap := Snapshot{Modules: map[string]ModuleState{
		"a":    {Module: "a", Version: "v1", State: value.Map(map[string]value.Value{"state": value.Float(1)})},
		"b":    {Module: "b", Version: "v1", State: value.Map(map[string]value.Value{"state": value.Float(2)})},
		"gone": {Module: "gone", Version: "v1", State: value.Null()},
	}}

	got := RestoreAll(live, snap)
	if !got["a"] {
		t.Error("module a should restore")
	}
	if got["b"] {
		t.Error("module b refuses restore and should report false")
	}
	if got["gone"] {
		t.Error("a module with no live counterpart should report false")
	}
}

func TestModuleNamesSorted(t *testing.T) {
	snap := CaptureAll(map[string]Capturable{
		"zeta":  &fakeModule{version: "v1"},
		"alpha": &fakeModule{version: "v1"},
	})
	names := snap.ModuleNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("expected sorted names, got %v", names)
	}
}
