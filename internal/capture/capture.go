package capture

import (
	"fmt"
	"sort"

	"github.com/visvikbharti/reprokit/internal/value"
)

// Capturable is the explicit, versioned state contract collaborator
// modules implement. The engine never introspects private internals:
// a module that wants its state bundled exposes its own tagged-union
// representation.
type Capturable interface {
	// CaptureState returns the module's internal state as a tagged value
	CaptureState() (value.Value, error)

	// RestoreState replays a previously captured state into the module
	RestoreState(value.Value) error

	// StateVersion identifies the shape of the captured state; restore
	// refuses states recorded under a different version
	StateVersion() string
}

// ModuleState is one module's captured state, or the error that
// prevented capturing it.
type ModuleState struct {
	Module  string      `json:"module"`
	Version string      `json:"version"`
	State   value.Value `json:"state"`
	Err     string      `json:"err,omitempty"`
}

// OK reports whether the module's state was captured successfully
func (s ModuleState) OK() bool {
	return s.Err == ""
}

// Snapshot is the captured state of a set of modules
type Snapshot struct {
	Modules map[string]ModuleState `json:"modules"`
}

// Capture captures a single module's state. A capture failure is
// returned inside the ModuleState, not as an error: the caller decides
// whether a partial snapshot is acceptable.
func Capture(name string, m Capturable) ModuleState {
	st := ModuleState{Module: name, Version: m.StateVersion()}

	v, err := m.CaptureState()
	if err != nil {
		st.Err = err.Error()
		st.State = value.Opaque(fmt.Sprintf("%T", m))
		return st
	}
	st.State = v
	return st
}

// CaptureAll captures every provided module with an isolated failure
// domain per module: one module's error is recorded in its own entry
// and does not prevent capturing the rest.
func CaptureAll(modules map[string]Capturable) Snapshot {
	snap := Snapshot{Modules: make(map[string]ModuleState, len(modules))}
	for name, m := range modules {
		snap.Modules[name] = Capture(name, m)
	}
	return snap
}

// Restore replays a captured state into a module, best-effort. It
// returns whether the restore succeeded; a version mismatch or restore
// error leaves the module untouched beyond whatever the module itself
// already applied.
func Restore(m Capturable, st ModuleState) bool {
	if !st.OK() {
		return false
	}
	if m.StateVersion() != st.Version {
		return false
	}
	return m.RestoreState(st.State) == nil
}

// RestoreAll restores every module present in both the snapshot and the
// module set, independently. The result maps module name to restore
// success; modules in the snapshot with no live counterpart are
// reported as false.
func RestoreAll(modules map[string]Capturable, snap Snapshot) map[string]bool {
	out := make(map[string]bool, len(snap.Modules))
	for name, st := range snap.Modules {
		m, ok := modules[name]
		if !ok {
			out[name] = false
			continue
		}
		out[name] = Restore(m, st)
	}
	return out
}

// ModuleNames returns the snapshot's module names in sorted order
func (s Snapshot) ModuleNames() []string {
	out := make([]string, 0, len(s.Modules))
	for name := range s.Modules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Failed returns the names of modules whose capture failed, sorted
func (s Snapshot) Failed() []string {
	var out []string
	for name, st := range s.Modules {
		if !st.OK() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
