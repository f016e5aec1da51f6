package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"math"
	mrand "math/rand/v2"
	"sort"

	"golang.org/x/crypto/hkdf"

	"github.com/visvikbharti/reprokit/internal/errors"
)

// pcgStreamSalt separates the two PCG stream words derived from one seed
const pcgStreamSalt = 0x9e3779b97f4a7c15

// Derive maps (master seed, module name) to a module-specific seed.
// It is a pure function: identical inputs give identical outputs
// regardless of call order or call count. Derivation expands the master
// seed through HKDF-SHA256 with the module name as context, then takes
// the first eight bytes big-endian.
func Derive(master uint64, module string) uint64 {
	var secret [8]byte
	binary.BigEndian.PutUint64(secret[:], master)

	r := hkdf.New(sha256.New, secret[:], nil, []byte("reprokit/seed/v1/"+module))
	var out [8]byte
	if _, err := io.ReadFull(r, out[:]); err != nil {
		// HKDF expansion of 8 bytes cannot fail
		panic(err)
	}
	return binary.BigEndian.Uint64(out[:])
}

// SeedState is the bundled record of a manager: the master seed, every
// derived module seed, and opaque snapshots of random-source state.
type SeedState struct {
	Master  uint64            `json:"master"`
	Derived map[string]uint64 `json:"derived"`

	// Snapshots maps snapshot name -> module -> marshaled PCG state
	Snapshots map[string]map[string][]byte `json:"snapshots,omitempty"`
}

// Manager owns one explicit random source per registered module. Nothing
// here touches a process-global generator: every draw goes through a
// handle the caller obtained from the manager.
type Manager struct {
	master    uint64
	derived   map[string]uint64
	pcgs      map[string]*mrand.PCG
	sources   map[string]*mrand.Rand
	snapshots map[string]map[string][]byte
}

// NewManager creates a manager for the given master seed
func NewManager(master uint64) *Manager {
	return &Manager{
		master:    master,
		derived:   make(map[string]uint64),
		pcgs:      make(map[string]*mrand.PCG),
		sources:   make(map[string]*mrand.Rand),
		snapshots: make(map[string]map[string][]byte),
	}
}

// Master returns the master seed
func (m *Manager) Master() uint64 {
	return m.master
}

// Register derives the module's seed, creates its owned random source
// seeded from it, and returns the derived seed. Registering an already
// registered module returns the memoized seed without reseeding.
func (m *Manager) Register(module string) uint64 {
	if s, ok := m.derived[module]; ok {
		return s
	}
	s := Derive(m.master, module)
	m.derived[module] = s
	pcg := mrand.NewPCG(s, s^pcgStreamSalt)
	m.pcgs[module] = pcg
	m.sources[module] = mrand.New(pcg)
	return s
}

// Modules returns the registered module names in sorted order
func (m *Manager) Modules() []string {
	out := make([]string, 0, len(m.derived))
	for name := range m.derived {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Derived returns a copy of the module -> derived seed mapping
func (m *Manager) Derived() map[string]uint64 {
	out := make(map[string]uint64, len(m.derived))
	for k, v := range m.derived {
		out[k] = v
	}
	return out
}

// Source returns the owned random source for a registered module
func (m *Manager) Source(module string) (*mrand.Rand, error) {
	src, ok := m.sources[module]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSeedModuleUnknown,
			"module %q has no registered seed", module).
			WithSuggestion("call Register before drawing from a module source")
	}
	return src, nil
}

// ApplyAll reseeds every registered source from its derived seed,
// discarding any accumulated generator state.
func (m *Manager) ApplyAll() {
	for module, s := range m.derived {
		m.pcgs[module].Seed(s, s^pcgStreamSalt)
	}
}

// WithTemporarySeed runs fn with the module's source temporarily seeded
// to seed, then restores the prior generator state on every exit path,
// including an error return or a panic inside fn. No temporary
// randomness leaks past the scope boundary.
func (m *Manager) WithTemporarySeed(module string, seed uint64, fn func(*mrand.Rand) error) error {
	pcg, ok := m.pcgs[module]
	if !ok {
		return errors.Newf(errors.ErrCodeSeedModuleUnknown,
			"module %q has no registered seed", module)
	}

	saved, err := pcg.MarshalBinary()
	if err != nil {
		return errors.Wrap(errors.ErrCodeSeedScopeFailed,
			"save random source state", err)
	}
	defer func() {
		// Restore of a state we just marshaled cannot fail.
		_ = pcg.UnmarshalBinary(saved)
	}()

	pcg.Seed(seed, seed^pcgStreamSalt)
	return fn(m.sources[module])
}

// Snapshot captures the full state of every registered source under the
// given name, for pause/resume of long simulations.
func (m *Manager) Snapshot(name string) error {
	snap := make(map[string][]byte, len(m.pcgs))
	for module, pcg := range m.pcgs {
		state, err := pcg.MarshalBinary()
		if err != nil {
			return errors.Wrap(errors.ErrCodeSeedScopeFailed,
				"marshal state for module "+module, err)
		}
		snap[module] = state
	}
	m.snapshots[name] = snap
	return nil
}

// Restore replays a named snapshot into every registered source
func (m *Manager) Restore(name string) error {
	snap, ok := m.snapshots[name]
	if !ok {
		return errors.Newf(errors.ErrCodeSeedSnapshotMissing, "snapshot %q not found", name)
	}
	for module, state := range snap {
		pcg, ok := m.pcgs[module]
		if !ok {
			// Snapshot taken before this run registered the module;
			// register so the state has somewhere to land.
			m.Register(module)
			pcg = m.pcgs[module]
		}
		if err := pcg.UnmarshalBinary(state); err != nil {
			return errors.Wrap(errors.ErrCodeSeedSnapshotCorrupt,
				"restore state for module "+module, err)
		}
	}
	return nil
}

// State returns the bundled form of the manager
func (m *Manager) State() SeedState {
	st := SeedState{
		Master:  m.master,
		Derived: m.Derived(),
	}
	if len(m.snapshots) > 0 {
		st.Snapshots = make(map[string]map[string][]byte, len(m.snapshots))
		for name, snap := range m.snapshots {
			cp := make(map[string][]byte, len(snap))
			for module, state := range snap {
				cp[module] = append([]byte(nil), state...)
			}
			st.Snapshots[name] = cp
		}
	}
	return st
}

// FromState rebuilds a manager from a bundled state. Every recorded
// module is re-registered from the master seed; recorded derived seeds
// that disagree with re-derivation indicate a corrupt state.
func FromState(st SeedState) (*Manager, error) {
	m := NewManager(st.Master)
	for module, want := range st.Derived {
		got := m.Register(module)
		if got != want {
			return nil, errors.Newf(errors.ErrCodeSeedSnapshotCorrupt,
				"module %q: recorded seed %d does not re-derive from master (got %d)",
				module, want, got)
		}
	}
	for name, snap := range st.Snapshots {
		cp := make(map[string][]byte, len(snap))
		for module, state := range snap {
			cp[module] = append([]byte(nil), state...)
		}
		m.snapshots[name] = cp
	}
	return m, nil
}

// Divergence reports the first mismatch found by VerifyReproducibility
type Divergence struct {
	Run   int     `json:"run"`
	Index int     `json:"index"`
	Want  float64 `json:"want"`
	Got   float64 `json:"got"`
}

// VerifyReproducibility re-invokes fn against a freshly seeded manager
// nRuns times and compares the results with exact, NaN-aware equality.
// It returns false and the first divergence when two runs disagree.
func (m *Manager) VerifyReproducibility(fn func(*Manager) []float64, nRuns int) (bool, *Divergence) {
	if nRuns < 2 {
		nRuns = 2
	}

	var reference []float64
	for run := 0; run < nRuns; run++ {
		fresh := NewManager(m.master)
		for module := range m.derived {
			fresh.Register(module)
		}
		result := fn(fresh)

		if run == 0 {
			reference = result
			continue
		}
		if len(result) != len(reference) {
			return false, &Divergence{Run: run, Index: min(len(result), len(reference)), Want: math.NaN(), Got: math.NaN()}
		}
		for i := range result {
			if !exactEqual(reference[i], result[i]) {
				return false, &Divergence{Run: run, Index: i, Want: reference[i], Got: result[i]}
			}
		}
	}
	return true, nil
}

func exactEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
