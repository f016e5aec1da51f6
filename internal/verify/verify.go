package verify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/dataset"
	"github.com/visvikbharti/reprokit/internal/fingerprint"
	"github.com/visvikbharti/reprokit/internal/seed"
	"github.com/visvikbharti/reprokit/internal/value"
)

// seedDeterminismDraws is how many values two independently seeded
// sources must agree on before a module's source counts as deterministic
const seedDeterminismDraws = 16

// Tolerance bounds a numeric comparison with absolute and relative
// components.
type Tolerance struct {
	Abs float64 `json:"abs"`
	Rel float64 `json:"rel"`
}

// DefaultTolerance returns the standard comparison tolerance
func DefaultTolerance() Tolerance {
	return Tolerance{Abs: 1e-10, Rel: 1e-10}
}

// NumericallyEqual compares two floats under a combined tolerance:
// |a-b| <= max(abs, rel*max(|a|,|b|)). NaN equals NaN, infinities of the
// same sign are equal, and exact float comparison is never used for
// finite values.
func NumericallyEqual(a, b float64, tol Tolerance) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	limit := math.Max(tol.Abs, tol.Rel*math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= limit
}

// Check is one named verification with its itemized findings. Details
// are failures; warnings flag things the check could not examine.
type Check struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Details  []string `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Report aggregates all checks run against one bundle. Verification
// failures live here as entries; the verifier only returns an error for
// problems that prevent checking at all.
type Report struct {
	BundleID string   `json:"bundle_id"`
	Title    string   `json:"title"`
	Checks   []Check  `json:"checks"`
	Passed   bool     `json:"passed"`
	Warnings []string `json:"warnings,omitempty"`
}

// Options configures a verification run
type Options struct {
	// Tolerance for numeric comparisons in the result sanity check
	Tolerance Tolerance

	// MaxPipelineSteps bounds the pipeline consistency sample
	MaxPipelineSteps int

	// Datasets supplies live datasets by fingerprint name for the data
	// integrity check. A recorded fingerprint with no live dataset is a
	// warning, not a failure.
	Datasets map[string]*dataset.Dataset
}

// DefaultOptions returns the standard verification configuration
func DefaultOptions() Options {
	return Options{
		Tolerance:        DefaultTolerance(),
		MaxPipelineSteps: 32,
	}
}

// Verify runs every check against the bundle and returns the report.
func Verify(b *bundle.Bundle, opts Options) *Report {
	if opts.MaxPipelineSteps <= 0 {
		opts.MaxPipelineSteps = 32
	}
	if opts.Tolerance == (Tolerance{}) {
		opts.Tolerance = DefaultTolerance()
	}

	r := &Report{
		BundleID: b.ID,
		Title:    b.Title,
		Passed:   true,
	}

	checks := []Check{
		checkDataIntegrity(b, opts.Datasets),
		checkSeedDeterminism(b),
		checkPipelineConsistency(b, opts.MaxPipelineSteps),
		checkResultSanity(b, opts.Tolerance),
	}

	for _, c := range checks {
		r.Checks = append(r.Checks, c)
		r.Passed = r.Passed && c.Passed
		r.Warnings = append(r.Warnings, c.Warnings...)
	}

	// Environment drift is a warning, never a failure: bit-identical
	// floats across platforms are out of scope, but the reader should
	// know the bundle was produced elsewhere.
	r.Warnings = append(r.Warnings, environmentDrift(b.Environment, bundle.CaptureEnvironment())...)
	return r
}

func environmentDrift(sealed, current bundle.Environment) []string {
	var warnings []string
	drift := func(field, was, now string) {
		if was != now && was != "" {
			warnings = append(warnings,
				fmt.Sprintf("environment drift: %s was %q at seal time, %q now", field, was, now))
		}
	}
	drift("engine version", sealed.EngineVersion, current.EngineVersion)
	drift("go version", sealed.GoVersion, current.GoVersion)
	drift("os", sealed.OS, current.OS)
	drift("arch", sealed.Arch, current.Arch)
	return warnings
}

// checkDataIntegrity re-fingerprints every supplied dataset against its
// recorded fingerprint and itemizes each mismatch.
func checkDataIntegrity(b *bundle.Bundle, datasets map[string]*dataset.Dataset) Check {
	c := Check{Name: "data integrity", Passed: true}

	for _, name := range sortedKeys(b.Fingerprints) {
		fp := b.Fingerprints[name]

		ds, ok := datasets[name]
		if !ok {
			c.Warnings = append(c.Warnings,
				fmt.Sprintf("dataset %q: no live data supplied, fingerprint not re-checked", name))
			continue
		}

		match, diffs, err := fingerprint.VerifyDataset(ds, fp)
		if err != nil {
			c.Passed = false
			c.Details = append(c.Details,
				fmt.Sprintf("dataset %q: cannot re-fingerprint: %v", name, err))
			continue
		}
		if !match {
			c.Passed = false
			for _, d := range diffs {
				c.Details = append(c.Details, fmt.Sprintf("dataset %q: %s", name, d))
			}
		}
	}
	return c
}

// checkSeedDeterminism re-derives every recorded module seed from the
// recorded master, then seeds two fresh sources per module and compares
// a run of draws exactly.
func checkSeedDeterminism(b *bundle.Bundle) Check {
	c := Check{Name: "seed determinism", Passed: true}

	st := b.SeedState
	if len(st.Derived) == 0 {
		c.Warnings = append(c.Warnings, "no derived seeds recorded")
		return c
	}

	for _, module := range sortedKeys(st.Derived) {
		want := st.Derived[module]
		if got := seed.Derive(st.Master, module); got != want {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf(
				"module %q: recorded seed %d does not re-derive from master %d (got %d)",
				module, want, st.Master, got))
			continue
		}

		if diverged, at := sourcesDiverge(st.Master, module); diverged {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf(
				"module %q: two freshly seeded sources diverged at draw %d", module, at))
		}
	}
	return c
}

func sourcesDiverge(master uint64, module string) (bool, int) {
	a := seed.NewManager(master)
	b := seed.NewManager(master)
	a.Register(module)
	b.Register(module)

	// Register cannot leave a registered module without a source
	srcA, _ := a.Source(module)
	srcB, _ := b.Source(module)

	for i := 0; i < seedDeterminismDraws; i++ {
		if srcA.Uint64() != srcB.Uint64() {
			return true, i
		}
	}
	return false, 0
}

// checkPipelineConsistency examines a bounded sample of recorded steps
// for internal consistency: required fields present, durations
// non-negative, parent links resolving, and no step its own ancestor.
func checkPipelineConsistency(b *bundle.Bundle, maxSteps int) Check {
	c := Check{Name: "pipeline consistency", Passed: true}

	if len(b.StepOrder) == 0 {
		c.Warnings = append(c.Warnings, "no pipeline steps recorded")
		return c
	}

	sample := b.StepOrder
	if len(sample) > maxSteps {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"checking first %d of %d steps", maxSteps, len(sample)))
		sample = sample[:maxSteps]
	}

	for i, id := range sample {
		step, ok := b.Steps[id]
		if !ok {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf(
				"step order entry %d: id %s has no recorded step", i, id))
			continue
		}
		if step.Name == "" {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf("step %s: missing name", id))
		}
		if step.Module == "" {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf("step %s: missing module", id))
		}
		if step.Duration < 0 {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf(
				"step %s: negative duration %s", id, step.Duration))
		}
		if step.ParentID != "" {
			if _, ok := b.Steps[step.ParentID]; !ok {
				c.Passed = false
				c.Details = append(c.Details, fmt.Sprintf(
					"step %s: parent %s not recorded", id, step.ParentID))
			} else if cyclic(b, id) {
				c.Passed = false
				c.Details = append(c.Details, fmt.Sprintf(
					"step %s: appears in its own ancestor chain", id))
			}
		}
	}
	return c
}

func cyclic(b *bundle.Bundle, id string) bool {
	seen := map[string]bool{id: true}
	cur := b.Steps[id]
	for cur != nil && cur.ParentID != "" {
		if seen[cur.ParentID] {
			return true
		}
		seen[cur.ParentID] = true
		cur = b.Steps[cur.ParentID]
	}
	return false
}

// checkResultSanity inspects recorded step outputs: scalar floats must
// be finite, values under probability-like names must sit in [0,1], and
// a (ci_lower, estimate, ci_upper) triple must be ordered.
func checkResultSanity(b *bundle.Bundle, tol Tolerance) Check {
	c := Check{Name: "result sanity", Passed: true}

	for _, id := range b.StepOrder {
		step, ok := b.Steps[id]
		if !ok {
			continue
		}
		prefix := fmt.Sprintf("step %q", step.Name)
		walkFloats(prefix, step.Output, func(path string, f float64) {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				c.Passed = false
				c.Details = append(c.Details, fmt.Sprintf(
					"%s: non-finite result %v", path, f))
				return
			}
			if probabilityLike(path) && (f < 0 || f > 1) {
				c.Passed = false
				c.Details = append(c.Details, fmt.Sprintf(
					"%s: probability-like value %v outside [0,1]", path, f))
			}
		})
		checkIntervals(prefix, step.Output, tol, &c)
	}
	return c
}

// walkFloats visits every scalar float reachable in v, carrying the
// field path down the walk.
func walkFloats(path string, v value.Value, visit func(path string, f float64)) {
	switch v.Kind {
	case value.KindScalar:
		if v.Scalar != nil && v.Scalar.Type == value.ScalarFloat {
			visit(path, v.Scalar.Float)
		}
	case value.KindSequence:
		for i, item := range v.Items {
			walkFloats(fmt.Sprintf("%s[%d]", path, i), item, visit)
		}
	case value.KindMapping:
		for _, k := range sortedKeys(v.Fields) {
			walkFloats(path+"."+k, v.Fields[k], visit)
		}
	case value.KindTable:
		if v.Table != nil {
			for r, row := range v.Table.Rows {
				for col, cell := range row {
					name := fmt.Sprintf("col%d", col)
					if col < len(v.Table.Columns) {
						name = v.Table.Columns[col]
					}
					walkFloats(fmt.Sprintf("%s.%s[%d]", path, name, r), cell, visit)
				}
			}
		}
	}
	// Tensor data is raw numeric payload, not a named result; it is
	// covered by fingerprints, not sanity-checked here.
}

// checkIntervals looks for (ci_lower, estimate, ci_upper) triples at
// every mapping level and checks their ordering.
func checkIntervals(path string, v value.Value, tol Tolerance, c *Check) {
	if v.Kind != value.KindMapping {
		if v.Kind == value.KindSequence {
			for i, item := range v.Items {
				checkIntervals(fmt.Sprintf("%s[%d]", path, i), item, tol, c)
			}
		}
		return
	}

	lo, loOK := floatField(v, "ci_lower")
	hi, hiOK := floatField(v, "ci_upper")
	est, estOK := floatField(v, "estimate")
	if loOK && hiOK && estOK {
		ordered := (lo <= est || NumericallyEqual(lo, est, tol)) &&
			(est <= hi || NumericallyEqual(est, hi, tol))
		if !ordered {
			c.Passed = false
			c.Details = append(c.Details, fmt.Sprintf(
				"%s: interval not ordered: ci_lower=%v estimate=%v ci_upper=%v",
				path, lo, est, hi))
		}
	}

	for _, k := range sortedKeys(v.Fields) {
		checkIntervals(path+"."+k, v.Fields[k], tol, c)
	}
}

func floatField(v value.Value, name string) (float64, bool) {
	f, ok := v.Fields[name]
	if !ok || f.Kind != value.KindScalar || f.Scalar == nil {
		return 0, false
	}
	switch f.Scalar.Type {
	case value.ScalarFloat:
		return f.Scalar.Float, true
	case value.ScalarInt:
		return float64(f.Scalar.Int), true
	}
	return 0, false
}

// probabilityLike reports whether the final path element names a value
// expected to live in [0,1].
func probabilityLike(path string) bool {
	last := path
	if i := strings.LastIndexAny(path, "."); i >= 0 {
		last = path[i+1:]
	}
	last = strings.ToLower(strings.TrimRight(last, "]0123456789["))
	switch last {
	case "p", "alpha", "power":
		return true
	}
	return strings.Contains(last, "p_value") ||
		strings.Contains(last, "pvalue") ||
		strings.Contains(last, "prob")
}

func sortedKeys[M map[string]V, V any](m M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
