package verify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/dataset"
	"github.com/visvikbharti/reprokit/internal/pipeline"
	"github.com/visvikbharti/reprokit/internal/seed"
	"github.com/visvikbharti/reprokit/internal/value"
)

func TestNumericallyEqual(t *testing.T) {
	tol := DefaultTolerance()

	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"identical", 1.5, 1.5, true},
		{"within absolute tolerance", 0, 1e-12, true},
		{"within relative tolerance", 1e9, 1e9 * (1 + 1e-12), true},
		{"outside tolerance", 1.0, 1.0001, false},
		{"nan equals nan", math.NaN(), math.NaN(), true},
		{"nan not number", math.NaN(), 0, false},
		{"same inf", math.Inf(1), math.Inf(1), true},
		{"opposite inf", math.Inf(1), math.Inf(-1), false},
		{"inf not finite", math.Inf(1), math.MaxFloat64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NumericallyEqual(tt.a, tt.b, tol))
		})
	}
}

func liveDataset() *dataset.Dataset {
	return dataset.New("trial").
		AddFloat64("outcome", []float64{1.5, 2.5, 3.5, 4.5}).
		AddInt64("arm", []int64{0, 1, 0, 1})
}

func sealedBundle(t *testing.T, output map[string]any) *bundle.Bundle {
	t.Helper()

	builder := bundle.New("Verification test", "")
	_, err := builder.AddDataset(liveDataset(), "trial")
	require.NoError(t, err)

	tr := pipeline.New()
	_, err = tr.Track("analyze", "stats", map[string]any{"alpha": 0.05}, func() (any, error) {
		return output, nil
	})
	require.NoError(t, err)
	require.NoError(t, builder.AddPipeline(tr))

	sm := seed.NewManager(42)
	sm.Register("bootstrap")
	sm.Register("permutation")
	require.NoError(t, builder.SetSeedState(sm.State()))

	b, err := builder.Seal()
	require.NoError(t, err)
	return b
}

func goodOutput() map[string]any {
	return map[string]any{
		"estimate": 1.5,
		"ci_lower": 1.1,
		"ci_upper": 1.9,
		"p_value":  0.04,
	}
}

func TestVerifyCleanBundlePasses(t *testing.T) {
	b := sealedBundle(t, goodOutput())

	opts := DefaultOptions()
	opts.Datasets = map[string]*dataset.Dataset{"trial": liveDataset()}
	report := Verify(b, opts)

	assert.True(t, report.Passed)
	require.Len(t, report.Checks, 4)
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "check %q failed: %v", c.Name, c.Details)
	}
	assert.Empty(t, report.Warnings)
}

func TestVerifyWarnsOnEnvironmentDrift(t *testing.T) {
	b := sealedBundle(t, goodOutput())
	b.Environment.GoVersion = "go1.18"
	b.Environment.Arch = "riscv64"

	opts := DefaultOptions()
	opts.Datasets = map[string]*dataset.Dataset{"trial": liveDataset()}
	report := Verify(b, opts)

	assert.True(t, report.Passed, "environment drift must never fail verification")
	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "go version")
	assert.Contains(t, report.Warnings[0], "go1.18")
	assert.Contains(t, report.Warnings[1], "arch")
}

func TestVerifyMissingDatasetWarnsOnly(t *testing.T) {
	b := sealedBundle(t, goodOutput())

	report := Verify(b, DefaultOptions())

	assert.True(t, report.Passed, "absent live data must not fail verification")
	assert.NotEmpty(t, report.Warnings)
}

func TestVerifyDetectsChangedData(t *testing.T) {
	b := sealedBundle(t, goodOutput())

	changed := liveDataset()
	changed.Columns[0].Floats[0] = 999

	opts := DefaultOptions()
	opts.Datasets = map[string]*dataset.Dataset{"trial": changed}
	report := Verify(b, opts)

	assert.False(t, report.Passed)
	integrity := report.Checks[0]
	assert.Equal(t, "data integrity", integrity.Name)
	assert.False(t, integrity.Passed)
	assert.NotEmpty(t, integrity.Details)
}

func TestVerifyDetectsCorruptSeed(t *testing.T) {
	b := sealedBundle(t, goodOutput())
	b.SeedState.Derived["bootstrap"]++

	report := Verify(b, DefaultOptions())

	assert.False(t, report.Passed)
	seeds := report.Checks[1]
	assert.Equal(t, "seed determinism", seeds.Name)
	assert.False(t, seeds.Passed)
}

func TestVerifyDetectsBrokenStepLinks(t *testing.T) {
	b := sealedBundle(t, goodOutput())
	for _, s := range b.Steps {
		s.ParentID = "no-such-step"
	}

	report := Verify(b, DefaultOptions())

	assert.False(t, report.Passed)
	pipe := report.Checks[2]
	assert.Equal(t, "pipeline consistency", pipe.Name)
	assert.False(t, pipe.Passed)
}

func TestVerifyBoundsPipelineSample(t *testing.T) {
	builder := bundle.New("Many steps", "")
	tr := pipeline.New()
	for i := 0; i < 50; i++ {
		_, err := tr.Track("step", "mod", nil, func() (any, error) { return nil, nil })
		require.NoError(t, err)
	}
	require.NoError(t, builder.AddPipeline(tr))
	sm := seed.NewManager(1)
	sm.Register("m")
	require.NoError(t, builder.SetSeedState(sm.State()))
	b, err := builder.Seal()
	require.NoError(t, err)

	report := Verify(b, DefaultOptions())
	assert.True(t, report.Passed)
	assert.NotEmpty(t, report.Warnings, "sampling more steps than the bound should warn")
}

func TestVerifyResultSanity(t *testing.T) {
	tests := []struct {
		name   string
		output map[string]any
		pass   bool
	}{
		{"clean", goodOutput(), true},
		{"probability above one", map[string]any{"p_value": 1.7}, false},
		{"probability below zero", map[string]any{"p_value": -0.1}, false},
		{"non-finite estimate", map[string]any{"estimate": math.Inf(1)}, false},
		{"nan estimate", map[string]any{"estimate": math.NaN()}, false},
		{"inverted interval", map[string]any{
			"ci_lower": 2.0, "estimate": 1.5, "ci_upper": 1.0,
		}, false},
		{"non-probability outside unit range", map[string]any{"estimate": 42.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sealedBundle(t, tt.output)
			report := Verify(b, DefaultOptions())

			sanity := report.Checks[3]
			require.Equal(t, "result sanity", sanity.Name)
			assert.Equal(t, tt.pass, sanity.Passed, "details: %v", sanity.Details)
		})
	}
}

func TestProbabilityLike(t *testing.T) {
	assert.True(t, probabilityLike("step.p_value"))
	assert.True(t, probabilityLike("step.pvalue"))
	assert.True(t, probabilityLike("step.prob_success"))
	assert.True(t, probabilityLike("step.alpha"))
	assert.True(t, probabilityLike("out.p"))
	assert.False(t, probabilityLike("step.estimate"))
	assert.False(t, probabilityLike("step.slope"))
}

func TestWalkFloatsCoversNestedStructures(t *testing.T) {
	var seen []string
	v := value.Map(map[string]value.Value{
		"scalar": value.Float(1),
		"seq":    value.Seq(value.Float(2), value.Int(3)),
		"nested": value.Map(map[string]value.Value{"deep": value.Float(4)}),
	})

	walkFloats("root", v, func(path string, f float64) {
		seen = append(seen, path)
	})

	assert.Contains(t, seen, "root.scalar")
	assert.Contains(t, seen, "root.seq[0]")
	assert.Contains(t, seen, "root.nested.deep")
	assert.NotContains(t, seen, "root.seq[1]", "ints are not float results")
}
