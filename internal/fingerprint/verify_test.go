package fingerprint

import (
	"testing"

	"github.com/visvikbharti/reprokit/internal/dataset"
)

func TestVerifyDatasetMatch(t *testing.T) {
	fp, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	ok, diffs, err := VerifyDataset(sample(), fp)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok || len(diffs) != 0 {
		t.Errorf("identical dataset should verify cleanly, got %v", diffs)
	}
}

func TestVerifyDatasetOneCellChange(t *testing.T) {
	fp, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	changed := sample()
	changed.Columns[0].Floats[0] = 9.99

	ok, diffs, err := VerifyDataset(changed, fp)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("changed dataset must not verify")
	}
	if len(diffs) != 1 {
		t.Fatalf("a single cell change should yield exactly one difference, got %d: %v", len(diffs), diffs)
	}
	if diffs[0].Kind != DiffBody {
		t.Errorf("expected body_hash difference, got %s", diffs[0].Kind)
	}
}

func TestVerifyDatasetShapeAndColumns(t *testing.T) {
	fp, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	smaller := dataset.New("trial").
		AddFloat64("outcome", []float64{1.2, 3.4}).
		AddInt64("arm", []int64{0, 1})

	ok, diffs, err := VerifyDataset(smaller, fp)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("different shape must not verify")
	}

	kinds := map[DifferenceKind]bool{}
	for _, d := range diffs {
		kinds[d.Kind] = true
	}
	if !kinds[DiffShape] {
		t.Error("expected a shape difference")
	}
	if !kinds[DiffColumns] {
		t.Error("expected a missing-column difference")
	}
}

func TestCompareTypeChange(t *testing.T) {
	a, _ := New(sample(), "trial")

	asFloat := dataset.New("trial").
		AddFloat64("outcome", []float64{1.2, 3.4, 5.6, 7.8}).
		AddFloat64("arm", []float64{0, 1, 0, 1}).
		AddString("site", []string{"a", "a", "b", "b"})
	b, _ := New(asFloat, "trial")

	var found bool
	for _, d := range Compare(a, b) {
		if d.Kind == DiffType && d.Field == "arm" {
			found = true
		}
	}
	if !found {
		t.Error("expected a type difference on the arm column")
	}
}
