package fingerprint

import (
	"fmt"
	"sort"

	"github.com/visvikbharti/reprokit/internal/dataset"
)

// DifferenceKind identifies what part of a fingerprint mismatched
type DifferenceKind string

const (
	DiffShape   DifferenceKind = "shape"
	DiffColumns DifferenceKind = "columns"
	DiffType    DifferenceKind = "type"
	DiffHeader  DifferenceKind = "header_hash"
	DiffBody    DifferenceKind = "body_hash"
	DiffHash    DifferenceKind = "hash"
	DiffMissing DifferenceKind = "missing"
)

// Difference is one itemized mismatch between a dataset (or fingerprint)
// and a recorded fingerprint.
type Difference struct {
	Kind     DifferenceKind `json:"kind"`
	Field    string         `json:"field,omitempty"`
	Expected string         `json:"expected"`
	Actual   string         `json:"actual"`
}

func (d Difference) String() string {
	if d.Field != "" {
		return fmt.Sprintf("%s[%s]: expected %s, got %s", d.Kind, d.Field, d.Expected, d.Actual)
	}
	return fmt.Sprintf("%s: expected %s, got %s", d.Kind, d.Expected, d.Actual)
}

// VerifyDataset recomputes the fingerprint of ds and itemizes every
// mismatch against fp. A failed verification is diagnosable from the
// returned differences alone; callers never get a bare false. The error
// return is reserved for datasets that cannot be fingerprinted at all.
func VerifyDataset(ds *dataset.Dataset, fp *Fingerprint) (bool, []Difference, error) {
	actual, err := New(ds, fp.Name)
	if err != nil {
		return false, nil, err
	}
	diffs := Compare(fp, actual)
	return len(diffs) == 0, diffs, nil
}

// Compare structurally diffs two fingerprints without requiring either
// original dataset.
func Compare(a, b *Fingerprint) []Difference {
	var diffs []Difference

	if a.Shape != b.Shape {
		diffs = append(diffs, Difference{
			Kind:     DiffShape,
			Expected: fmt.Sprintf("%dx%d", a.Shape[0], a.Shape[1]),
			Actual:   fmt.Sprintf("%dx%d", b.Shape[0], b.Shape[1]),
		})
	}

	diffs = append(diffs, compareColumns(a, b)...)

	if a.HeaderHash != b.HeaderHash {
		diffs = append(diffs, Difference{Kind: DiffHeader, Expected: a.HeaderHash, Actual: b.HeaderHash})
	}
	if a.BodyHash != b.BodyHash {
		diffs = append(diffs, Difference{Kind: DiffBody, Expected: a.BodyHash, Actual: b.BodyHash})
	}
	if a.Hash != b.Hash && a.HeaderHash == b.HeaderHash && a.BodyHash == b.BodyHash {
		// Component hashes agree but the combined hash does not: the
		// fingerprint itself is inconsistent.
		diffs = append(diffs, Difference{Kind: DiffHash, Expected: a.Hash, Actual: b.Hash})
	}
	if a.MissingPattern != b.MissingPattern {
		diffs = append(diffs, Difference{
			Kind:     DiffMissing,
			Expected: string(a.MissingPattern),
			Actual:   string(b.MissingPattern),
		})
	}

	return diffs
}

func compareColumns(a, b *Fingerprint) []Difference {
	var diffs []Difference

	names := make(map[string]bool)
	for n := range a.ElemTypes {
		names[n] = true
	}
	for n := range b.ElemTypes {
		names[n] = true
	}
	ordered := make([]string, 0, len(names))
	for n := range names {
		ordered = append(ordered, n)
	}
	sort.Strings(ordered)

	for _, n := range ordered {
		at, aok := a.ElemTypes[n]
		bt, bok := b.ElemTypes[n]
		switch {
		case aok && !bok:
			diffs = append(diffs, Difference{Kind: DiffColumns, Field: n, Expected: at, Actual: "absent"})
		case !aok && bok:
			diffs = append(diffs, Difference{Kind: DiffColumns, Field: n, Expected: "absent", Actual: bt})
		case at != bt:
			diffs = append(diffs, Difference{Kind: DiffType, Field: n, Expected: at, Actual: bt})
		}
	}
	return diffs
}
