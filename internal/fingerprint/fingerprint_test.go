package fingerprint

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/visvikbharti/reprokit/internal/dataset"
	"github.com/visvikbharti/reprokit/internal/errors"
)

func sample() *dataset.Dataset {
	return dataset.New("trial").
		AddFloat64("outcome", []float64{1.2, 3.4, 5.6, 7.8}).
		AddInt64("arm", []int64{0, 1, 0, 1}).
		AddString("site", []string{"a", "a", "b", "b"})
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	if a.Hash != b.Hash {
		t.Errorf("same content hashed differently: %s vs %s", a.Hash, b.Hash)
	}
	if a.HeaderHash != b.HeaderHash || a.BodyHash != b.BodyHash {
		t.Error("component hashes differ for identical content")
	}
}

func TestFingerprintLayoutIndependent(t *testing.T) {
	// Same logical content, different physical column order.
	reordered := dataset.New("trial").
		AddString("site", []string{"a", "a", "b", "b"}).
		AddInt64("arm", []int64{0, 1, 0, 1}).
		AddFloat64("outcome", []float64{1.2, 3.4, 5.6, 7.8})

	a, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := New(reordered, "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	if a.Hash != b.Hash {
		t.Error("column order must not affect the fingerprint")
	}
}

func TestFingerprintSensitiveToOneCell(t *testing.T) {
	changed := sample()
	changed.Columns[0].Floats[2] = 5.6000001

	a, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := New(changed, "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	if a.Hash == b.Hash {
		t.Error("one changed cell must change the hash")
	}
	if a.HeaderHash != b.HeaderHash {
		t.Error("a value change must not disturb the header hash")
	}
	if a.BodyHash == b.BodyHash {
		t.Error("a value change must change the body hash")
	}
}

func TestFingerprintSchemaChangeHitsHeader(t *testing.T) {
	renamed := dataset.New("trial").
		AddFloat64("outcome2", []float64{1.2, 3.4, 5.6, 7.8}).
		AddInt64("arm", []int64{0, 1, 0, 1}).
		AddString("site", []string{"a", "a", "b", "b"})

	a, _ := New(sample(), "trial")
	b, _ := New(renamed, "trial")

	if a.HeaderHash == b.HeaderHash {
		t.Error("a renamed column must change the header hash")
	}
}

func TestFingerprintNaNStable(t *testing.T) {
	// All NaN bit patterns hash identically.
	quiet := dataset.New("nan").AddFloat64("x", []float64{1, math.NaN(), 3})
	bits := math.Float64frombits(0x7FF0000000000001) // a signaling-style NaN
	other := dataset.New("nan").AddFloat64("x", []float64{1, bits, 3})

	a, err := New(quiet, "nan")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := New(other, "nan")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if a.Hash != b.Hash {
		t.Error("NaN payload bits must not affect the hash")
	}
}

func TestFingerprintRejectsInvalid(t *testing.T) {
	_, err := New(dataset.New("empty"), "empty")
	if !errors.IsCode(err, errors.ErrCodeDataEmpty) {
		t.Errorf("expected DATA-001, got %v", err)
	}
}

func TestMissingPatternClassification(t *testing.T) {
	tests := []struct {
		name  string
		build func() *dataset.Dataset
		want  MissingPattern
	}{
		{
			name:  "none",
			build: func() *dataset.Dataset { return sample() },
			want:  MissingNone,
		},
		{
			name: "random",
			build: func() *dataset.Dataset {
				d := sample()
				d.SetMissing("outcome", 1)
				return d
			},
			want: MissingRandom,
		},
		{
			name: "systematic full column",
			build: func() *dataset.Dataset {
				d := sample()
				for r := 0; r < 4; r++ {
					d.SetMissing("outcome", r)
				}
				return d
			},
			want: MissingSystematic,
		},
		{
			name: "systematic full row",
			build: func() *dataset.Dataset {
				d := sample()
				d.SetMissing("outcome", 2)
				d.SetMissing("arm", 2)
				d.SetMissing("site", 2)
				return d
			},
			want: MissingSystematic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := New(tt.build(), "trial")
			if err != nil {
				t.Fatalf("fingerprint: %v", err)
			}
			if fp.MissingPattern != tt.want {
				t.Errorf("expected %s, got %s", tt.want, fp.MissingPattern)
			}
		})
	}
}

func TestSummaryStats(t *testing.T) {
	fp, err := New(sample(), "trial")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	stats, ok := fp.Summary["outcome"]
	if !ok {
		t.Fatal("numeric column should have summary stats")
	}
	if stats.N != 4 {
		t.Errorf("expected n=4, got %d", stats.N)
	}
	if stats.Min != 1.2 || stats.Max != 7.8 {
		t.Errorf("unexpected min/max: %v/%v", stats.Min, stats.Max)
	}
	if math.Abs(stats.Mean-4.5) > 1e-12 {
		t.Errorf("unexpected mean: %v", stats.Mean)
	}

	if _, ok := fp.Summary["site"]; ok {
		t.Error("string column must not have numeric stats")
	}
}

func TestFullyMissingColumnSurvivesJSON(t *testing.T) {
	d := dataset.New("gaps").
		AddFloat64("x", []float64{1, 2, 3}).
		AddFloat64("gap", []float64{math.NaN(), math.NaN(), math.NaN()})

	fp, err := New(d, "gaps")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fp.MissingPattern != MissingSystematic {
		t.Errorf("expected systematic pattern, got %s", fp.MissingPattern)
	}

	gap := fp.Summary["gap"]
	if gap.N != 0 {
		t.Errorf("fully-missing column should have n=0, got %d", gap.N)
	}
	if !math.IsNaN(gap.Mean) || !math.IsNaN(gap.Min) {
		t.Errorf("fully-missing column stats should be NaN, got %+v", gap)
	}

	data, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("NaN stats must not break JSON encoding: %v", err)
	}

	var back Fingerprint
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.Summary["gap"]
	if got.N != 0 || !math.IsNaN(got.Mean) || !math.IsNaN(got.Std) ||
		!math.IsNaN(got.Min) || !math.IsNaN(got.Max) {
		t.Errorf("NaN stats lost in round trip: %+v", got)
	}
}

func TestInfiniteCellSurvivesJSON(t *testing.T) {
	d := dataset.New("inf").AddFloat64("x", []float64{1, math.Inf(1), 3})

	fp, err := New(d, "inf")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	data, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("infinite stats must not break JSON encoding: %v", err)
	}

	var back Fingerprint
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.Summary["x"]
	if !math.IsInf(got.Max, 1) || !math.IsInf(got.Mean, 1) {
		t.Errorf("infinities lost in round trip: %+v", got)
	}
	if got.Min != 1 {
		t.Errorf("expected min=1, got %v", got.Min)
	}
}
