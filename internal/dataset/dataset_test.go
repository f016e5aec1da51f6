package dataset

import (
	"math"
	"testing"

	"github.com/visvikbharti/reprokit/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Dataset
		wantCode errors.ErrorCode
	}{
		{
			name: "valid dataset",
			build: func() *Dataset {
				return New("ok").
					AddFloat64("x", []float64{1, 2, 3}).
					AddString("group", []string{"a", "b", "a"})
			},
		},
		{
			name:     "no columns",
			build:    func() *Dataset { return New("empty") },
			wantCode: errors.ErrCodeDataEmpty,
		},
		{
			name: "unnamed column",
			build: func() *Dataset {
				return New("bad").AddFloat64("", []float64{1})
			},
			wantCode: errors.ErrCodeDataUnnamedColumn,
		},
		{
			name: "ragged columns",
			build: func() *Dataset {
				return New("ragged").
					AddFloat64("x", []float64{1, 2, 3}).
					AddInt64("y", []int64{1, 2})
			},
			wantCode: errors.ErrCodeDataRaggedColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsCode(err, tt.wantCode) {
				t.Errorf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestNaNIsMissing(t *testing.T) {
	d := New("nan").AddFloat64("x", []float64{1, math.NaN(), 3})

	if got := d.MissingCount(); got != 1 {
		t.Errorf("expected 1 missing cell, got %d", got)
	}
	if !d.Columns[0].Missing[1] {
		t.Error("NaN cell should be marked missing")
	}
}

func TestSetMissing(t *testing.T) {
	d := New("miss").
		AddFloat64("x", []float64{1, 2, 3}).
		AddString("label", []string{"a", "b", "c"})

	d.SetMissing("x", 2)
	d.SetMissing("label", 0)
	d.SetMissing("x", 99) // out of range, ignored
	d.SetMissing("absent", 0)

	if got := d.MissingCount(); got != 2 {
		t.Errorf("expected 2 missing cells, got %d", got)
	}
	if !math.IsNaN(d.Columns[0].Floats[2]) {
		t.Error("missing numeric cell should hold NaN")
	}
}

func TestShape(t *testing.T) {
	d := New("shaped").
		AddFloat64("x", []float64{1, 2, 3, 4}).
		AddInt64("y", []int64{1, 2, 3, 4})

	rows, cols := d.Shape()
	if rows != 4 || cols != 2 {
		t.Errorf("expected 4x2, got %dx%d", rows, cols)
	}
}

func TestValueRoundTrip(t *testing.T) {
	d := New("trip").
		AddFloat64("x", []float64{1.5, math.NaN(), -2.25}).
		AddInt64("n", []int64{10, 20, 30}).
		AddString("group", []string{"a", "", "b"})
	d.SetMissing("n", 1)

	got, err := FromValue("trip", d.ToValue())
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}

	if gr, gc := got.Shape(); gr != 3 || gc != 3 {
		t.Fatalf("expected 3x3, got %dx%d", gr, gc)
	}
	if got.MissingCount() != 2 {
		t.Errorf("expected 2 missing cells, got %d", got.MissingCount())
	}

	x := got.Column("x")
	if x == nil || x.Type != Float64 {
		t.Fatal("x column lost its type")
	}
	if x.Floats[0] != 1.5 || !math.IsNaN(x.Floats[1]) || x.Floats[2] != -2.25 {
		t.Errorf("x column values changed: %v", x.Floats)
	}

	n := got.Column("n")
	if n == nil || n.Type != Int64 {
		t.Fatal("n column lost its type")
	}
	if n.Ints[0] != 10 || n.Ints[2] != 30 {
		t.Errorf("n column values changed: %v", n.Ints)
	}

	g := got.Column("group")
	if g == nil || g.Type != String {
		t.Fatal("group column lost its type")
	}
	if g.Labels[2] != "b" {
		t.Errorf("group column values changed: %v", g.Labels)
	}
}

func TestEstimatedBytes(t *testing.T) {
	d := New("sized").AddFloat64("x", make([]float64, 100))
	if got := d.EstimatedBytes(); got < 800 {
		t.Errorf("estimate too small for 100 floats: %d", got)
	}
}
