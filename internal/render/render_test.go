package render

import (
	"strings"
	"testing"
	"time"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/verify"
)

func TestSummary(t *testing.T) {
	s := bundle.Summary{
		ID:        "id-1",
		Title:     "Primary analysis",
		Checksum:  "abcdef",
		Datasets:  2,
		Steps:     5,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SealedAt:  time.Date(2026, 1, 2, 3, 5, 5, 0, time.UTC),
	}

	out := New().Summary(s)
	for _, want := range []string{"Primary analysis", "id-1", "abcdef"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestReport(t *testing.T) {
	rep := &verify.Report{
		BundleID: "id-1",
		Title:    "Primary analysis",
		Passed:   false,
		Checks: []verify.Check{
			{Name: "seed determinism", Passed: true},
			{
				Name:     "data integrity",
				Passed:   false,
				Details:  []string{`dataset "trial": body_hash mismatch`},
				Warnings: []string{"dataset \"extra\": no live data supplied"},
			},
		},
	}

	out := New().Report(rep)
	for _, want := range []string{
		"PASS", "FAIL",
		"seed determinism", "data integrity",
		"body_hash mismatch",
		"verification failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReportPassed(t *testing.T) {
	rep := &verify.Report{
		Title:  "ok",
		Passed: true,
		Checks: []verify.Check{{Name: "result sanity", Passed: true}},
	}
	out := New().Report(rep)
	if !strings.Contains(out, "verification passed") {
		t.Errorf("passing report should say so:\n%s", out)
	}
}
