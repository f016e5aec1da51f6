package bundle

import (
	"time"

	"github.com/visvikbharti/reprokit/internal/capture"
	"github.com/visvikbharti/reprokit/internal/errors"
	"github.com/visvikbharti/reprokit/internal/fingerprint"
	"github.com/visvikbharti/reprokit/internal/pipeline"
	"github.com/visvikbharti/reprokit/internal/seed"
	"github.com/visvikbharti/reprokit/internal/value"
)

// SchemaVersion is the current bundle schema version
const SchemaVersion = "reprokit.bundle/v1"

// SkipReasonSizeLimit marks a dataset excluded from raw embedding
// because its estimated footprint exceeded the configured ceiling.
const SkipReasonSizeLimit = "size_limit"

// SkippedData records a dataset whose raw values were deliberately not
// embedded, and why. The fingerprint is still present; only the cell
// data is absent.
type SkippedData struct {
	Name           string `json:"name"`
	Reason         string `json:"reason"`
	EstimatedBytes int64  `json:"estimated_bytes"`
}

// Bundle is the sealed, checksummed reproducibility artifact. All fields
// are populated by the Builder before sealing and never mutated after:
// the checksum fixes the content, and any further change must go through
// a new builder.
type Bundle struct {
	SchemaVersion string    `json:"schema_version"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	SealedAt      time.Time `json:"sealed_at"`

	Environment Environment `json:"environment"`

	Fingerprints map[string]*fingerprint.Fingerprint `json:"fingerprints"`

	Steps     map[string]*pipeline.Step `json:"steps"`
	StepOrder []string                  `json:"step_order"`
	Decisions []pipeline.Decision       `json:"decisions"`

	SeedState seed.SeedState   `json:"seed_state"`
	States    capture.Snapshot `json:"states"`

	// Data holds size-bounded raw dataset embeddings as table values
	Data        map[string]value.Value `json:"data,omitempty"`
	SkippedData []SkippedData          `json:"skipped_data,omitempty"`

	MethodsText string            `json:"methods_text,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	// Checksum is the blake3 hash of the bundle's canonical content
	Checksum string `json:"checksum"`
}

// VerifyChecksum recomputes the content checksum and compares it to the
// recorded one.
func (b *Bundle) VerifyChecksum() error {
	got, err := computeChecksum(b)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBundleChecksum, "recompute checksum", err)
	}
	if got != b.Checksum {
		return errors.Newf(errors.ErrCodeBundleChecksum,
			"bundle checksum mismatch: recorded %s, recomputed %s", b.Checksum, got)
	}
	return nil
}

// Summary is the read-only view a sealed bundle exposes to collaborators
// such as the methods-text generator and reporting UIs.
type Summary struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Checksum    string      `json:"checksum"`
	Datasets    int         `json:"datasets"`
	Steps       int         `json:"steps"`
	Decisions   int         `json:"decisions"`
	Modules     int         `json:"modules"`
	SeedModules int         `json:"seed_modules"`
	Environment Environment `json:"environment"`
	CreatedAt   time.Time   `json:"created_at"`
	SealedAt    time.Time   `json:"sealed_at"`
}

// Summary returns the collaborator-facing view of the bundle
func (b *Bundle) Summary() Summary {
	return Summary{
		ID:          b.ID,
		Title:       b.Title,
		Checksum:    b.Checksum,
		Datasets:    len(b.Fingerprints),
		Steps:       len(b.Steps),
		Decisions:   len(b.Decisions),
		Modules:     len(b.States.Modules),
		SeedModules: len(b.SeedState.Derived),
		Environment: b.Environment,
		CreatedAt:   b.CreatedAt,
		SealedAt:    b.SealedAt,
	}
}
