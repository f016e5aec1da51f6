package bundle

import (
	"time"

	"github.com/google/uuid"

	"github.com/visvikbharti/reprokit/internal/capture"
	"github.com/visvikbharti/reprokit/internal/dataset"
	"github.com/visvikbharti/reprokit/internal/errors"
	"github.com/visvikbharti/reprokit/internal/fingerprint"
	"github.com/visvikbharti/reprokit/internal/pipeline"
	"github.com/visvikbharti/reprokit/internal/seed"
	"github.com/visvikbharti/reprokit/internal/value"
)

// Options configures bundle building
type Options struct {
	// MaxEmbedBytes is the ceiling on raw dataset embedding. A dataset
	// whose estimated footprint exceeds it is recorded as skipped with
	// the size_limit reason rather than silently included.
	MaxEmbedBytes int64
}

// DefaultOptions returns the standard builder configuration
func DefaultOptions() Options {
	return Options{
		MaxEmbedBytes: 8 << 20, // 8 MiB
	}
}

// Builder accumulates an analysis session's reproducibility record.
// It is append-only: fingerprints, steps and decisions go in and never
// come back out or get rewritten. Seal produces the immutable Bundle
// exactly once; every append after sealing fails loudly instead of
// silently invalidating the checksum.
type Builder struct {
	opts   Options
	bundle *Bundle
	sealed bool
}

// New creates a builder for a new analysis session. Environment metadata
// is captured immediately.
func New(title, description string) *Builder {
	return NewWithOptions(title, description, DefaultOptions())
}

// NewWithOptions creates a builder with explicit options
func NewWithOptions(title, description string, opts Options) *Builder {
	return &Builder{
		opts: opts,
		bundle: &Bundle{
			SchemaVersion: SchemaVersion,
			ID:            uuid.NewString(),
			Title:         title,
			Description:   description,
			CreatedAt:     time.Now().UTC(),
			Environment:   CaptureEnvironment(),
			Fingerprints:  make(map[string]*fingerprint.Fingerprint),
			Steps:         make(map[string]*pipeline.Step),
			Metadata:      make(map[string]string),
		},
	}
}

// ID returns the bundle id assigned at creation
func (b *Builder) ID() string {
	return b.bundle.ID
}

func (b *Builder) guard() error {
	if b.sealed {
		return errors.New(errors.ErrCodeBundleSealed,
			"bundle already sealed; further appends would invalidate the checksum").
			WithSuggestion("start a new builder for a new analysis session")
	}
	return nil
}

// AddFingerprint records a dataset fingerprint. Fingerprint names are
// unique within a bundle.
func (b *Builder) AddFingerprint(fp *fingerprint.Fingerprint) error {
	if err := b.guard(); err != nil {
		return err
	}
	if _, exists := b.bundle.Fingerprints[fp.Name]; exists {
		return errors.Newf(errors.ErrCodeBundleDuplicateData,
			"dataset %q already fingerprinted in this bundle", fp.Name)
	}
	b.bundle.Fingerprints[fp.Name] = fp
	return nil
}

// AddDataset fingerprints ds under the given name and embeds its raw
// values when they fit under the embedding ceiling. Oversized datasets
// keep their fingerprint and gain a skip record instead of raw data.
func (b *Builder) AddDataset(ds *dataset.Dataset, name string) (*fingerprint.Fingerprint, error) {
	if err := b.guard(); err != nil {
		return nil, err
	}

	fp, err := fingerprint.New(ds, name)
	if err != nil {
		return nil, err
	}
	if err := b.AddFingerprint(fp); err != nil {
		return nil, err
	}

	if est := ds.EstimatedBytes(); est > b.opts.MaxEmbedBytes {
		b.bundle.SkippedData = append(b.bundle.SkippedData, SkippedData{
			Name:           name,
			Reason:         SkipReasonSizeLimit,
			EstimatedBytes: est,
		})
		return fp, nil
	}

	if b.bundle.Data == nil {
		b.bundle.Data = make(map[string]value.Value)
	}
	b.bundle.Data[name] = ds.ToValue()
	return fp, nil
}

// AddPipeline copies the tracker's recorded steps and decisions into the
// bundle.
func (b *Builder) AddPipeline(t *pipeline.Tracker) error {
	if err := b.guard(); err != nil {
		return err
	}
	for _, s := range t.Steps() {
		b.bundle.Steps[s.ID] = s
	}
	b.bundle.StepOrder = append(b.bundle.StepOrder, t.StepOrder()...)
	b.bundle.Decisions = append(b.bundle.Decisions, t.Decisions()...)
	return nil
}

// SetSeedState records the session's seed state
func (b *Builder) SetSeedState(st seed.SeedState) error {
	if err := b.guard(); err != nil {
		return err
	}
	b.bundle.SeedState = st
	return nil
}

// SetStates records the captured module states
func (b *Builder) SetStates(snap capture.Snapshot) error {
	if err := b.guard(); err != nil {
		return err
	}
	b.bundle.States = snap
	return nil
}

// SetMethodsText attaches generated methods text
func (b *Builder) SetMethodsText(text string) error {
	if err := b.guard(); err != nil {
		return err
	}
	b.bundle.MethodsText = text
	return nil
}

// SetMetadata records one metadata key/value pair
func (b *Builder) SetMetadata(key, val string) error {
	if err := b.guard(); err != nil {
		return err
	}
	b.bundle.Metadata[key] = val
	return nil
}

// Seal validates the accumulated content, computes the checksum, and
// returns the immutable sealed bundle. The builder refuses all further
// appends afterwards. Seal is the single gate between "accumulating"
// and "trustworthy": nothing should treat an unsealed bundle as
// reproducible.
func (b *Builder) Seal() (*Bundle, error) {
	if err := b.guard(); err != nil {
		return nil, err
	}

	if b.bundle.Title == "" {
		return nil, errors.New(errors.ErrCodeBundleMissingField, "bundle title is required")
	}
	if b.bundle.SeedState.Derived == nil {
		return nil, errors.New(errors.ErrCodeBundleMissingField,
			"seed state is required before sealing").
			WithSuggestion("call SetSeedState with the session's seed manager state")
	}

	b.bundle.SealedAt = time.Now().UTC()

	sum, err := computeChecksum(b.bundle)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBundleChecksum, "compute checksum", err)
	}
	b.bundle.Checksum = sum
	b.sealed = true

	return b.bundle, nil
}
