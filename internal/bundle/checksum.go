package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/visvikbharti/reprokit/internal/capture"
	"github.com/visvikbharti/reprokit/internal/fingerprint"
	"github.com/visvikbharti/reprokit/internal/pipeline"
	"github.com/visvikbharti/reprokit/internal/seed"
	"github.com/visvikbharti/reprokit/internal/value"
)

// checksumPayload is the canonical content the checksum covers. Step
// durations and start times are wall clock and deliberately excluded:
// only structural and parameter content participates in verification.
// Everything else (fingerprints, decisions, seeds, states, embedded
// data, metadata) is covered, so the checksum changes iff any
// constituent content changes.
type checksumPayload struct {
	SchemaVersion string                              `json:"schema_version"`
	ID            string                              `json:"id"`
	Title         string                              `json:"title"`
	Description   string                              `json:"description"`
	Environment   Environment                         `json:"environment"`
	Fingerprints  map[string]*fingerprint.Fingerprint `json:"fingerprints"`
	Steps         map[string]stepContent              `json:"steps"`
	StepOrder     []string                            `json:"step_order"`
	Decisions     []decisionContent                   `json:"decisions"`
	SeedState     seed.SeedState                      `json:"seed_state"`
	States        capture.Snapshot                    `json:"states"`
	Data          map[string]value.Value              `json:"data"`
	SkippedData   []SkippedData                       `json:"skipped_data"`
	MethodsText   string                              `json:"methods_text"`
	Metadata      map[string]string                   `json:"metadata"`
}

type stepContent struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Module   string      `json:"module"`
	Function string      `json:"function"`
	Params   value.Value `json:"params"`
	Output   value.Value `json:"output"`
	Warnings []string    `json:"warnings"`
	Errors   []string    `json:"errors"`
	ParentID string      `json:"parent_id"`
	ChildIDs []string    `json:"child_ids"`
}

type decisionContent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Options    []string    `json:"options"`
	Chosen     string      `json:"chosen"`
	Rationale  string      `json:"rationale"`
	Automated  bool        `json:"automated"`
	Confidence *float64    `json:"confidence"`
	Supporting value.Value `json:"supporting"`
}

func computeChecksum(b *Bundle) (string, error) {
	// Nil and empty collections canonicalize identically: gob drops empty
	// maps and slices on the wire, and the checksum must survive any
	// format round trip.
	payload := checksumPayload{
		SchemaVersion: b.SchemaVersion,
		ID:            b.ID,
		Title:         b.Title,
		Description:   b.Description,
		Environment:   b.Environment,
		Fingerprints:  orEmptyMap(b.Fingerprints),
		Steps:         make(map[string]stepContent, len(b.Steps)),
		StepOrder:     orEmptySlice(b.StepOrder),
		Decisions:     make([]decisionContent, 0, len(b.Decisions)),
		SeedState:     b.SeedState,
		States:        capture.Snapshot{Modules: orEmptyMap(b.States.Modules)},
		Data:          orEmptyMap(b.Data),
		SkippedData:   orEmptySlice(b.SkippedData),
		MethodsText:   b.MethodsText,
		Metadata:      orEmptyMap(b.Metadata),
	}
	payload.SeedState.Derived = orEmptyMap(payload.SeedState.Derived)

	for id, s := range b.Steps {
		payload.Steps[id] = stepContentOf(s)
	}
	for _, d := range b.Decisions {
		payload.Decisions = append(payload.Decisions, decisionContentOf(d))
	}

	// encoding/json writes struct fields in declaration order and map
	// keys sorted, so the marshaled payload is canonical.
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func orEmptyMap[M ~map[string]V, V any](m M) M {
	if m == nil {
		return make(M)
	}
	return m
}

func orEmptySlice[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}

func stepContentOf(s *pipeline.Step) stepContent {
	return stepContent{
		ID:       s.ID,
		Name:     s.Name,
		Module:   s.Module,
		Function: s.Function,
		Params:   s.Params,
		Output:   s.Output,
		Warnings: s.Warnings,
		Errors:   s.Errors,
		ParentID: s.ParentID,
		ChildIDs: s.ChildIDs,
	}
}

func decisionContentOf(d pipeline.Decision) decisionContent {
	return decisionContent{
		ID:         d.ID,
		Type:       d.Type,
		Options:    d.Options,
		Chosen:     d.Chosen,
		Rationale:  d.Rationale,
		Automated:  d.Automated,
		Confidence: d.Confidence,
		Supporting: d.Supporting,
	}
}
