package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visvikbharti/reprokit/internal/value"
)

// Step records one tracked operation. Parent and child links are set
// exactly once, at creation and completion, and never mutated afterward;
// the stack discipline in Tracker guarantees the step graph is a tree.
type Step struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Module    string        `json:"module"`
	Function  string        `json:"function,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Params    value.Value   `json:"params"`
	Output    value.Value   `json:"output"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
	ParentID  string        `json:"parent_id,omitempty"`
	ChildIDs  []string      `json:"child_ids,omitempty"`
}

// Decision records why a branch was taken, independent of the step tree.
// Append-only: a decision is never revised after recording.
type Decision struct {
	ID         string      `json:"id"`
	At         time.Time   `json:"at"`
	Type       string      `json:"type"`
	Options    []string    `json:"options"`
	Chosen     string      `json:"chosen"`
	Rationale  string      `json:"rationale"`
	Automated  bool        `json:"automated"`
	Confidence *float64    `json:"confidence,omitempty"`
	Supporting value.Value `json:"supporting,omitempty"`
}

// Tracker builds the tree of executed steps and the list of recorded
// decisions for one analysis session. It models nesting with a single
// active-step stack and is not safe for concurrent use; use one tracker
// per session.
type Tracker struct {
	steps     map[string]*Step
	order     []string
	stack     []string
	decisions []Decision
	limits    value.Limits
}

// New creates a tracker with default capture limits
func New() *Tracker {
	return NewWithLimits(value.DefaultLimits())
}

// NewWithLimits creates a tracker with explicit capture limits
func NewWithLimits(limits value.Limits) *Tracker {
	return &Tracker{
		steps:  make(map[string]*Step),
		limits: limits,
	}
}

// Track wraps fn in a recorded step. The step is created on entry with a
// bounded capture of params and linked under the currently active step;
// fn then runs unchanged. On success a bounded summary of its result is
// recorded; on failure the error is recorded and returned unchanged.
// A panic in fn is recorded on the step and re-raised after the stack
// unwinds. Tracking never alters control flow or swallows errors. Wall-clock
// duration is recorded for audit but excluded from verification hashes.
func (t *Tracker) Track(name, module string, params map[string]any, fn func() (any, error)) (any, error) {
	step := &Step{
		ID:        uuid.NewString(),
		Name:      name,
		Module:    module,
		StartedAt: time.Now().UTC(),
		Params:    t.captureParams(params),
	}

	if parent := t.activeStep(); parent != nil {
		step.ParentID = parent.ID
		parent.ChildIDs = append(parent.ChildIDs, step.ID)
	}

	t.steps[step.ID] = step
	t.order = append(t.order, step.ID)
	t.stack = append(t.stack, step.ID)

	defer func() {
		step.Duration = time.Since(step.StartedAt)
		t.stack = t.stack[:len(t.stack)-1]
		if r := recover(); r != nil {
			step.Errors = append(step.Errors, fmt.Sprintf("panic: %v", r))
			step.Output = value.Null()
			panic(r)
		}
	}()

	result, err := fn()
	if err != nil {
		step.Errors = append(step.Errors, err.Error())
		step.Output = value.Null()
		return result, err
	}

	step.Output = value.CaptureWithLimits(result, t.limits)
	return result, nil
}

// Warn attaches a warning to the currently active step. Warnings outside
// any tracked step are dropped.
func (t *Tracker) Warn(msg string) {
	if step := t.activeStep(); step != nil {
		step.Warnings = append(step.Warnings, msg)
	}
}

func (t *Tracker) captureParams(params map[string]any) value.Value {
	if len(params) == 0 {
		return value.Map(map[string]value.Value{})
	}
	fields := make(map[string]value.Value, len(params))
	for k, v := range params {
		fields[k] = value.CaptureWithLimits(v, t.limits)
	}
	return value.Map(fields)
}

func (t *Tracker) activeStep() *Step {
	if len(t.stack) == 0 {
		return nil
	}
	return t.steps[t.stack[len(t.stack)-1]]
}

// RecordDecision appends a decision point. Supporting data is captured
// with the tracker's bounds.
func (t *Tracker) RecordDecision(decisionType string, options []string, chosen, rationale string, automated bool, confidence *float64, supporting any) Decision {
	d := Decision{
		ID:         uuid.NewString(),
		At:         time.Now().UTC(),
		Type:       decisionType,
		Options:    append([]string(nil), options...),
		Chosen:     chosen,
		Rationale:  rationale,
		Automated:  automated,
		Confidence: confidence,
		Supporting: value.CaptureWithLimits(supporting, t.limits),
	}
	t.decisions = append(t.decisions, d)
	return d
}

// Steps returns all recorded steps in creation order
func (t *Tracker) Steps() []*Step {
	out := make([]*Step, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.steps[id])
	}
	return out
}

// StepOrder returns the step ids in creation order
func (t *Tracker) StepOrder() []string {
	return append([]string(nil), t.order...)
}

// Step returns the step with the given id, or nil
func (t *Tracker) Step(id string) *Step {
	return t.steps[id]
}

// Decisions returns all recorded decisions in recording order
func (t *Tracker) Decisions() []Decision {
	return append([]Decision(nil), t.decisions...)
}
