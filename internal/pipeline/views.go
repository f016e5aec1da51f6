package pipeline

import (
	"sort"
	"time"
)

// GraphNode is one step in the derived pipeline graph view
type GraphNode struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Module   string        `json:"module"`
	Failed   bool          `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// GraphEdge is a parent -> child link in the derived graph view
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a read-only node/edge view of the step tree for audit and
// visualization by external collaborators.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Graph derives the node/edge view of the recorded step tree
func (t *Tracker) Graph() Graph {
	g := Graph{}
	for _, id := range t.order {
		s := t.steps[id]
		g.Nodes = append(g.Nodes, GraphNode{
			ID:       s.ID,
			Name:     s.Name,
			Module:   s.Module,
			Failed:   len(s.Errors) > 0,
			Duration: s.Duration,
		})
		for _, child := range s.ChildIDs {
			g.Edges = append(g.Edges, GraphEdge{From: s.ID, To: child})
		}
	}
	return g
}

// EventKind distinguishes timeline entries
type EventKind string

const (
	EventStep     EventKind = "step"
	EventDecision EventKind = "decision"
)

// TimelineEvent is one entry in the chronological merge of steps and
// decisions.
type TimelineEvent struct {
	Kind   EventKind `json:"kind"`
	At     time.Time `json:"at"`
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Failed bool      `json:"failed,omitempty"`
}

// Timeline merges steps and decisions into one chronological view
func (t *Tracker) Timeline() []TimelineEvent {
	events := make([]TimelineEvent, 0, len(t.order)+len(t.decisions))
	for _, id := range t.order {
		s := t.steps[id]
		events = append(events, TimelineEvent{
			Kind:   EventStep,
			At:     s.StartedAt,
			ID:     s.ID,
			Label:  s.Name,
			Failed: len(s.Errors) > 0,
		})
	}
	for _, d := range t.decisions {
		events = append(events, TimelineEvent{
			Kind:  EventDecision,
			At:    d.At,
			ID:    d.ID,
			Label: d.Type + ": " + d.Chosen,
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	return events
}
