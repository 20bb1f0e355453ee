package graph

// Edge represents a directed connection between two nodes in the workflow
// graph.
//
// Edges define the control flow between nodes. They can be:
//   - Unconditional (default): always traversable (When = nil).
//   - Guarded: traversable only when the predicate returns true (When != nil).
//
// A node may have at most one unconditional out-edge plus any number of
// guarded out-edges. Guarded edges are evaluated in registration order and
// the first match wins; the unconditional edge, if present, is the fallback
// when no guard matches.
//
// An edge may target End instead of a node, declaring graph-level
// termination: traversing it ends the run normally.
//
// Type parameter S is the state type used for predicate evaluation.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When is an optional predicate guarding traversal. Nil means the edge
	// is the node's default.
	When Predicate[S]
}

// End is the reserved edge target that terminates the run. Nodes may also
// terminate explicitly by returning Stop().
const End = "__end__"

// Predicate is a function that evaluates state to decide whether a guarded
// edge should be traversed.
//
// Predicates must be pure functions of the state: deterministic, no side
// effects, no external calls. Routing stays replayable because of this.
//
// Common patterns:
//   - Threshold: state.Confidence >= 0.6
//   - Presence: state.FinalAnswer != ""
//   - Boolean flag: state.TranscriptOnly
//
// Type parameter S is the state type to evaluate.
type Predicate[S any] func(state S) bool
