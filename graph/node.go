package graph

import "context"

// Node represents a processing unit in the workflow graph.
// It receives state of type S, performs computation, and returns a
// NodeResult carrying a partial state update and a routing decision.
//
// Nodes are the fundamental building blocks of a Dayroom workflow. Each
// node can:
//   - Read the current state
//   - Perform computation (call a reasoning model, the catalog, or custom logic)
//   - Return state modifications via Delta
//   - Control routing via Route (or leave it to edge-based routing)
//   - Suspend the run pending external input
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	Run(ctx context.Context, state S) NodeResult[S]
}

// Contract declares a node's state-field footprint. Nodes that implement it
// get write-set enforcement: any delta field outside Writes is a contract
// violation reported as a WriteSetError, never silently dropped.
//
// Field names are the JSON names of the state's top-level fields.
type Contract interface {
	// Reads lists the state fields the node consumes.
	Reads() []string

	// Writes lists the state fields the node is permitted to set.
	Writes() []string
}

// ItemNode is a node whose work fans out per item. The engine runs RunItem
// once per element of Items, bounded by the configured concurrency limit
// and per-item timeout, then hands the collected mapping to Merge.
//
// Item invocations receive a read-only snapshot of the state taken when the
// node started; they must not retain or mutate it. Each invocation owns
// exactly one key of the result mapping, so no two invocations ever contend.
type ItemNode[S any] interface {
	// Items returns the item identifiers to fan out over, in any order.
	Items(state S) []string

	// RunItem performs the per-item work and returns the item's result.
	// A returned error (or a timeout) is recoverable: the engine records
	// the configured sentinel value for that item and the run continues.
	RunItem(ctx context.Context, state S, item string) (string, error)

	// Merge folds the collected mapping (exactly one entry per item) into a
	// NodeResult, exactly as a single-invocation node's Run would.
	Merge(state S, results map[string]string) NodeResult[S]
}

// Suspender is implemented by nodes that can halt the run pending external
// input. RequiredInput reports the state fields still missing; an empty
// slice means the requirement is satisfied.
//
// The engine consults RequiredInput on Resume: if fields are still missing
// the run suspends again at the same node rather than proceeding with
// partial data.
type Suspender[S any] interface {
	RequiredInput(state S) []string
}

// NodeResult represents the output of a node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node. It is merged
	// with the current state via the configured reducer.
	Delta S

	// Route specifies the next step. Leave zero to fall back to edge-based
	// routing; use Stop(), Goto(id), or Suspend(fields...) for explicit
	// control.
	Route Next

	// Err contains any error from node execution. A non-nil error aborts
	// the run; the engine does not retry or substitute a value.
	Err error
}

// Next specifies the next step in workflow execution after a node completes.
type Next struct {
	// To routes to a specific node, overriding edge-based routing.
	To string

	// Terminal stops the run normally.
	Terminal bool

	// Suspended halts the run pending external input. The engine returns
	// the current state to the caller without visiting further nodes.
	Suspended bool

	// Missing names the state fields the caller must supply before the run
	// can be resumed. Only meaningful when Suspended is true.
	Missing []string
}

// Stop returns a Next that terminates workflow execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// Suspend returns a Next that halts the run pending the named missing
// fields. Suspension is a normal halting condition, not an error.
func Suspend(missing ...string) Next {
	return Next{Suspended: true, Missing: missing}
}

// NodeFunc is a function adapter that implements the Node interface,
// allowing plain functions to serve as nodes.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}
