package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dayroom-ai/dayroom/graph/emit"
	"github.com/dayroom-ai/dayroom/graph/store"
)

// Engine orchestrates stateful workflow execution with suspend/resume
// support.
//
// The Engine is the core runtime that:
//   - Manages workflow graph topology (nodes and edges)
//   - Validates the graph before the first run
//   - Executes nodes strictly in graph order
//   - Fans out per-item nodes with bounded concurrency
//   - Merges state updates via the reducer and enforces node write-sets
//   - Persists state at each step via the store (suspension points included)
//   - Emits observability events via the emitter
//
// A single run proceeds through nodes sequentially; the only concurrency is
// inside a per-item node's fan-out. Run State is exclusively owned by its
// run; the engine never shares a state value between runs.
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	engine := graph.New(reduce, store.NewMemStore[MyState](), emit.NewLogEmitter(os.Stdout, false))
//	engine.Add("hello", helloNode)
//	engine.StartAt("hello")
//	final, err := engine.Run(ctx, "run-001", MyState{Question: "hi"})
type Engine[S any] struct {
	mu sync.RWMutex

	// reducer merges partial state updates deterministically
	reducer Reducer[S]

	// nodes maps node IDs to their registrations
	nodes map[string]registeredNode[S]

	// edges defines transitions between nodes, in registration order
	edges []Edge[S]

	// startNode is the entry point for workflow execution
	startNode string

	// store persists workflow state and suspension points
	store store.Store[S]

	// emitter receives observability events
	emitter emit.Emitter

	// opts contains execution configuration
	opts Options

	// validated caches a successful Validate so repeated runs skip the pass
	validated bool
}

type registeredNode[S any] struct {
	node Node[S]     // set for single-invocation nodes
	item ItemNode[S] // set for per-item nodes

	// declared write-set, nil when the node carries no Contract
	writes      []string
	hasContract bool
}

// New creates a new Engine with the given reducer, store, emitter, and
// options.
//
// The reducer and store are required for Run; the emitter may be nil
// (emissions are skipped). Validation of the full configuration happens on
// the first Run, not here, so graphs can be assembled in any order.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts ...Option) *Engine[S] {
	cfg := engineConfig{opts: defaultOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]registeredNode[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		opts:    cfg.opts,
	}
}

// Add registers a single-invocation node in the workflow graph.
//
// Node IDs must be unique within the workflow. If the node implements
// Contract, its write-set is enforced on every delta it produces.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	reg := registeredNode[S]{node: node}
	if c, ok := node.(Contract); ok {
		reg.writes = c.Writes()
		reg.hasContract = true
	}
	return e.register(nodeID, reg)
}

// AddItems registers a per-item node. The engine fans its RunItem out over
// Items with bounded concurrency and a per-item timeout, records the
// configured sentinel for items that fail or time out, and hands the
// complete mapping to Merge.
func (e *Engine[S]) AddItems(nodeID string, node ItemNode[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	reg := registeredNode[S]{item: node}
	if c, ok := node.(Contract); ok {
		reg.writes = c.Writes()
		reg.hasContract = true
	}
	return e.register(nodeID, reg)
}

func (e *Engine[S]) register(nodeID string, reg registeredNode[S]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    "DUPLICATE_NODE",
		}
	}

	e.nodes[nodeID] = reg
	e.validated = false
	return nil
}

// StartAt sets the entry point for workflow execution. The node must have
// been registered before calling StartAt.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + nodeID,
			Code:    "NODE_NOT_FOUND",
		}
	}

	e.startNode = nodeID
	e.validated = false
	return nil
}

// Connect creates an edge between two nodes.
//
// A nil predicate registers the node's default (unconditional) edge; a node
// may have at most one. Guarded edges are evaluated in the order they were
// connected, so registration order is the tie-break when multiple
// predicates could match. The target may be End to terminate the run.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	e.validated = false
	return nil
}

// Run executes the workflow from the entry node until it reaches a terminal
// route or a suspension point, returning the accumulated state either way.
//
// This is the driver's `start` operation. A suspended run is indicated by
// the state itself (the suspending node sets its awaiting-input fields in
// its own write-set); continue it with Resume.
//
// On error the returned state is the zero value, so partial state is never
// presented as a valid result.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if err := e.checkConfig(); err != nil {
		return zero, err
	}
	if err := e.Validate(); err != nil {
		return zero, err
	}

	e.mu.RLock()
	start := e.startNode
	e.mu.RUnlock()

	return e.run(ctx, runID, initial, start, 0)
}

// Resume continues a previously suspended run. The supplied state must be
// the state returned at suspension, with the missing fields filled in by
// the caller.
//
// The suspending node's external logic is not re-run on a successful
// resume: execution continues at the node that follows it. If the state
// still lacks the required input (per the node's Suspender contract), the
// same node runs again and suspends again. A suspension is never silently
// dropped.
func (e *Engine[S]) Resume(ctx context.Context, runID string, prior S) (S, error) {
	var zero S

	if err := e.checkConfig(); err != nil {
		return zero, err
	}
	if err := e.Validate(); err != nil {
		return zero, err
	}

	// The suspension point is the run's last persisted step.
	_, cpStep, err := e.store.LoadCheckpoint(ctx, suspendCheckpointID(runID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, ErrRunNotFound
		}
		return zero, &EngineError{Message: "failed to load suspension: " + err.Error(), Code: "STORE_ERROR"}
	}
	_, lastStep, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return zero, &EngineError{Message: "failed to load run: " + err.Error(), Code: "STORE_ERROR"}
	}
	if lastStep != cpStep {
		// The run moved past the recorded suspension.
		return zero, ErrNotSuspended
	}

	suspendedAt, err := e.store.StepNode(ctx, runID, lastStep)
	if err != nil {
		return zero, &EngineError{Message: "failed to load suspension node: " + err.Error(), Code: "STORE_ERROR"}
	}

	e.mu.RLock()
	reg, exists := e.nodes[suspendedAt]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{Message: "suspended node no longer registered: " + suspendedAt, Code: "NODE_NOT_FOUND"}
	}

	e.emit(emit.Event{RunID: runID, Step: lastStep, NodeID: suspendedAt, Msg: "run_resuming"})

	// Still missing input: the suspending node runs again and re-suspends.
	if reg.node != nil {
		if s, ok := reg.node.(Suspender[S]); ok {
			if missing := s.RequiredInput(prior); len(missing) > 0 {
				return e.run(ctx, runID, prior, suspendedAt, lastStep)
			}
		}
	}

	// Requirement satisfied: route onward without re-running the suspender.
	next, err := e.evaluateEdges(suspendedAt, prior)
	if err != nil {
		if e.opts.Metrics != nil {
			e.opts.Metrics.IncrementRoutingFailures(suspendedAt)
		}
		return zero, err
	}
	if next == End {
		return prior, nil
	}

	return e.run(ctx, runID, prior, next, lastStep)
}

func (e *Engine[S]) checkConfig() error {
	if e.reducer == nil {
		return &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.startNode == "" {
		return &EngineError{Message: "start node not set (call StartAt before Run)", Code: "NO_START_NODE"}
	}
	return nil
}

// run is the shared execution loop behind Run and Resume.
func (e *Engine[S]) run(ctx context.Context, runID string, initial S, startNode string, startStep int) (S, error) {
	var zero S

	currentState := initial
	currentNode := startNode
	step := startStep

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, ErrMaxStepsExceeded
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		reg, exists := e.nodes[currentNode]
		e.mu.RUnlock()
		if !exists {
			return zero, &EngineError{
				Message: "node not found during execution: " + currentNode,
				Code:    "NODE_NOT_FOUND",
			}
		}

		e.emit(emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: "node_start"})
		started := time.Now()

		var result NodeResult[S]
		var execErr error
		if reg.item != nil {
			result, execErr = e.runItemNode(ctx, runID, step, currentNode, reg.item, currentState)
		} else {
			result, execErr = executeNodeWithTimeout(ctx, reg.node, currentNode, currentState, e.opts.DefaultNodeTimeout)
		}
		if execErr != nil {
			e.recordNode(runID, currentNode, started, "error")
			return zero, execErr
		}

		if result.Err != nil {
			e.recordNode(runID, currentNode, started, "error")
			var nodeErr *NodeError
			if errors.As(result.Err, &nodeErr) {
				return zero, result.Err
			}
			return zero, &NodeError{NodeID: currentNode, Message: result.Err.Error(), Cause: result.Err}
		}

		if reg.hasContract {
			if err := checkWriteSet(currentNode, result.Delta, reg.writes); err != nil {
				e.recordNode(runID, currentNode, started, "error")
				return zero, err
			}
		}

		currentState = e.reducer(currentState, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{Message: "failed to save step: " + err.Error(), Code: "STORE_ERROR"}
		}

		e.recordNode(runID, currentNode, started, "success")
		e.emit(emit.Event{
			RunID: runID, Step: step, NodeID: currentNode, Msg: "node_end",
			Meta: map[string]interface{}{"duration_ms": time.Since(started).Milliseconds()},
		})

		if result.Route.Suspended {
			// Mark the suspension so Resume can find the point of halt.
			if err := e.store.SaveCheckpoint(ctx, suspendCheckpointID(runID), currentState, step); err != nil {
				return zero, &EngineError{Message: "failed to save suspension: " + err.Error(), Code: "STORE_ERROR"}
			}
			if e.opts.Metrics != nil {
				e.opts.Metrics.IncrementSuspensions(currentNode)
			}
			e.emit(emit.Event{
				RunID: runID, Step: step, NodeID: currentNode, Msg: "run_suspended",
				Meta: map[string]interface{}{"missing": result.Route.Missing},
			})
			return currentState, nil
		}

		if result.Route.Terminal {
			return currentState, nil
		}

		if result.Route.To != "" {
			currentNode = result.Route.To
			continue
		}

		next, err := e.evaluateEdges(currentNode, currentState)
		if err != nil {
			if e.opts.Metrics != nil {
				e.opts.Metrics.IncrementRoutingFailures(currentNode)
			}
			return zero, err
		}
		if next == End {
			return currentState, nil
		}
		currentNode = next
	}
}

// runItemNode executes a per-item node: snapshot the state, fan RunItem out
// over the items through the executor, then Merge the complete mapping.
func (e *Engine[S]) runItemNode(ctx context.Context, runID string, step int, nodeID string, node ItemNode[S], state S) (NodeResult[S], error) {
	var zero NodeResult[S]

	// Item invocations see the state as it was when the node started, never
	// each other's writes.
	snapshot, err := deepCopy(state)
	if err != nil {
		return zero, &EngineError{Message: "failed to snapshot state: " + err.Error(), Code: "STATE_COPY_FAILED"}
	}

	items := node.Items(snapshot)
	results, itemErrs, err := RunPerItem(ctx, snapshot, items, node.RunItem, FanOutOptions{
		Limit:       e.opts.FanOutLimit,
		ItemTimeout: e.opts.ItemTimeout,
		Sentinel:    e.opts.Sentinel,
		Metrics:     e.opts.Metrics,
	})
	if err != nil {
		// Run-level cancellation: partial results are discarded.
		return zero, err
	}

	for _, ie := range itemErrs {
		e.emit(emit.Event{
			RunID: runID, Step: step, NodeID: nodeID, Msg: "fanout_item_failed",
			Meta: map[string]interface{}{"item": ie.Item, "error": ie.Err.Error()},
		})
	}

	return node.Merge(state, results), nil
}

// evaluateEdges picks the next node out of nodeID for the given state.
//
// Guarded edges are evaluated in registration order and the first whose
// predicate is true wins; the default (unguarded) edge is the fallback when
// no guard matches. No matching edge and no default is a RouteError; the
// engine never defaults to an arbitrary edge.
func (e *Engine[S]) evaluateEdges(nodeID string, state S) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	defaultTo := ""
	hasDefault := false
	for _, edge := range e.edges {
		if edge.From != nodeID {
			continue
		}
		if edge.When == nil {
			if !hasDefault {
				defaultTo = edge.To
				hasDefault = true
			}
			continue
		}
		if edge.When(state) {
			return edge.To, nil
		}
	}

	if hasDefault {
		return defaultTo, nil
	}
	return "", &RouteError{NodeID: nodeID}
}

func (e *Engine[S]) emit(event emit.Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func (e *Engine[S]) recordNode(runID, nodeID string, started time.Time, status string) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordNodeLatency(runID, nodeID, time.Since(started), status)
	}
}

func suspendCheckpointID(runID string) string {
	return "suspend:" + runID
}
