// Package store provides persistence for workflow runs: step history for
// crash recovery and suspension checkpoints for suspend/resume flows.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for workflow state and checkpoints.
//
// It enables:
//   - Step-by-step state persistence during execution
//   - Latest state retrieval for resumption of suspended runs
//   - Named checkpoint save/load (the engine uses one per suspension)
//
// Implementations:
//   - MemStore: in-memory, for testing and short-lived runs
//   - SQLiteStore: single-file database for local persistence
//   - MySQLStore: shared database for multi-process deployments
//
// Type parameter S is the state type to persist. All implementations
// serialize it as JSON, so it must round-trip through encoding/json.
type Store[S any] interface {
	// SaveStep persists the state after a node execution step. Steps are
	// identified by runID plus step number; saving an existing step
	// replaces it.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the run's highest-numbered step.
	// Returns ErrNotFound when the run has no steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// StepNode returns the ID of the node that produced the given step.
	// Returns ErrNotFound when the step does not exist.
	StepNode(ctx context.Context, runID string, step int) (nodeID string, err error)

	// SaveCheckpoint creates or replaces a named snapshot of workflow
	// state. The engine records one per suspension point; callers may add
	// their own under distinct IDs.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint.
	// Returns ErrNotFound when cpID does not exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord is one persisted execution step.
type StepRecord[S any] struct {
	Step   int    `json:"step"`
	NodeID string `json:"node_id"`
	State  S      `json:"state"`
}

// Checkpoint is a named state snapshot.
type Checkpoint[S any] struct {
	ID    string `json:"id"`
	State S      `json:"state"`
	Step  int    `json:"step"`
}
