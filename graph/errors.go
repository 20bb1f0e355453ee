// Package graph provides the workflow orchestration core for Dayroom.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMaxStepsExceeded indicates that a run reached the maximum allowed step
// count without terminating. This prevents a miswired graph from looping
// forever.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrRunNotFound indicates that a resume was requested for a run ID with no
// persisted suspension point.
var ErrRunNotFound = errors.New("run not found")

// ErrNotSuspended indicates that a resume was requested for a run whose last
// persisted step was not a suspension.
var ErrNotSuspended = errors.New("run is not suspended")

// EngineError represents a configuration or execution failure inside the
// engine itself (as opposed to a failure originating in node logic).
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// NodeError represents an error produced by node logic. It is fatal to the
// run for single-invocation nodes; the engine performs no retries.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

func (e *NodeError) Unwrap() error {
	return e.Cause
}

// RouteError indicates that no out-edge from a node matched the current
// state and no default edge exists. This is a malformed-graph condition,
// fatal to the run; the engine never falls back to an arbitrary edge.
type RouteError struct {
	NodeID string
}

func (e *RouteError) Error() string {
	return "no valid route from node: " + e.NodeID
}

// ValidationError reports a structural problem found by Validate before any
// run starts: an unreachable node, a cycle traversable through unconditional
// edges alone, a dangling edge, or a node with multiple default edges.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "graph validation failed: " + strings.Join(e.Problems, "; ")
}

// WriteSetError reports a node whose delta touched a state field outside its
// declared write-set. Writes are never silently dropped; the violation is
// surfaced and the run aborts.
type WriteSetError struct {
	NodeID string
	Field  string
}

func (e *WriteSetError) Error() string {
	return fmt.Sprintf("node %s wrote undeclared field %q", e.NodeID, e.Field)
}
