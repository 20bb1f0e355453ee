// Package emit provides pluggable observability for workflow execution.
package emit

// Event represents an observability event emitted during workflow execution.
//
// Events provide insight into run behavior:
//   - Node execution start/end
//   - Suspensions and resumptions
//   - Per-item fan-out failures
//   - Errors and routing decisions
//
// Events are emitted to an Emitter which can log to stdout, send to
// OpenTelemetry, buffer for inspection, or discard.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the run (1-indexed).
	// Zero for run-level events.
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for run-level events.
	NodeID string

	// Msg is a short machine-friendly description of the event,
	// e.g. "node_start", "node_end", "run_suspended", "run_resuming",
	// "fanout_item_failed".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Execution duration in milliseconds
	//   - "error": Error details
	//   - "missing": Input fields a suspension is waiting for
	//   - "item": The item of a fan-out failure
	Meta map[string]interface{}
}
