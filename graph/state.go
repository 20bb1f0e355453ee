package graph

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Reducer merges a node's partial state update into the accumulated state.
// It must be deterministic: given the same prev and delta it always produces
// the same result. The reducer is where field ownership rules live: a well
// behaved reducer only moves fields the delta actually carries.
type Reducer[S any] func(prev, delta S) S

// deepCopy creates an independent copy of state S using a JSON round-trip.
//
// This works for any state type with exported, JSON-serializable fields,
// which is also the requirement for persisting suspended runs. Channels,
// funcs, and unexported fields do not survive the trip.
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return copied, nil
}

// changedFields reports the top-level JSON field names in which delta
// differs from the zero value of S. This is how the engine observes what a
// node actually wrote, so write-set enforcement works for any state type
// without per-field registration.
//
// A field a node clears back to its zero value is invisible here; clearing
// is expressed through the reducer, not the delta, so that is the intended
// reading of the contract.
func changedFields[S any](delta S) ([]string, error) {
	var zero S

	deltaMap, err := toFieldMap(delta)
	if err != nil {
		return nil, err
	}
	zeroMap, err := toFieldMap(zero)
	if err != nil {
		return nil, err
	}

	var changed []string
	for name, val := range deltaMap {
		if !reflect.DeepEqual(val, zeroMap[name]) {
			changed = append(changed, name)
		}
	}
	return changed, nil
}

func toFieldMap[S any](state S) (map[string]any, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("state is not a JSON object: %w", err)
	}
	return m, nil
}

// checkWriteSet verifies that every field a delta touches is in the node's
// declared write-set. Returns a WriteSetError naming the first undeclared
// field, or nil when the delta is within contract.
func checkWriteSet[S any](nodeID string, delta S, writes []string) error {
	changed, err := changedFields(delta)
	if err != nil {
		return &EngineError{Message: "write-set check: " + err.Error(), Code: "STATE_DIFF_FAILED"}
	}

	allowed := make(map[string]bool, len(writes))
	for _, w := range writes {
		allowed[w] = true
	}

	for _, field := range changed {
		if !allowed[field] {
			return &WriteSetError{NodeID: nodeID, Field: field}
		}
	}
	return nil
}
