package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use cases:
//   - Deployments where event logging is not desired
//   - Tests that don't inspect events
//
// Example usage:
//
//	emitter := emit.NewNullEmitter()
//	engine := graph.New(reducer, store, emitter)
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter. It is safe for concurrent use and
// has zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {
	// No-op: discard the event
}
