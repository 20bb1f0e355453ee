package graph

import (
	"context"
	"time"
)

// Timeouter lets a node override the engine's default node timeout.
type Timeouter interface {
	Timeout() time.Duration
}

// executeNodeWithTimeout runs a node, enforcing the effective timeout when
// one is set. A node that overruns its budget fails the run; execution
// never proceeds with a half-finished node.
func executeNodeWithTimeout[S any](ctx context.Context, node Node[S], nodeID string, state S, defaultTimeout time.Duration) (NodeResult[S], error) {
	timeout := defaultTimeout
	if t, ok := node.(Timeouter); ok && t.Timeout() > 0 {
		timeout = t.Timeout()
	}

	if timeout <= 0 {
		return node.Run(ctx, state), nil
	}

	nctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan NodeResult[S], 1)
	go func() {
		done <- node.Run(nctx, state)
	}()

	select {
	case result := <-done:
		return result, nil
	case <-nctx.Done():
		var zero NodeResult[S]
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &NodeError{
			NodeID:  nodeID,
			Message: "node timed out after " + timeout.String(),
			Cause:   nctx.Err(),
		}
	}
}
