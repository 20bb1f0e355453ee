package store

import (
	"context"
	"errors"
	"testing"
)

// demoState is the state type used by the store tests.
type demoState struct {
	Question string            `json:"question,omitempty"`
	Answers  map[string]string `json:"answers,omitempty"`
	Waiting  bool              `json:"waiting,omitempty"`
}

// exerciseStore runs the Store[S] contract against any implementation.
func exerciseStore(t *testing.T, st Store[demoState]) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadLatest of unknown run is ErrNotFound", func(t *testing.T) {
		_, _, err := st.LoadLatest(ctx, "ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveStep then LoadLatest round-trips", func(t *testing.T) {
		s1 := demoState{Question: "what happened today"}
		s2 := demoState{Question: "what happened today", Answers: map[string]string{"clip-1": "played blocks"}}

		if err := st.SaveStep(ctx, "run-a", 1, "identify", s1); err != nil {
			t.Fatalf("SaveStep: %v", err)
		}
		if err := st.SaveStep(ctx, "run-a", 2, "analyze", s2); err != nil {
			t.Fatalf("SaveStep: %v", err)
		}

		state, step, err := st.LoadLatest(ctx, "run-a")
		if err != nil {
			t.Fatalf("LoadLatest: %v", err)
		}
		if step != 2 {
			t.Errorf("step = %d, want 2", step)
		}
		if state.Answers["clip-1"] != "played blocks" {
			t.Errorf("state = %+v", state)
		}
	})

	t.Run("same step replaces the record", func(t *testing.T) {
		if err := st.SaveStep(ctx, "run-b", 1, "identify", demoState{Question: "v1"}); err != nil {
			t.Fatalf("SaveStep: %v", err)
		}
		if err := st.SaveStep(ctx, "run-b", 1, "identify", demoState{Question: "v2"}); err != nil {
			t.Fatalf("SaveStep replace: %v", err)
		}

		state, step, err := st.LoadLatest(ctx, "run-b")
		if err != nil {
			t.Fatalf("LoadLatest: %v", err)
		}
		if step != 1 || state.Question != "v2" {
			t.Errorf("got step %d state %+v", step, state)
		}
	})

	t.Run("StepNode names the producing node", func(t *testing.T) {
		if err := st.SaveStep(ctx, "run-c", 3, "compose", demoState{}); err != nil {
			t.Fatalf("SaveStep: %v", err)
		}

		nodeID, err := st.StepNode(ctx, "run-c", 3)
		if err != nil {
			t.Fatalf("StepNode: %v", err)
		}
		if nodeID != "compose" {
			t.Errorf("nodeID = %q, want compose", nodeID)
		}

		if _, err := st.StepNode(ctx, "run-c", 99); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing step, got %v", err)
		}
	})

	t.Run("checkpoint round-trip including suspension state", func(t *testing.T) {
		suspended := demoState{Question: "who", Waiting: true}
		if err := st.SaveCheckpoint(ctx, "suspend:run-d", suspended, 1); err != nil {
			t.Fatalf("SaveCheckpoint: %v", err)
		}

		state, step, err := st.LoadCheckpoint(ctx, "suspend:run-d")
		if err != nil {
			t.Fatalf("LoadCheckpoint: %v", err)
		}
		if step != 1 || !state.Waiting {
			t.Errorf("got step %d state %+v", step, state)
		}

		// Overwrite moves the checkpoint forward.
		if err := st.SaveCheckpoint(ctx, "suspend:run-d", demoState{Question: "who"}, 2); err != nil {
			t.Fatalf("SaveCheckpoint overwrite: %v", err)
		}
		_, step, err = st.LoadCheckpoint(ctx, "suspend:run-d")
		if err != nil {
			t.Fatalf("LoadCheckpoint: %v", err)
		}
		if step != 2 {
			t.Errorf("step = %d, want 2 after overwrite", step)
		}
	})

	t.Run("LoadCheckpoint of unknown ID is ErrNotFound", func(t *testing.T) {
		_, _, err := st.LoadCheckpoint(ctx, "suspend:ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMemStore(t *testing.T) {
	exerciseStore(t, NewMemStore[demoState]())
}
