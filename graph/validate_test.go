package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func validationProblems(t *testing.T, err error) []string {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return vErr.Problems
}

func hasProblem(problems []string, substr string) bool {
	for _, p := range problems {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	t.Run("valid graph passes", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "b", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", "b", nil)
		mustConnect(t, e, "b", End, nil)

		if err := e.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("missing start node reported", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))

		problems := validationProblems(t, e.Validate())
		if !hasProblem(problems, "start node not set") {
			t.Errorf("problems = %v", problems)
		}
	})

	t.Run("edge to unknown node reported", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", "ghost", nil)

		problems := validationProblems(t, e.Validate())
		if !hasProblem(problems, "edge to unknown node: ghost") {
			t.Errorf("problems = %v", problems)
		}
	})

	t.Run("edge to End is not unknown", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", End, nil)

		if err := e.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("two default edges from one node reported", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "b", countingNode(testState{}))
		mustAdd(t, e, "c", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", "b", nil)
		mustConnect(t, e, "a", "c", nil)
		mustConnect(t, e, "b", End, nil)
		mustConnect(t, e, "c", End, nil)

		problems := validationProblems(t, e.Validate())
		if !hasProblem(problems, "default edges") {
			t.Errorf("problems = %v", problems)
		}
	})

	t.Run("unreachable node reported", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "island", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", End, nil)
		mustConnect(t, e, "island", End, nil)

		problems := validationProblems(t, e.Validate())
		if !hasProblem(problems, "unreachable from start: island") {
			t.Errorf("problems = %v", problems)
		}
	})

	t.Run("unconditional cycle reported", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "b", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", "b", nil)
		mustConnect(t, e, "b", "a", nil)

		problems := validationProblems(t, e.Validate())
		if !hasProblem(problems, "unconditional cycle") {
			t.Errorf("problems = %v", problems)
		}
	})

	t.Run("guarded cycle allowed", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "b", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", "b", nil)
		mustConnect(t, e, "b", "a", func(s testState) bool { return s.Count < 3 })
		mustConnect(t, e, "b", End, nil)

		if err := e.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("all problems collected at once", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "island", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", "ghost", nil)

		problems := validationProblems(t, e.Validate())
		if len(problems) < 2 {
			t.Errorf("expected multiple problems, got %v", problems)
		}
	})

	t.Run("validation result cached until graph changes", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", End, nil)

		if err := e.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		// A new edge invalidates the cache and the new problem surfaces.
		mustConnect(t, e, "a", "ghost", func(s testState) bool { return false })
		if err := e.Validate(); err == nil {
			t.Fatal("expected validation to re-run after Connect")
		}
	})

	t.Run("run validates the graph first", func(t *testing.T) {
		e := newTestEngine()
		mustAdd(t, e, "a", countingNode(testState{}))
		mustAdd(t, e, "island", countingNode(testState{}))
		mustStartAt(t, e, "a")
		mustConnect(t, e, "a", End, nil)
		mustConnect(t, e, "island", End, nil)

		_, err := e.Run(context.Background(), "run-invalid", testState{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError from Run, got %v", err)
		}
	})
}
