package graph

import "testing"

type gateState struct {
	confidence float64
	prefer     bool
}

func newGate(threshold float64) Gate[gateState] {
	return Gate[gateState]{
		Confidence: func(s gateState) float64 { return s.confidence },
		Prefer:     func(s gateState) bool { return s.prefer },
		Threshold:  threshold,
	}
}

func TestGate(t *testing.T) {
	t.Run("confidence at the threshold passes", func(t *testing.T) {
		g := newGate(0)
		if !g.Pass(gateState{confidence: DefaultGateThreshold}) {
			t.Error("score equal to the threshold must pass")
		}
	})

	t.Run("confidence below the threshold fails", func(t *testing.T) {
		g := newGate(0)
		if g.Pass(gateState{confidence: 0.59}) {
			t.Error("score below the threshold must fail")
		}
	})

	t.Run("prefer overrides a low score", func(t *testing.T) {
		g := newGate(0)
		if !g.Pass(gateState{confidence: 0.1, prefer: true}) {
			t.Error("prefer must pass regardless of confidence")
		}
	})

	t.Run("custom threshold respected", func(t *testing.T) {
		g := newGate(0.9)
		if g.Pass(gateState{confidence: 0.8}) {
			t.Error("0.8 must fail a 0.9 threshold")
		}
		if !g.Pass(gateState{confidence: 0.9}) {
			t.Error("0.9 must pass a 0.9 threshold")
		}
	})

	t.Run("nil prefer falls back to confidence", func(t *testing.T) {
		g := Gate[gateState]{
			Confidence: func(s gateState) float64 { return s.confidence },
		}
		if !g.Pass(gateState{confidence: 0.7}) {
			t.Error("expected pass on confidence alone")
		}
	})

	t.Run("predicate and fallback are complementary", func(t *testing.T) {
		g := newGate(0)
		states := []gateState{
			{confidence: 0.0},
			{confidence: 0.59},
			{confidence: 0.6},
			{confidence: 1.0},
			{confidence: 0.0, prefer: true},
		}
		take, skip := g.Predicate(), g.Fallback()
		for _, s := range states {
			if take(s) == skip(s) {
				t.Errorf("state %+v: predicate and fallback must disagree", s)
			}
		}
	})
}
