package graph

// DefaultGateThreshold is the confidence a cheap-path answer needs before
// the gate lets it short-circuit the expensive path.
const DefaultGateThreshold = 0.6

// Gate decides between a cheap answer path and an expensive fallback based
// on a confidence score, with a preference flag that overrides the score
// entirely.
//
// Pass is true when Prefer reports true, or when Confidence meets the
// threshold. The threshold comparison is inclusive: a score exactly at the
// threshold passes.
type Gate[S any] struct {
	// Confidence extracts the cheap path's self-reported confidence.
	Confidence func(state S) float64

	// Prefer reports whether the caller asked for the cheap path outright.
	// When true the gate passes regardless of confidence. Optional.
	Prefer func(state S) bool

	// Threshold is the minimum passing confidence. Zero means
	// DefaultGateThreshold.
	Threshold float64
}

func (g Gate[S]) threshold() float64 {
	if g.Threshold == 0 {
		return DefaultGateThreshold
	}
	return g.Threshold
}

// Pass reports whether the cheap path's answer should be used.
func (g Gate[S]) Pass(state S) bool {
	if g.Prefer != nil && g.Prefer(state) {
		return true
	}
	return g.Confidence(state) >= g.threshold()
}

// Predicate adapts the gate for the edge that takes the cheap path.
func (g Gate[S]) Predicate() Predicate[S] {
	return g.Pass
}

// Fallback adapts the gate's negation for the edge that takes the
// expensive path. Exactly one of Predicate and Fallback is true for any
// state, so wiring both out of the same node always routes.
func (g Gate[S]) Fallback() Predicate[S] {
	return func(state S) bool { return !g.Pass(state) }
}
