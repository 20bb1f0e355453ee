package graph

import (
	"fmt"
	"sort"
)

// Validate checks the workflow graph for structural problems before any
// execution:
//
//   - Every edge must reference registered nodes on both ends
//   - Each node may declare at most one default (unguarded) edge
//   - Every node must be reachable from the start node via edges
//   - The subgraph of default edges must be acyclic (a cycle of only
//     unconditional edges can never terminate)
//
// All problems are collected into a single ValidationError rather than
// failing on the first. Guarded cycles are allowed: a predicate can break
// them at runtime, and MaxSteps backstops the ones that don't.
//
// Run and Resume call Validate automatically; the result is cached until
// the graph changes.
func (e *Engine[S]) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.validated {
		return nil
	}

	var problems []string

	if e.startNode == "" {
		problems = append(problems, "start node not set")
	} else if _, ok := e.nodes[e.startNode]; !ok {
		problems = append(problems, "start node not registered: "+e.startNode)
	}

	defaults := make(map[string]int)
	for _, edge := range e.edges {
		if _, ok := e.nodes[edge.From]; !ok {
			problems = append(problems, "edge from unknown node: "+edge.From)
		}
		if _, ok := e.nodes[edge.To]; !ok && edge.To != End {
			problems = append(problems, "edge to unknown node: "+edge.To)
		}
		if edge.When == nil {
			defaults[edge.From]++
		}
	}
	for nodeID, n := range defaults {
		if n > 1 {
			problems = append(problems, fmt.Sprintf("node %s has %d default edges, at most one allowed", nodeID, n))
		}
	}

	if e.startNode != "" {
		for _, nodeID := range e.unreachableFrom(e.startNode) {
			problems = append(problems, "node unreachable from start: "+nodeID)
		}
	}

	if cycle := e.defaultEdgeCycle(); cycle != "" {
		problems = append(problems, "unconditional cycle through node: "+cycle)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	e.validated = true
	return nil
}

// unreachableFrom returns node IDs with no edge path from start, sorted for
// stable error messages. Explicit Goto routes are invisible here, so nodes
// reached only that way still need an edge.
func (e *Engine[S]) unreachableFrom(start string) []string {
	seen := map[string]bool{start: true}
	frontier := []string{start}
	for len(frontier) > 0 {
		current := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, edge := range e.edges {
			if edge.From == current && !seen[edge.To] {
				seen[edge.To] = true
				frontier = append(frontier, edge.To)
			}
		}
	}

	var missing []string
	for nodeID := range e.nodes {
		if !seen[nodeID] {
			missing = append(missing, nodeID)
		}
	}
	sort.Strings(missing)
	return missing
}

// defaultEdgeCycle reports a node on a cycle made only of default edges, or
// "" when none exists. Each node has at most one default edge, so the walk
// from any node is a simple chain.
func (e *Engine[S]) defaultEdgeCycle() string {
	next := make(map[string]string)
	for _, edge := range e.edges {
		if edge.When == nil {
			next[edge.From] = edge.To
		}
	}

	cleared := make(map[string]bool)
	for start := range next {
		if cleared[start] {
			continue
		}
		onPath := make(map[string]bool)
		current := start
		for {
			if onPath[current] {
				return current
			}
			onPath[current] = true
			to, ok := next[current]
			if !ok || cleared[to] {
				break
			}
			current = to
		}
		for nodeID := range onPath {
			cleared[nodeID] = true
		}
	}
	return ""
}
