package analysis

import (
	"sort"

	"github.com/jward/arbor/internal/graph"
)

// Cycle is an import cycle as an ordered list of project-relative paths in
// traversal order, with the starting path repeated at the end.
type Cycle []string

// DetectCycles finds every cycle in the internal-import subgraph. The DFS
// restarts from every unvisited node because the graph is a forest of
// weakly-connected components, not one tree. A file importing itself is a
// valid minimal cycle.
func DetectCycles(g *graph.Graph) []Cycle {
	visited := make(map[string]bool, len(g.Files))
	stackIndex := make(map[string]int)
	var stack []string
	var cycles []Cycle

	var visit func(path string)
	visit = func(path string) {
		visited[path] = true
		stackIndex[path] = len(stack)
		stack = append(stack, path)

		for _, target := range sortedEdgeTargets(g.Files[path]) {
			if idx, onStack := stackIndex[target]; onStack {
				cycle := make(Cycle, 0, len(stack)-idx+1)
				for _, p := range stack[idx:] {
					cycle = append(cycle, g.Rel(p))
				}
				cycle = append(cycle, g.Rel(target))
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[target] {
				visit(target)
			}
		}

		delete(stackIndex, path)
		stack = stack[:len(stack)-1]
	}

	for _, path := range g.Paths() {
		if !visited[path] {
			visit(path)
		}
	}
	return cycles
}

func sortedEdgeTargets(node *graph.FileNode) []string {
	targets := make([]string, 0, len(node.Internal))
	for t := range node.Internal {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}
