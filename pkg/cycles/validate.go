package cycles

import (
	"github.com/tasklab/workgraph/pkg/model"
)

// IsDuplicate reports whether an edge with the exact (source, target) pair
// already exists in the edge set.
func IsDuplicate(source, target string, edges []*model.Edge) bool {
	for _, edge := range edges {
		if edge.Source == source && edge.Target == target {
			return true
		}
	}
	return false
}

// WouldCreateCycle reports whether adding the edge (source -> target) would
// close a directed cycle, i.e. whether source is already reachable from
// target through the current edge set. Depth-first search from target with a
// visited set, O(V+E). Self-loops are the caller's responsibility and are
// rejected before this check runs.
func WouldCreateCycle(source, target string, edges []*model.Edge) bool {
	if len(edges) == 0 {
		return false
	}

	// Forward adjacency: node -> nodes that depend on it
	next := make(map[string][]string, len(edges))
	for _, edge := range edges {
		next[edge.Source] = append(next[edge.Source], edge.Target)
	}

	visited := make(map[string]bool)
	stack := []string{target}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == source {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		stack = append(stack, next[current]...)
	}
	return false
}
