package model

// Clone returns a deep structural copy of the graph. Nodes, edges, and the
// DependsOn slices are all independent of the original, so a stored copy can
// never be corrupted by later mutation of the live graph.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		Nodes: make(map[string]*Node, len(g.Nodes)),
		Edges: make([]*Edge, 0, len(g.Edges)),
	}
	for id, node := range g.Nodes {
		n := *node
		if node.DependsOn != nil {
			n.DependsOn = make([]string, len(node.DependsOn))
			copy(n.DependsOn, node.DependsOn)
		}
		clone.Nodes[id] = &n
	}
	for _, edge := range g.Edges {
		e := *edge
		clone.Edges = append(clone.Edges, &e)
	}
	return clone
}

// Equal reports whether two graphs have identical structural state.
// Edge order is significant; DependsOn order is significant.
func (g *Graph) Equal(other *Graph) bool {
	if len(g.Nodes) != len(other.Nodes) || len(g.Edges) != len(other.Edges) {
		return false
	}
	for id, node := range g.Nodes {
		o, ok := other.Nodes[id]
		if !ok {
			return false
		}
		if node.Kind != o.Kind || node.Label != o.Label || node.Parent != o.Parent || node.Position != o.Position {
			return false
		}
		if len(node.DependsOn) != len(o.DependsOn) {
			return false
		}
		for i := range node.DependsOn {
			if node.DependsOn[i] != o.DependsOn[i] {
				return false
			}
		}
	}
	for i, edge := range g.Edges {
		if *edge != *other.Edges[i] {
			return false
		}
	}
	return true
}
