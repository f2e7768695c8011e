package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/tasklab/workgraph/pkg/model"
)

// FindCycles returns every residual dependency cycle in the graph as a list
// of node ID groups (the strongly connected components with more than one
// member). The façade rejects cycle-closing edges up front, so a non-empty
// result indicates state loaded from an external source that bypassed
// validation. Output is sorted for deterministic reporting.
func FindCycles(g *model.Graph) [][]string {
	dg, byGonumID := buildDirected(g)

	tarjan := newTarjanSCC(dg)
	sccs := tarjan.findSCCs()

	cycles := make([][]string, 0, len(sccs))
	for _, scc := range sccs {
		ids := make([]string, 0, len(scc))
		for _, gonumID := range scc {
			ids = append(ids, byGonumID[gonumID])
		}
		sort.Strings(ids)
		cycles = append(cycles, ids)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// buildDirected converts the workflow graph into a gonum directed graph,
// returning the reverse mapping from gonum node IDs back to workflow node IDs.
func buildDirected(g *model.Graph) (*simple.DirectedGraph, map[int64]string) {
	dg := simple.NewDirectedGraph()
	toGonum := make(map[string]int64, len(g.Nodes))
	fromGonum := make(map[int64]string, len(g.Nodes))

	// Assign gonum IDs in sorted node order so traversal is deterministic
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		gonumID := int64(i)
		toGonum[id] = gonumID
		fromGonum[gonumID] = id
		dg.AddNode(simple.Node(gonumID))
	}

	for _, edge := range g.Edges {
		from, okFrom := toGonum[edge.Source]
		to, okTo := toGonum[edge.Target]
		if !okFrom || !okTo || from == to {
			continue
		}
		if !dg.HasEdgeFromTo(from, to) {
			dg.SetEdge(dg.NewEdge(dg.Node(from), dg.Node(to)))
		}
	}
	return dg, fromGonum
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm
type tarjanSCC struct {
	graph   graph.Directed
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

func newTarjanSCC(g graph.Directed) *tarjanSCC {
	return &tarjanSCC{
		graph:   g,
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}
}

func (t *tarjanSCC) findSCCs() [][]int64 {
	nodes := t.graph.Nodes()
	for nodes.Next() {
		node := nodes.Node()
		if _, visited := t.indices[node.ID()]; !visited {
			t.strongConnect(node.ID())
		}
	}
	return t.sccs
}

func (t *tarjanSCC) strongConnect(nodeID int64) {
	t.indices[nodeID] = t.index
	t.lowLink[nodeID] = t.index
	t.index++

	t.stack = append(t.stack, nodeID)
	t.onStack[nodeID] = true

	successors := t.graph.From(nodeID)
	for successors.Next() {
		successorID := successors.Node().ID()

		if _, visited := t.indices[successorID]; !visited {
			t.strongConnect(successorID)
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.lowLink[successorID])
		} else if t.onStack[successorID] {
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.indices[successorID])
		}
	}

	// Root of an SCC: pop the stack down to this node
	if t.lowLink[nodeID] == t.indices[nodeID] {
		var scc []int64
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == nodeID {
				break
			}
		}
		// Single-node components are not cycles
		if len(scc) > 1 {
			t.sccs = append(t.sccs, scc)
		}
	}
}
