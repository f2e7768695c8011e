package cycles

import (
	"testing"

	"github.com/tasklab/workgraph/pkg/model"
)

func diamondEdges() []*model.Edge {
	// A -> B, A -> C, B -> D, C -> D
	return []*model.Edge{
		{Source: "A", Target: "B", Kind: model.EdgeDependency},
		{Source: "A", Target: "C", Kind: model.EdgeDependency},
		{Source: "B", Target: "D", Kind: model.EdgeDependency},
		{Source: "C", Target: "D", Kind: model.EdgeDependency},
	}
}

func TestIsDuplicate(t *testing.T) {
	edges := diamondEdges()

	if !IsDuplicate("A", "B", edges) {
		t.Error("A->B exists, expected duplicate")
	}
	if IsDuplicate("B", "A", edges) {
		t.Error("B->A does not exist, reversed pair is not a duplicate")
	}
	if IsDuplicate("A", "D", edges) {
		t.Error("A->D does not exist")
	}
}

func TestIsDuplicateAfterInsert(t *testing.T) {
	edges := diamondEdges()
	edges = append(edges, &model.Edge{Source: "A", Target: "D", Kind: model.EdgeDependency})

	if !IsDuplicate("A", "D", edges) {
		t.Error("edge just inserted must report as duplicate")
	}
}

func TestWouldCreateCycle(t *testing.T) {
	edges := diamondEdges()

	// D -> A would close the diamond into a cycle
	if !WouldCreateCycle("D", "A", edges) {
		t.Error("D->A must be reported as cycle-closing")
	}
	// D -> B likewise: B reaches D already
	if !WouldCreateCycle("D", "B", edges) {
		t.Error("D->B must be reported as cycle-closing")
	}
	// A -> D is a forward shortcut, no cycle
	if WouldCreateCycle("A", "D", edges) {
		t.Error("A->D must not be reported as cycle-closing")
	}
	// Unknown nodes can never close a cycle
	if WouldCreateCycle("X", "Y", edges) {
		t.Error("edge between unknown nodes must not be cycle-closing")
	}
}

func TestWouldCreateCycleEmptyEdgeSet(t *testing.T) {
	if WouldCreateCycle("A", "B", nil) {
		t.Error("no edges means no reachable path")
	}
}

func TestWouldCreateCycleLongChain(t *testing.T) {
	// a -> b -> c -> d -> e
	var edges []*model.Edge
	chain := []string{"a", "b", "c", "d", "e"}
	for i := 0; i+1 < len(chain); i++ {
		edges = append(edges, &model.Edge{Source: chain[i], Target: chain[i+1], Kind: model.EdgeDependency})
	}

	if !WouldCreateCycle("e", "a", edges) {
		t.Error("closing a five-node chain must be detected")
	}
	if WouldCreateCycle("a", "e", edges) {
		t.Error("shortcut along the chain direction is not a cycle")
	}
}

func TestFindCyclesReportsResidualCycle(t *testing.T) {
	g := model.NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(&model.Node{ID: id, Kind: model.KindFile})
	}
	// a <-> b is a residual cycle; c -> d is clean
	g.Edges = []*model.Edge{
		{Source: "a", Target: "b", Kind: model.EdgeDependency},
		{Source: "b", Target: "a", Kind: model.EdgeDependency},
		{Source: "c", Target: "d", Kind: model.EdgeDependency},
	}

	found := FindCycles(g)
	if len(found) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(found))
	}
	if len(found[0]) != 2 || found[0][0] != "a" || found[0][1] != "b" {
		t.Errorf("expected cycle [a b], got %v", found[0])
	}
}

func TestFindCyclesCleanGraph(t *testing.T) {
	g := model.NewGraph()
	for _, id := range []string{"A", "B", "C", "D"} {
		g.AddNode(&model.Node{ID: id, Kind: model.KindFunction})
	}
	g.Edges = diamondEdges()

	if found := FindCycles(g); len(found) != 0 {
		t.Errorf("diamond is acyclic, got cycles %v", found)
	}
}
