package layout

import (
	"math"
	"testing"

	"github.com/tasklab/workgraph/pkg/model"
)

func nodesByID(ids ...string) []*model.Node {
	nodes := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, &model.Node{ID: id, Kind: model.KindFunction, Label: id})
	}
	return nodes
}

func diamond() ([]*model.Node, []*model.Edge) {
	nodes := nodesByID("A", "B", "C", "D")
	edges := []*model.Edge{
		{Source: "A", Target: "B", Kind: model.EdgeDependency},
		{Source: "A", Target: "C", Kind: model.EdgeDependency},
		{Source: "B", Target: "D", Kind: model.EdgeDependency},
		{Source: "C", Target: "D", Kind: model.EdgeDependency},
	}
	return nodes, edges
}

// levelOf derives the level back from the assigned x coordinate
func levelOf(p model.Position, cfg Config) int {
	return int(math.Round((p.X - cfg.MarginX) / cfg.HSpacing))
}

func TestEmptyAndSingleNode(t *testing.T) {
	cfg := DefaultConfig()

	if got := Compute(nil, nil, cfg); len(got) != 0 {
		t.Errorf("empty input should give empty result, got %v", got)
	}

	got := Compute(nodesByID("solo"), nil, cfg)
	if len(got) != 1 {
		t.Fatalf("expected 1 position, got %d", len(got))
	}
	want := model.Position{X: cfg.MarginX, Y: cfg.MarginY}
	if got["solo"] != want {
		t.Errorf("single node should sit at the margin origin, got %v", got["solo"])
	}
}

func TestDiamondLevels(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := diamond()
	result := Compute(nodes, edges, cfg)

	wantLevels := map[string]int{"A": 0, "B": 1, "C": 1, "D": 2}
	for id, want := range wantLevels {
		if got := levelOf(result[id], cfg); got != want {
			t.Errorf("level(%s) = %d, want %d", id, got, want)
		}
	}

	// D targets the average y of its dependencies B and C
	mean := (result["B"].Y + result["C"].Y) / 2
	if math.Abs(result["D"].Y-mean) > 1e-9 {
		t.Errorf("D.y = %v, want mean of B.y and C.y = %v", result["D"].Y, mean)
	}
}

func TestLayeringRespectsEdges(t *testing.T) {
	cfg := DefaultConfig()
	nodes := nodesByID("a", "b", "c", "d", "e", "f")
	edges := []*model.Edge{
		{Source: "a", Target: "b", Kind: model.EdgeDependency},
		{Source: "b", Target: "c", Kind: model.EdgeDependency},
		{Source: "a", Target: "c", Kind: model.EdgeDependency},
		{Source: "d", Target: "e", Kind: model.EdgeData},
		{Source: "c", Target: "f", Kind: model.EdgeDependency},
		{Source: "e", Target: "f", Kind: model.EdgeDependency},
	}
	result := Compute(nodes, edges, cfg)

	for _, e := range edges {
		if levelOf(result[e.Source], cfg) >= levelOf(result[e.Target], cfg) {
			t.Errorf("edge %s->%s: level(source)=%d not below level(target)=%d",
				e.Source, e.Target, levelOf(result[e.Source], cfg), levelOf(result[e.Target], cfg))
		}
	}
}

func TestMinimumVerticalSpacing(t *testing.T) {
	cfg := DefaultConfig()
	nodes := nodesByID("r1", "r2", "r3", "m1", "m2", "m3")
	// All three m nodes depend on all three roots: identical target y,
	// the greedy pass must still spread them by VSpacing.
	var edges []*model.Edge
	for _, m := range []string{"m1", "m2", "m3"} {
		for _, r := range []string{"r1", "r2", "r3"} {
			edges = append(edges, &model.Edge{Source: r, Target: m, Kind: model.EdgeDependency})
		}
	}
	result := Compute(nodes, edges, cfg)

	byLevel := make(map[int][]model.Position)
	for _, p := range result {
		l := levelOf(p, cfg)
		byLevel[l] = append(byLevel[l], p)
	}
	for l, positions := range byLevel {
		for i := range positions {
			for j := i + 1; j < len(positions); j++ {
				gap := math.Abs(positions[i].Y - positions[j].Y)
				if gap < cfg.VSpacing-1e-9 {
					t.Errorf("level %d: vertical gap %v below VSpacing %v", l, gap, cfg.VSpacing)
				}
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := diamond()
	nodes = append(nodes, nodesByID("x", "y", "z")...)
	edges = append(edges,
		&model.Edge{Source: "x", Target: "y", Kind: model.EdgeDependency},
		&model.Edge{Source: "x", Target: "D", Kind: model.EdgeDependency},
	)

	first := Compute(nodes, edges, cfg)
	for i := 0; i < 10; i++ {
		again := Compute(nodes, edges, cfg)
		if len(again) != len(first) {
			t.Fatalf("run %d: size mismatch", i)
		}
		for id, p := range first {
			if again[id] != p {
				t.Fatalf("run %d: position of %s differs: %v vs %v", i, id, again[id], p)
			}
		}
	}
}

func TestIsolatedNodeJoinsLevelZero(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := diamond()
	base := Compute(nodes, edges, cfg)

	nodes = append(nodes, nodesByID("E")...)
	withE := Compute(nodes, edges, cfg)

	if got := levelOf(withE["E"], cfg); got != 0 {
		t.Errorf("isolated node must land at level 0, got %d", got)
	}

	// Relative vertical order of the existing nodes per level is preserved
	for _, pair := range [][2]string{{"B", "C"}} {
		beforeOrder := base[pair[0]].Y < base[pair[1]].Y
		afterOrder := withE[pair[0]].Y < withE[pair[1]].Y
		if beforeOrder != afterOrder {
			t.Errorf("adding an isolated node reordered %s and %s", pair[0], pair[1])
		}
	}
}

func TestResidualCycleTerminatesAtLevelZero(t *testing.T) {
	cfg := DefaultConfig()
	nodes := nodesByID("a", "b", "c")
	// a <-> b should never have passed validation; layout must still terminate
	edges := []*model.Edge{
		{Source: "a", Target: "b", Kind: model.EdgeDependency},
		{Source: "b", Target: "a", Kind: model.EdgeDependency},
		{Source: "a", Target: "c", Kind: model.EdgeDependency},
	}
	result := Compute(nodes, edges, cfg)

	if len(result) != 3 {
		t.Fatalf("expected positions for all 3 nodes, got %d", len(result))
	}
	if levelOf(result["a"], cfg) != 0 || levelOf(result["b"], cfg) != 0 {
		t.Error("cycle members must default to level 0")
	}
	// c depends on a cycle member and is never resolvable either
	if levelOf(result["c"], cfg) != 0 {
		t.Error("nodes downstream of a residual cycle default to level 0")
	}
}

func TestInputsNotMutated(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := diamond()
	nodes[0].Position = model.Position{X: 1, Y: 2}

	Compute(nodes, edges, cfg)

	if nodes[0].Position != (model.Position{X: 1, Y: 2}) {
		t.Error("layout must not mutate node objects in place")
	}
}
