package model

import "testing"

func buildGraph() *Graph {
	g := NewGraph()
	g.AddNode(&Node{ID: "a", Kind: KindFile, Label: "a.go", Position: Position{X: 10, Y: 20}})
	g.AddNode(&Node{ID: "b", Kind: KindFunction, Label: "build", Parent: "", DependsOn: []string{"a"}})
	g.Edges = append(g.Edges, &Edge{Source: "a", Target: "b", Kind: EdgeDependency})
	return g
}

func TestCloneIsDeep(t *testing.T) {
	g := buildGraph()
	clone := g.Clone()

	if !g.Equal(clone) {
		t.Fatal("clone should be structurally equal to the original")
	}

	// Mutate the original in every structural dimension
	g.Nodes["a"].Position = Position{X: 99, Y: 99}
	g.Nodes["b"].DependsOn[0] = "changed"
	g.Edges[0].Target = "changed"
	g.AddNode(&Node{ID: "c", Kind: KindFolder})

	if clone.Nodes["a"].Position.X != 10 {
		t.Error("clone node position changed after mutating original")
	}
	if clone.Nodes["b"].DependsOn[0] != "a" {
		t.Error("clone DependsOn changed after mutating original")
	}
	if clone.Edges[0].Target != "b" {
		t.Error("clone edge changed after mutating original")
	}
	if clone.HasNode("c") {
		t.Error("clone gained a node added to the original")
	}
}

func TestRebuildDependsOn(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "a", Kind: KindFile})
	g.AddNode(&Node{ID: "b", Kind: KindFile})
	g.AddNode(&Node{ID: "sub", Kind: KindFolder})
	g.AddNode(&Node{ID: "c", Kind: KindFile, Parent: "sub"})
	g.Edges = append(g.Edges,
		&Edge{Source: "a", Target: "b", Kind: EdgeDependency},
		// Cross-scope edge must not be denormalized onto c
		&Edge{Source: "a", Target: "c", Kind: EdgeDependency},
	)

	g.RebuildDependsOn()

	if len(g.Nodes["b"].DependsOn) != 1 || g.Nodes["b"].DependsOn[0] != "a" {
		t.Errorf("expected b to depend on a, got %v", g.Nodes["b"].DependsOn)
	}
	if len(g.Nodes["c"].DependsOn) != 0 {
		t.Errorf("cross-scope edge should not appear in DependsOn, got %v", g.Nodes["c"].DependsOn)
	}
}

func TestNodeKindValid(t *testing.T) {
	for _, k := range []NodeKind{KindFolder, KindFile, KindFunction} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if NodeKind("widget").Valid() {
		t.Error("unknown kind should not be valid")
	}
}

func TestScope(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "root1", Kind: KindFile})
	g.AddNode(&Node{ID: "dir", Kind: KindFolder})
	g.AddNode(&Node{ID: "child", Kind: KindFile, Parent: "dir"})

	root := g.Scope("")
	if len(root) != 2 {
		t.Errorf("expected 2 root nodes, got %d", len(root))
	}
	sub := g.Scope("dir")
	if len(sub) != 1 || sub[0].ID != "child" {
		t.Errorf("expected [child] in dir scope, got %v", sub)
	}
}
