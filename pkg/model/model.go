package model

// NodeKind represents the type of work item a node stands for
type NodeKind string

const (
	KindFolder   NodeKind = "folder"
	KindFile     NodeKind = "file"
	KindFunction NodeKind = "function"
)

// Valid reports whether the kind is one of the known work item kinds
func (k NodeKind) Valid() bool {
	switch k {
	case KindFolder, KindFile, KindFunction:
		return true
	}
	return false
}

// EdgeKind represents the type of dependency between two nodes
type EdgeKind string

const (
	// EdgeDependency is an ordering dependency: the target must run after the source
	EdgeDependency EdgeKind = "dependency"
	// EdgeData is a port-to-port data dependency between declared inputs and outputs
	EdgeData EdgeKind = "data"
)

// Position is a 2-D canvas coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a work item in the workflow graph
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Label    string   `json:"label"`
	Parent   string   `json:"parent,omitempty"` // ID of the containing folder node (hierarchy, not dependency)
	Position Position `json:"position"`

	// DependsOn lists the IDs of same-scope nodes this node depends on.
	// It is denormalized from the edge set; RebuildDependsOn keeps it consistent.
	DependsOn []string `json:"dependsOn,omitempty"`
}

// Edge represents a directed dependency: the target depends on the source
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Graph is the full node and edge set visible at a hierarchical scope
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// LayoutResult maps node IDs to computed canvas positions.
// It is a pure function output of the layout engine with no long-lived ownership.
type LayoutResult map[string]Position

// NewGraph creates a new empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// AddNode adds a node to the graph. If a node with the same ID exists, it replaces it.
func (g *Graph) AddNode(node *Node) {
	g.Nodes[node.ID] = node
}

// HasNode reports whether a node with the given ID exists
func (g *Graph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// Scope returns the immediate children of the given folder node.
// An empty parent selects the root scope.
func (g *Graph) Scope(parent string) []*Node {
	var nodes []*Node
	for _, node := range g.Nodes {
		if node.Parent == parent {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// RebuildDependsOn re-derives every node's DependsOn list from the edge set.
// Edges spanning different scopes are skipped; only same-scope dependencies
// are denormalized onto the node.
func (g *Graph) RebuildDependsOn() {
	for _, node := range g.Nodes {
		node.DependsOn = nil
	}
	for _, edge := range g.Edges {
		source, ok := g.Nodes[edge.Source]
		if !ok {
			continue
		}
		target, ok := g.Nodes[edge.Target]
		if !ok {
			continue
		}
		if source.Parent != target.Parent {
			continue
		}
		target.DependsOn = append(target.DependsOn, edge.Source)
	}
}
