// Package engine is the single mutation entry point for the workflow graph.
// Every structural change goes through validation, then a history snapshot,
// then the mutation itself, then an event on the injected sink. Collaborators
// never receive a live alias of the graph; they get clones. An internal mutex
// serializes every entry point, so HTTP handlers, the debounced saver, and the
// file watcher can all call in from their own goroutines.
package engine

import (
	"sort"
	"sync"

	"github.com/tasklab/workgraph/pkg/cycles"
	"github.com/tasklab/workgraph/pkg/history"
	"github.com/tasklab/workgraph/pkg/layout"
	"github.com/tasklab/workgraph/pkg/logging"
	"github.com/tasklab/workgraph/pkg/model"
	"github.com/tasklab/workgraph/pkg/pubsub"
)

// Event types published on pubsub.TopicGraph
const (
	EventNodeAdded     = "node_added"
	EventNodeRemoved   = "node_removed"
	EventEdgeAdded     = "edge_added"
	EventEdgeRemoved   = "edge_removed"
	EventNodeMoved     = "node_moved"
	EventLayoutApplied = "layout_applied"
	EventUndo          = "undo"
	EventRedo          = "redo"
	EventLoaded        = "loaded"
)

// Options configures a new engine
type Options struct {
	HistoryDepth int           // 0 means history.DefaultDepth
	Layout       layout.Config // zero value replaced by layout.DefaultConfig()
}

// viewState holds per-node transient interaction state. It lives outside the
// structural graph: history snapshots never contain it, so undo/redo can never
// resurrect a selection or a drag.
type viewState struct {
	selected   bool
	dragging   bool
	dragOrigin model.Position // structural position at drag start
}

// Engine owns the workflow graph and serializes all structural changes
// through validation and snapshotting.
type Engine struct {
	mu        sync.Mutex
	graph     *model.Graph
	history   *history.History
	histDepth int
	layout    layout.Config
	sink      pubsub.Publisher
	view      map[string]*viewState
}

// New creates an engine over an empty graph. The sink is required: it is the
// engine's only outward channel, injected so tests can capture events.
func New(sink pubsub.Publisher, opts Options) *Engine {
	cfg := opts.Layout
	if cfg == (layout.Config{}) {
		cfg = layout.DefaultConfig()
	}
	return &Engine{
		graph:     model.NewGraph(),
		history:   history.New(opts.HistoryDepth),
		histDepth: opts.HistoryDepth,
		layout:    cfg,
		sink:      sink,
		view:      make(map[string]*viewState),
	}
}

// Load installs a graph loaded by the persistence collaborator, resetting
// history and view state. Residual cycles in loaded state are tolerated
// (layout parks them at level 0) but logged.
func (e *Engine) Load(g *model.Graph) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = g.Clone()
	e.graph.RebuildDependsOn()
	e.history = history.New(e.histDepth)
	e.view = make(map[string]*viewState)

	if residual := cycles.FindCycles(e.graph); len(residual) > 0 {
		logging.Warn("loaded graph contains residual cycles", "cycles", len(residual))
	}
	e.publish(EventLoaded, nil)
}

// Graph returns a deep copy of the current graph for read-only collaborators
func (e *Engine) Graph() *model.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Clone()
}

// CanUndo reports whether an undo step is available
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether a redo step is available
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// AddNode validates and commits a new node. The parent, when set, must be an
// existing folder node.
func (e *Engine) AddNode(node *model.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if node.ID == "" {
		return reject(ReasonInvalidID, "node ID must not be empty")
	}
	if !node.Kind.Valid() {
		return reject(ReasonInvalidKind, "unknown node kind %q", node.Kind)
	}
	if e.graph.HasNode(node.ID) {
		return reject(ReasonDuplicateNode, "node %q already exists", node.ID)
	}
	if node.Parent != "" {
		parent, ok := e.graph.Nodes[node.Parent]
		if !ok {
			return reject(ReasonUnknownNode, "parent %q does not exist", node.Parent)
		}
		if parent.Kind != model.KindFolder {
			return reject(ReasonInvalidKind, "parent %q is not a folder", node.Parent)
		}
	}

	e.history.TakeSnapshot(e.graph)
	n := *node
	// DependsOn is derived from the edge set; a new node has no edges yet,
	// so whatever the caller put there must not survive the insert.
	n.DependsOn = nil
	e.graph.AddNode(&n)
	logging.Debug("node added", "id", n.ID, "kind", string(n.Kind))
	e.publish(EventNodeAdded, []string{n.ID})
	return nil
}

// RemoveNode removes a node, every edge incident to it, and, for folders, the
// whole subtree below it. No dangling edges or orphaned children survive.
func (e *Engine) RemoveNode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.HasNode(id) {
		return reject(ReasonUnknownNode, "node %q does not exist", id)
	}

	e.history.TakeSnapshot(e.graph)

	doomed := map[string]bool{id: true}
	// Folder hierarchy is a tree, so one sweep per depth layer terminates
	for changed := true; changed; {
		changed = false
		for _, node := range e.graph.Nodes {
			if !doomed[node.ID] && node.Parent != "" && doomed[node.Parent] {
				doomed[node.ID] = true
				changed = true
			}
		}
	}

	for nodeID := range doomed {
		delete(e.graph.Nodes, nodeID)
		delete(e.view, nodeID)
	}
	kept := e.graph.Edges[:0]
	for _, edge := range e.graph.Edges {
		if !doomed[edge.Source] && !doomed[edge.Target] {
			kept = append(kept, edge)
		}
	}
	e.graph.Edges = kept
	e.graph.RebuildDependsOn()

	removed := sortedKeys(doomed)
	logging.Debug("node removed", "id", id, "total", len(removed))
	e.publish(EventNodeRemoved, removed)
	return nil
}

// AddEdge validates and commits a dependency edge (target depends on source).
// Self-loops, duplicates, and cycle-closing edges are rejected; the cycle
// check applies to every edge kind, data edges included.
func (e *Engine) AddEdge(source, target string, kind model.EdgeKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.HasNode(source) {
		return reject(ReasonUnknownNode, "source %q does not exist", source)
	}
	if !e.graph.HasNode(target) {
		return reject(ReasonUnknownNode, "target %q does not exist", target)
	}
	if source == target {
		return reject(ReasonSelfLoop, "edge %q -> %q", source, target)
	}
	if cycles.IsDuplicate(source, target, e.graph.Edges) {
		return reject(ReasonDuplicateEdge, "edge %q -> %q already exists", source, target)
	}
	if cycles.WouldCreateCycle(source, target, e.graph.Edges) {
		return reject(ReasonWouldCycle, "edge %q -> %q would close a cycle", source, target)
	}

	e.history.TakeSnapshot(e.graph)
	e.graph.Edges = append(e.graph.Edges, &model.Edge{Source: source, Target: target, Kind: kind})
	e.graph.RebuildDependsOn()
	logging.Debug("edge added", "source", source, "target", target, "kind", string(kind))
	e.publish(EventEdgeAdded, []string{source, target})
	return nil
}

// RemoveEdge removes the (source, target) edge
func (e *Engine) RemoveEdge(source, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := -1
	for i, edge := range e.graph.Edges {
		if edge.Source == source && edge.Target == target {
			index = i
			break
		}
	}
	if index < 0 {
		return reject(ReasonUnknownEdge, "edge %q -> %q does not exist", source, target)
	}

	e.history.TakeSnapshot(e.graph)
	e.graph.Edges = append(e.graph.Edges[:index], e.graph.Edges[index+1:]...)
	e.graph.RebuildDependsOn()
	logging.Debug("edge removed", "source", source, "target", target)
	e.publish(EventEdgeRemoved, []string{source, target})
	return nil
}

// MoveNode updates a node's position. While dragging is true the move is
// transient: the structural position tracks the cursor but no snapshot is
// taken and no event is published. The snapshot happens once, on the
// transition from dragging to not-dragging, against the pre-drag position, so
// a whole drag undoes in one step.
func (e *Engine) MoveNode(id string, pos model.Position, dragging bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.graph.Nodes[id]
	if !ok {
		return reject(ReasonUnknownNode, "node %q does not exist", id)
	}
	view := e.viewOf(id)

	switch {
	case dragging:
		if !view.dragging {
			view.dragging = true
			view.dragOrigin = node.Position
		}
		node.Position = pos

	case view.dragging:
		// Drag commit: snapshot the pre-drag state, then land the node
		node.Position = view.dragOrigin
		e.history.TakeSnapshot(e.graph)
		node.Position = pos
		view.dragging = false
		e.publish(EventNodeMoved, []string{id})

	default:
		// Programmatic move, no drag in flight
		e.history.TakeSnapshot(e.graph)
		node.Position = pos
		e.publish(EventNodeMoved, []string{id})
	}
	return nil
}

// ComputeLayout runs the auto-layout over the current graph without
// committing anything. Nodes enter the layout in sorted ID order so repeated
// runs are identical.
func (e *Engine) ComputeLayout() model.LayoutResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeLayout()
}

// CommitLayout applies a layout result to all named nodes as one undoable step
func (e *Engine) CommitLayout(result model.LayoutResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commitLayout(result)
}

// AutoLayout computes and commits a fresh layout, returning it for rendering
func (e *Engine) AutoLayout() model.LayoutResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := e.computeLayout()
	e.commitLayout(result)
	return result
}

func (e *Engine) computeLayout() model.LayoutResult {
	nodes := make([]*model.Node, 0, len(e.graph.Nodes))
	for _, node := range e.graph.Nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return layout.Compute(nodes, e.graph.Edges, e.layout)
}

func (e *Engine) commitLayout(result model.LayoutResult) {
	if len(result) == 0 {
		return
	}
	e.history.TakeSnapshot(e.graph)
	changed := make([]string, 0, len(result))
	for id, pos := range result {
		if node, ok := e.graph.Nodes[id]; ok {
			node.Position = pos
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	logging.Debug("layout committed", "nodes", len(changed))
	e.publish(EventLayoutApplied, changed)
}

// Undo restores the previous snapshot. Returns false when there is none.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	restored, ok := e.history.Undo(e.graph)
	if !ok {
		return false
	}
	e.graph = restored
	e.clearTransients()
	e.publish(EventUndo, nil)
	return true
}

// Redo restores the next snapshot. Returns false when there is none.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	restored, ok := e.history.Redo(e.graph)
	if !ok {
		return false
	}
	e.graph = restored
	e.clearTransients()
	e.publish(EventRedo, nil)
	return true
}

// Select sets the transient selection flag for a node. Selection is view
// state: it never enters history and is dropped on undo/redo.
func (e *Engine) Select(id string, selected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.HasNode(id) {
		return
	}
	e.viewOf(id).selected = selected
}

// Selected reports the transient selection flag for a node
func (e *Engine) Selected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	view, ok := e.view[id]
	return ok && view.selected
}

// ClearSelection drops every selection flag
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, view := range e.view {
		view.selected = false
	}
}

func (e *Engine) viewOf(id string) *viewState {
	view, ok := e.view[id]
	if !ok {
		view = &viewState{}
		e.view[id] = view
	}
	return view
}

func (e *Engine) clearTransients() {
	e.view = make(map[string]*viewState)
}

func (e *Engine) publish(eventType string, changed []string) {
	err := e.sink.Publish(pubsub.TopicGraph, eventType, pubsub.GraphChange{
		NodeCount: len(e.graph.Nodes),
		EdgeCount: len(e.graph.Edges),
		Changed:   changed,
	})
	if err != nil {
		logging.Warn("publishing graph event failed", "type", eventType, "error", err)
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
