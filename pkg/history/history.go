// Package history implements a bounded, snapshot-based undo/redo stack over
// the workflow graph. Snapshots are deep copies: once taken, later mutation of
// the live graph can never alter them.
package history

import (
	"github.com/tasklab/workgraph/pkg/model"
)

// DefaultDepth is the number of undo steps kept when no depth is configured
const DefaultDepth = 50

// History holds past and future graph snapshots. Linear history semantics:
// taking a new snapshot after an undo discards the redo chain.
type History struct {
	past   []*model.Graph
	future []*model.Graph
	depth  int
}

// New creates a history with the given maximum depth.
// Non-positive depth falls back to DefaultDepth.
func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{depth: depth}
}

// TakeSnapshot records the current graph onto the past stack, evicting the
// oldest snapshot at capacity, and clears any pending redo chain. Callers must
// invoke this before mutating, never after.
func (h *History) TakeSnapshot(current *model.Graph) {
	h.past = append(h.past, current.Clone())
	if len(h.past) > h.depth {
		h.past = h.past[1:]
	}
	h.future = nil
}

// Undo pops the most recent past snapshot and returns it as the new live
// graph, pushing the current state onto the future stack. Returns (nil, false)
// when there is nothing to undo.
func (h *History) Undo(current *model.Graph) (*model.Graph, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	h.future = append(h.future, current.Clone())
	restored := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return restored, true
}

// Redo is the mirror of Undo over the future stack.
// Returns (nil, false) when there is nothing to redo.
func (h *History) Redo(current *model.Graph) (*model.Graph, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	h.past = append(h.past, current.Clone())
	restored := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return restored, true
}

// CanUndo reports whether an undo step is available
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether a redo step is available
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// Len returns the current number of past snapshots
func (h *History) Len() int {
	return len(h.past)
}
