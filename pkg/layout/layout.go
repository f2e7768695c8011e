// Package layout computes 2-D positions for workflow graph nodes using a
// layered (Sugiyama-style) placement: longest-path leveling, a two-pass
// barycenter sweep to reduce edge crossings, and dependency-averaged
// coordinate assignment. The barycenter sweep is a heuristic; it approximately
// minimizes crossings, it does not guarantee an optimal drawing.
package layout

import (
	"sort"

	"github.com/tasklab/workgraph/pkg/model"
)

// Config holds the spacing parameters for coordinate assignment
type Config struct {
	HSpacing float64 // horizontal distance between levels
	VSpacing float64 // minimum vertical gap between nodes in a level
	MarginX  float64 // left margin before level 0
	MarginY  float64 // top margin before the first row
}

// DefaultConfig returns the standard canvas spacing
func DefaultConfig() Config {
	return Config{
		HSpacing: 200,
		VSpacing: 120,
		MarginX:  80,
		MarginY:  80,
	}
}

// Compute assigns a position to every node. Inputs are read-only: node
// objects are never mutated, the caller applies the returned result. The
// computation is deterministic for identical input order.
func Compute(nodes []*model.Node, edges []*model.Edge, cfg Config) model.LayoutResult {
	result := make(model.LayoutResult, len(nodes))
	if len(nodes) == 0 {
		return result
	}

	dependsOn, dependedBy := adjacency(nodes, edges)
	level := assignLevels(nodes, dependsOn, dependedBy)
	levels := orderLevels(nodes, level, dependsOn, dependedBy)
	assignCoordinates(levels, dependsOn, cfg, result)
	return result
}

// adjacency builds forward (dependencies of a node) and reverse (dependents
// of a node) adjacency from the edge set. Edges naming unknown nodes or
// self-loops are ignored.
func adjacency(nodes []*model.Node, edges []*model.Edge) (dependsOn, dependedBy map[string][]string) {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	dependsOn = make(map[string][]string)
	dependedBy = make(map[string][]string)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] || e.Source == e.Target {
			continue
		}
		// Edge source -> target means target depends on source
		dependsOn[e.Target] = append(dependsOn[e.Target], e.Source)
		dependedBy[e.Source] = append(dependedBy[e.Source], e.Target)
	}
	return dependsOn, dependedBy
}

// assignLevels computes longest-path levels: nodes without dependencies sit
// at level 0, every other node at 1 + max(level of its dependencies), and a
// node is only leveled once its full dependency set is. Nodes left over after
// the sweep (members or descendants of a residual cycle) default to level 0,
// which also guarantees termination when a cycle slipped past validation.
func assignLevels(nodes []*model.Node, dependsOn, dependedBy map[string][]string) map[string]int {
	level := make(map[string]int, len(nodes))
	remaining := make(map[string]int, len(nodes))

	var queue []string
	for _, n := range nodes {
		deps := len(dependsOn[n.ID])
		remaining[n.ID] = deps
		if deps == 0 {
			queue = append(queue, n.ID)
			level[n.ID] = 0
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dependent := range dependedBy[id] {
			if level[id]+1 > level[dependent] {
				level[dependent] = level[id] + 1
			}
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Anything not fully resolved is part of a residual cycle or downstream
	// of one; park it at level 0.
	for _, n := range nodes {
		if remaining[n.ID] > 0 {
			level[n.ID] = 0
		}
	}
	return level
}

// orderLevels groups nodes by level in input order, then runs the two-pass
// barycenter sweep: a forward pass ordering each level by the average index
// of its dependencies, and a backward pass refining every earlier level by
// the average index of its dependents.
func orderLevels(nodes []*model.Node, level map[string]int, dependsOn, dependedBy map[string][]string) [][]string {
	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, n := range nodes {
		l := level[n.ID]
		levels[l] = append(levels[l], n.ID)
	}

	index := make(map[string]int, len(nodes))
	reindex := func(ids []string) {
		for i, id := range ids {
			index[id] = i
		}
	}
	for _, ids := range levels {
		reindex(ids)
	}

	barycenter := func(id string, neighbors map[string][]string) float64 {
		list := neighbors[id]
		if len(list) == 0 {
			return 0
		}
		sum := 0.0
		for _, other := range list {
			sum += float64(index[other])
		}
		return sum / float64(len(list))
	}

	// Forward pass: order by dependency barycenter
	for l := 1; l <= maxLevel; l++ {
		ids := levels[l]
		sort.SliceStable(ids, func(i, j int) bool {
			return barycenter(ids[i], dependsOn) < barycenter(ids[j], dependsOn)
		})
		reindex(ids)
	}

	// Backward pass: refine with downstream information
	for l := maxLevel - 1; l >= 0; l-- {
		ids := levels[l]
		sort.SliceStable(ids, func(i, j int) bool {
			return barycenter(ids[i], dependedBy) < barycenter(ids[j], dependedBy)
		})
		reindex(ids)
	}

	return levels
}

// assignCoordinates fixes x by level and computes y per level: level 0 stacks
// by order index; later levels aim for the average y of their direct
// dependencies and are pushed down greedily to keep the minimum vertical gap.
func assignCoordinates(levels [][]string, dependsOn map[string][]string, cfg Config, result model.LayoutResult) {
	for i, id := range levels[0] {
		result[id] = model.Position{
			X: cfg.MarginX,
			Y: cfg.MarginY + float64(i)*cfg.VSpacing,
		}
	}

	for l := 1; l < len(levels); l++ {
		x := cfg.MarginX + float64(l)*cfg.HSpacing

		type placement struct {
			id      string
			targetY float64
		}
		placements := make([]placement, 0, len(levels[l]))
		for i, id := range levels[l] {
			deps := dependsOn[id]
			targetY := cfg.MarginY + float64(i)*cfg.VSpacing
			if len(deps) > 0 {
				sum := 0.0
				for _, dep := range deps {
					sum += result[dep].Y
				}
				targetY = sum / float64(len(deps))
			}
			placements = append(placements, placement{id: id, targetY: targetY})
		}

		sort.SliceStable(placements, func(i, j int) bool {
			return placements[i].targetY < placements[j].targetY
		})

		prevY := placements[0].targetY - cfg.VSpacing
		for _, p := range placements {
			y := p.targetY
			if y < prevY+cfg.VSpacing {
				y = prevY + cfg.VSpacing
			}
			result[p.id] = model.Position{X: x, Y: y}
			prevY = y
		}
	}
}
