package output

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/tasklab/workgraph/pkg/model"
)

// PrintGraphReport prints a colorized summary of a workflow graph: node
// counts by kind, edge counts, residual cycles, and the level structure of a
// layout run.
func PrintGraphReport(path string, g *model.Graph, layoutResult model.LayoutResult, residualCycles [][]string) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Workgraph - Workflow Summary")
	bold.Println("============================")
	fmt.Printf("Graph: %s\n", path)

	byKind := make(map[model.NodeKind]int)
	for _, node := range g.Nodes {
		byKind[node.Kind]++
	}
	fmt.Printf("Nodes: %d (folders: %d, files: %d, functions: %d)\n",
		len(g.Nodes), byKind[model.KindFolder], byKind[model.KindFile], byKind[model.KindFunction])
	fmt.Printf("Edges: %d\n", len(g.Edges))
	fmt.Println()

	if len(residualCycles) > 0 {
		red.Printf("CIRCULAR DEPENDENCIES: %d\n", len(residualCycles))
		for _, cycle := range residualCycles {
			yellow.Printf("  %v\n", cycle)
		}
		fmt.Println()
	}

	if len(layoutResult) > 0 {
		cyan.Println("Layout levels:")
		printLevels(g, layoutResult)
		fmt.Println()
	}

	if len(residualCycles) == 0 {
		green.Println("Summary: dependency graph is acyclic")
	} else {
		red.Println("Summary: workflow contains circular dependencies")
	}
}

// printLevels groups nodes by their layout x coordinate and prints one line
// per level in left-to-right order
func printLevels(g *model.Graph, result model.LayoutResult) {
	byX := make(map[float64][]string)
	for id, pos := range result {
		byX[pos.X] = append(byX[pos.X], id)
	}

	xs := make([]float64, 0, len(byX))
	for x := range byX {
		xs = append(xs, x)
	}
	sort.Float64s(xs)

	for level, x := range xs {
		ids := byX[x]
		sort.Slice(ids, func(i, j int) bool {
			return result[ids[i]].Y < result[ids[j]].Y
		})
		labels := make([]string, 0, len(ids))
		for _, id := range ids {
			if node, ok := g.Nodes[id]; ok && node.Label != "" {
				labels = append(labels, node.Label)
			} else {
				labels = append(labels, id)
			}
		}
		fmt.Printf("  level %d: %v\n", level, labels)
	}
}
