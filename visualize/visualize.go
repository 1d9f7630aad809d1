// Package visualize renders a flow.Graph's topology as a tree, and a
// finished flow.Result (paired with metrics.PipelineMetricsRecord) as a
// styled terminal summary (spec.md §6 supplement, diagnostic tooling).
package visualize

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/xlab/treeprint"

	"github.com/flowcore-go/flowcore/flow"
	"github.com/flowcore-go/flowcore/metrics"
)

// Tree renders graph's node topology as an indented tree, rooted at
// each Source node, showing every downstream Successor. A node reached
// again after it has already been rendered is shown only as a leaf
// marked "↺", without repeating its subtree.
func Tree(graph *flow.Graph) string {
	root := treeprint.New()
	root.SetValue("pipeline")

	visited := make(map[string]bool)
	for _, id := range graph.NodeIDs() {
		if _, hasParent := graph.Predecessor(id); hasParent {
			continue
		}
		addBranch(root, graph, id, visited)
	}
	return root.String()
}

func addBranch(parent treeprint.Tree, graph *flow.Graph, id string, visited map[string]bool) {
	kind, _ := graph.NodeKind(id)
	label := fmt.Sprintf("%s (%s)", id, kind)
	if visited[id] {
		parent.AddNode(label + " ↺")
		return
	}
	visited[id] = true

	branch := parent.AddBranch(label)
	for _, child := range graph.Successors(id) {
		addBranch(branch, graph, child, visited)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tableStyle  = lipgloss.NewStyle().Padding(0, 1)
)

// Summary renders a run's outcome and per-node metrics as a styled
// terminal report.
func Summary(result flow.Result, record metrics.PipelineMetricsRecord) string {
	status := okStyle.Render("OK")
	if result.Err != nil {
		status = errStyle.Render("FAILED: " + result.Err.Error())
	}

	lines := []string{
		headerStyle.Render(fmt.Sprintf("run %s", result.RunID)),
		fmt.Sprintf("status   %s", status),
		fmt.Sprintf("duration %s", result.Duration),
		"",
		headerStyle.Render("nodes"),
	}

	for _, n := range record.Nodes {
		row := fmt.Sprintf("%-20s in=%-8d out=%-8d retries=%-4d drops=%-4d latency=%s",
			n.NodeID, n.ItemsIn, n.ItemsOut, n.Retries, n.Drops, n.TotalLatency)
		if n.Errors > 0 {
			lines = append(lines, errStyle.Render(row))
		} else {
			lines = append(lines, dimStyle.Render(row))
		}
	}

	return tableStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
