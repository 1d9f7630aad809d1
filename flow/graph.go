package flow

import "fmt"

// edge connects one producer's output to one consumer's input, carrying
// the resolved annotation that governs the consumer-side worker pool,
// retry behavior, and observability recording for this link (spec.md
// §4.2).
type edge struct {
	from       string
	to         string
	annotation edgeAnnotation
}

// Graph is the immutable, validated result of Builder.Build (spec.md
// §4.2, §3 "structural invariants"). It is safe to run multiple times
// concurrently via separate Runner.Run calls: a Graph holds no
// per-run state of its own.
type Graph struct {
	nodes map[string]node
	// order is the insertion order nodes were added in the builder,
	// preserved for deterministic diagnostics (visualize, error
	// messages) independent of map iteration order.
	order []string
	// outEdges maps a node id to the edges leading out of it.
	outEdges map[string][]*edge
	// inEdge maps a node id to the single edge feeding it (nil for
	// Source nodes, which have none).
	inEdge map[string]*edge
	// topological is a validated topological ordering of node ids.
	topological []string
}

// NodeIDs returns the graph's node ids in builder insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeKind returns the Kind of the named node, and whether it exists.
func (g *Graph) NodeKind(id string) (Kind, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return 0, false
	}
	return n.kind(), true
}

// Successors returns the node ids directly downstream of id.
func (g *Graph) Successors(id string) []string {
	edges := g.outEdges[id]
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.to
	}
	return out
}

// Predecessor returns the node id feeding id, and whether one exists
// (false for Source nodes).
func (g *Graph) Predecessor(id string) (string, bool) {
	e, ok := g.inEdge[id]
	if !ok {
		return "", false
	}
	return e.from, true
}

// validate checks the structural invariants from spec.md §3: every node
// reachable from at least one source, no cycles, no dangling inputs, and
// fan-out/fan-in left to the caller's edge topology rather than
// constrained further here (a node may have many outgoing edges; it may
// have at most one incoming edge, enforced at Connect time since each
// node consumes exactly one input pipe).
func validate(nodes map[string]node, order []string, outEdges map[string][]*edge, inEdge map[string]*edge) ([]string, error) {
	for _, id := range order {
		n := nodes[id]
		if n.kind() != KindSource {
			if _, ok := inEdge[id]; !ok {
				return nil, &GraphInvariantError{
					Reason: "dangling-input",
					NodeID: id,
					Detail: "non-source node has no incoming edge",
				}
			}
		}
		if n.kind() != KindSink {
			if len(outEdges[id]) == 0 {
				return nil, &GraphInvariantError{
					Reason: "dangling-output",
					NodeID: id,
					Detail: "non-sink node has no outgoing edge",
				}
			}
		}
	}

	// Kahn's algorithm, doubling as both a cycle check and the
	// scheduler's startup order.
	indegree := make(map[string]int, len(order))
	for _, id := range order {
		indegree[id] = 0
	}
	for _, id := range order {
		for _, e := range outEdges[id] {
			indegree[e.to]++
		}
	}

	queue := make([]string, 0, len(order))
	for _, id := range order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	topo := make([]string, 0, len(order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		topo = append(topo, id)
		for _, e := range outEdges[id] {
			indegree[e.to]--
			if indegree[e.to] == 0 {
				queue = append(queue, e.to)
			}
		}
	}

	if len(topo) != len(order) {
		remaining := make([]string, 0)
		for id, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, id)
			}
		}
		return nil, &GraphInvariantError{
			Reason: "cycle",
			Detail: fmt.Sprintf("graph is not acyclic, nodes involved in or downstream of a cycle: %v", remaining),
		}
	}

	return topo, nil
}
