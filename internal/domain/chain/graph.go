// Package chain holds the pure logic of the workflow chain engine: the
// family-level transition graph, the representative chain walk, and request
// progress derivation. Nothing here touches storage or the clock.
package chain

import (
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// Graph is the directed transition graph of one business unit. Nodes are
// workflow families (every version collapses onto its family root), edges are
// transitions between them.
type Graph struct {
	familyOf map[string]string
	edges    map[string][]string
}

// NewGraph builds a graph from the business unit's workflows and transitions.
// Transitions referencing workflows outside the given set keep their raw ids
// as nodes, so reachability stays conservative.
func NewGraph(workflows []*entity.Workflow, transitions []*entity.Transition) *Graph {
	g := &Graph{
		familyOf: make(map[string]string, len(workflows)),
		edges:    make(map[string][]string),
	}

	for _, w := range workflows {
		g.familyOf[w.ID] = w.FamilyID()
	}

	for _, t := range transitions {
		from := g.canonical(t.SourceWorkflowID)
		to := g.canonical(t.TargetWorkflowID)
		g.edges[from] = append(g.edges[from], to)
	}

	return g
}

// canonical maps a workflow id onto its family root node.
func (g *Graph) canonical(id string) string {
	if root, ok := g.familyOf[id]; ok {
		return root
	}
	return id
}

// Reaches reports whether toID is reachable from fromID over existing
// transition edges. Runs a breadth-first search; O(V+E).
func (g *Graph) Reaches(fromID, toID string) bool {
	from := g.canonical(fromID)
	to := g.canonical(toID)
	if from == to {
		return true
	}

	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, next := range g.edges[node] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}

// WouldCreateCycle reports whether adding the edge source -> target would
// close a cycle. A self-loop is always circular; otherwise the edge closes a
// cycle exactly when source is already reachable from target.
func (g *Graph) WouldCreateCycle(sourceID, targetID string) bool {
	if g.canonical(sourceID) == g.canonical(targetID) {
		return true
	}
	return g.Reaches(targetID, sourceID)
}
