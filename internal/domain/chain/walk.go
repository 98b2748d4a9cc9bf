package chain

import (
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// Walk resolves the single representative path of the chain starting at
// startID. When a node carries transitions for several trigger conditions the
// APPROVED edge wins, then the remaining conditions in their fixed order; the
// data model allows branching but the chain view stays linear. A visited set
// guards against cycles that should never exist in persisted data.
func Walk(startID string, transitionsBySource map[string][]*entity.Transition, workflowNames map[string]string) []entity.ChainNode {
	nodes := []entity.ChainNode{{
		WorkflowID:   startID,
		WorkflowName: workflowNames[startID],
		Position:     0,
	}}

	visited := map[string]bool{startID: true}
	current := startID

	for {
		next := representativeEdge(transitionsBySource[current])
		if next == nil {
			break
		}
		if visited[next.TargetWorkflowID] {
			break
		}
		visited[next.TargetWorkflowID] = true

		condition := next.TriggerCondition
		nodes = append(nodes, entity.ChainNode{
			WorkflowID:       next.TargetWorkflowID,
			WorkflowName:     workflowNames[next.TargetWorkflowID],
			Position:         len(nodes),
			TriggerCondition: &condition,
			AutoTrigger:      next.AutoTrigger,
		})
		current = next.TargetWorkflowID
	}

	return nodes
}

// representativeEdge picks the outgoing transition that represents the chain.
func representativeEdge(outgoing []*entity.Transition) *entity.Transition {
	if len(outgoing) == 0 {
		return nil
	}
	for _, condition := range entity.ChainWalkOrder() {
		for _, t := range outgoing {
			if t.TriggerCondition == condition {
				return t
			}
		}
	}
	return outgoing[0]
}
