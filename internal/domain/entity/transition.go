package entity

import "time"

// TriggerCondition is the terminal outcome of a source workflow that causes
// a transition to fire. These are finer grained than request statuses so a
// chain can key off completion semantics the coarse status enum cannot
// express.
type TriggerCondition string

const (
	TriggerApproved           TriggerCondition = "APPROVED"
	TriggerRejected           TriggerCondition = "REJECTED"
	TriggerCompleted          TriggerCondition = "COMPLETED"
	TriggerFlagged            TriggerCondition = "FLAGGED"
	TriggerNeedsClarification TriggerCondition = "NEEDS_CLARIFICATION"
)

// chainWalkOrder fixes which outgoing edge represents the chain when a node
// carries several conditions: APPROVED first, then the remaining conditions
// in declaration order.
var chainWalkOrder = []TriggerCondition{
	TriggerApproved,
	TriggerCompleted,
	TriggerRejected,
	TriggerFlagged,
	TriggerNeedsClarification,
}

// ChainWalkOrder returns the fixed edge-preference order used when walking a
// chain that branches on multiple trigger conditions.
func ChainWalkOrder() []TriggerCondition {
	out := make([]TriggerCondition, len(chainWalkOrder))
	copy(out, chainWalkOrder)
	return out
}

// String returns the string representation of the condition.
func (t TriggerCondition) String() string {
	return string(t)
}

// IsValid returns true if the condition is a known trigger condition.
func (t TriggerCondition) IsValid() bool {
	for _, c := range chainWalkOrder {
		if c == t {
			return true
		}
	}
	return false
}

// Transition is a directed, conditional edge between two workflows. A nil
// InitiatorRoleID means "the last approver of the source request" initiates
// the target. Transitions gate future spawns only; deleting one never
// touches requests that already passed through it.
type Transition struct {
	ID               string           `json:"id"`
	SourceWorkflowID string           `json:"source_workflow_id"`
	TargetWorkflowID string           `json:"target_workflow_id"`
	TriggerCondition TriggerCondition `json:"trigger_condition"`
	TargetTemplateID *string          `json:"target_template_id,omitempty"`
	InitiatorRoleID  *string          `json:"initiator_role_id,omitempty"`
	AutoTrigger      bool             `json:"auto_trigger"`
	Description      string           `json:"description"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ChainNode is one hop of a resolved workflow chain, in walk order.
type ChainNode struct {
	WorkflowID       string            `json:"workflow_id"`
	WorkflowName     string            `json:"workflow_name"`
	Position         int               `json:"position"`
	TriggerCondition *TriggerCondition `json:"trigger_condition,omitempty"`
	AutoTrigger      bool              `json:"auto_trigger"`
}
