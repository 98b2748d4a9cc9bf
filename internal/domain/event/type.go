package event

// Type identifies the type of domain event
type Type string

const (
	TypeWorkflowActivated    Type = "workflow.activated"
	TypeWorkflowArchived     Type = "workflow.archived"
	TypeWorkflowUnarchived   Type = "workflow.unarchived"
	TypeVersionCreated       Type = "workflow.version_created"
	TypeVersionRestored      Type = "workflow.version_restored"
	TypeTransitionCreated    Type = "transition.created"
	TypeTransitionUpdated    Type = "transition.updated"
	TypeTransitionDeleted    Type = "transition.deleted"
	TypeRequestSpawned       Type = "request.spawned"
	TypeManualTriggerPending Type = "request.manual_trigger_pending"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeWorkflowActivated,
		TypeWorkflowArchived,
		TypeWorkflowUnarchived,
		TypeVersionCreated,
		TypeVersionRestored,
		TypeTransitionCreated,
		TypeTransitionUpdated,
		TypeTransitionDeleted,
		TypeRequestSpawned,
		TypeManualTriggerPending:
		return true
	default:
		return false
	}
}
