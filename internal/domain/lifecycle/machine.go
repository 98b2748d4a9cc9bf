package lifecycle

// StateMachine tracks a lifecycle state and validates transitions against the
// configured edges.
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}

// NewMachine builds the standard workflow lifecycle machine:
//
//	draft    --ACTIVATE-->  active
//	draft    --ARCHIVE--->  archived
//	active   --DEMOTE---->  draft
//	active   --ARCHIVE--->  archived
//	archived --UNARCHIVE->  draft
//
// Activating an archived version directly is deliberately not an edge; the
// version manager surfaces that as an invariant violation.
func NewMachine(initial State) (StateMachine, error) {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerActivate, StateActive).
		Permit(TriggerArchive, StateArchived)
	b.Configure(StateActive).
		Permit(TriggerDemote, StateDraft).
		Permit(TriggerArchive, StateArchived)
	b.Configure(StateArchived).
		Permit(TriggerUnarchive, StateDraft)
	return b.Build(initial)
}
