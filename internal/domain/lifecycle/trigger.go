package lifecycle

// Trigger represents an operation that moves a workflow between lifecycle
// states.
type Trigger string

const (
	// TriggerActivate promotes a draft to the family's active version.
	TriggerActivate Trigger = "ACTIVATE"
	// TriggerDemote returns an active version to draft, either explicitly or
	// because a sibling version was activated.
	TriggerDemote Trigger = "DEMOTE"
	// TriggerArchive retires a version together with its family.
	TriggerArchive Trigger = "ARCHIVE"
	// TriggerUnarchive restores an archived version to draft. Re-activation
	// is a separate explicit step.
	TriggerUnarchive Trigger = "UNARCHIVE"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
