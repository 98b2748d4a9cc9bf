package lifecycle

// State represents a workflow version's lifecycle state.
type State string

const (
	StateDraft    State = "draft"
	StateActive   State = "active"
	StateArchived State = "archived"
)

var validStates = map[State]bool{
	StateDraft:    true,
	StateActive:   true,
	StateArchived: true,
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state.
func (s State) IsValid() bool {
	return validStates[s]
}
