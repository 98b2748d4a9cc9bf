package entity

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input: a missing required field, a
// reference to a nonexistent id, or a template/role in the wrong business
// unit. Always recoverable by the caller; never partially applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CircularChainError reports that adding a transition would close a cycle in
// the business unit's workflow graph. Detected before any write.
type CircularChainError struct {
	SourceWorkflowID string
	TargetWorkflowID string
}

func (e *CircularChainError) Error() string {
	return fmt.Sprintf("transition %s -> %s would create a circular chain",
		e.SourceWorkflowID, e.TargetWorkflowID)
}

// DuplicateTriggerError reports that a transition with the same source and
// trigger condition already exists. The engine has no fan-out semantics.
type DuplicateTriggerError struct {
	SourceWorkflowID string
	Condition        TriggerCondition
}

func (e *DuplicateTriggerError) Error() string {
	return fmt.Sprintf("workflow %s already has a transition for condition %s",
		e.SourceWorkflowID, e.Condition)
}

// NotFoundError reports a missing workflow, transition, role, template or
// request.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// DependencyInUseError reports a deletion blocked by live references.
type DependencyInUseError struct {
	Resource   string
	ID         string
	References []string
}

func (e *DependencyInUseError) Error() string {
	return fmt.Sprintf("%s %s is in use by %s", e.Resource, e.ID,
		strings.Join(e.References, ", "))
}

// InvariantViolationError reports corrupted family state (for example two
// latest members) or a status transition attempted from a disallowed state.
// Observing one outside the version manager indicates a data-integrity bug.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}
