package entity

import "time"

// RequestStatus is the coarse lifecycle status of a running request.
type RequestStatus string

const (
	RequestStatusDraft         RequestStatus = "DRAFT"
	RequestStatusSubmitted     RequestStatus = "SUBMITTED"
	RequestStatusInReview      RequestStatus = "IN_REVIEW"
	RequestStatusNeedsRevision RequestStatus = "NEEDS_REVISION"
	RequestStatusApproved      RequestStatus = "APPROVED"
	RequestStatusRejected      RequestStatus = "REJECTED"
	RequestStatusCancelled     RequestStatus = "CANCELLED"
)

// String returns the string representation of the status.
func (s RequestStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the request can make no further progress.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

// Request is a running instance of a workflow chain. The engine reads
// requests and their history; creating them belongs to the request-intake
// collaborator.
type Request struct {
	ID              string        `json:"id"`
	WorkflowChainID string        `json:"workflow_chain_id"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// StepOutcome is the recorded decision of a single approval step.
type StepOutcome string

const (
	StepOutcomeApproved           StepOutcome = "APPROVED"
	StepOutcomeRejected           StepOutcome = "REJECTED"
	StepOutcomeNeedsClarification StepOutcome = "NEEDS_CLARIFICATION"
)

// RequestHistoryEntry is one append-only decision record. Step numbers are
// global across the chain in section order. The engine never writes history;
// it derives all request position from it.
type RequestHistoryEntry struct {
	RequestID  string      `json:"request_id"`
	StepNumber int         `json:"step_number"`
	ActorID    string      `json:"actor_id"`
	Outcome    StepOutcome `json:"outcome"`
	DecidedAt  time.Time   `json:"decided_at"`
}
