package entity

import "time"

// WorkflowStatus is the lifecycle status of a workflow version.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusArchived WorkflowStatus = "archived"
)

// String returns the string representation of the status.
func (s WorkflowStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known workflow status.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusArchived:
		return true
	}
	return false
}

// Workflow is one version of an approval template. Versions sharing a root
// (via ParentWorkflowID) form a family; at most one family member carries
// IsLatest at any time.
type Workflow struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	BusinessUnitID   string         `json:"business_unit_id"`
	Status           WorkflowStatus `json:"status"`
	Version          int            `json:"version"`
	ParentWorkflowID *string        `json:"parent_workflow_id,omitempty"`
	IsLatest         bool           `json:"is_latest"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// FamilyID returns the id of the first version in this workflow's family.
// The root version points to itself.
func (w *Workflow) FamilyID() string {
	if w.ParentWorkflowID != nil && *w.ParentWorkflowID != "" {
		return *w.ParentWorkflowID
	}
	return w.ID
}

// Family is the resolved set of all versions sharing a common root workflow.
type Family struct {
	RootID  string      `json:"root_id"`
	Members []*Workflow `json:"members"`
}

// Latest returns the member currently flagged as latest, or nil if the family
// has never been activated.
func (f *Family) Latest() *Workflow {
	for _, m := range f.Members {
		if m.IsLatest {
			return m
		}
	}
	return nil
}

// MaxVersion returns the highest version number present in the family.
func (f *Family) MaxVersion() int {
	max := 0
	for _, m := range f.Members {
		if m.Version > max {
			max = m.Version
		}
	}
	return max
}

// Step is a single ordered approval step inside a workflow. StepNumber is
// 1-based and contiguous per workflow; the step list is always replaced
// wholesale when edited.
type Step struct {
	WorkflowID     string `json:"workflow_id"`
	StepNumber     int    `json:"step_number"`
	ApproverRoleID string `json:"approver_role_id"`
}

// InitiatorType controls who may start the workflow bound to a section.
type InitiatorType string

const (
	// InitiatorLastApprover lets the final approver of the previous section
	// initiate the next one.
	InitiatorLastApprover InitiatorType = "last_approver"
	// InitiatorSpecificRole binds initiation to one named role.
	InitiatorSpecificRole InitiatorType = "specific_role"
)

// Section is a named segment of a multi-stage chain with its own ordered
// steps. Section 0 names the roles allowed to initiate the chain; later
// sections carry an initiator rule instead.
type Section struct {
	ID               string        `json:"id"`
	ChainID          string        `json:"chain_id"`
	Order            int           `json:"order"`
	Name             string        `json:"name"`
	FormTemplateID   string        `json:"form_template_id"`
	Steps            []Step        `json:"steps"`
	InitiatorRoleIDs []string      `json:"initiator_role_ids,omitempty"`
	InitiatorType    InitiatorType `json:"initiator_type,omitempty"`
	InitiatorRoleID  *string       `json:"initiator_role_id,omitempty"`
}

// FormTemplate identifies a request form bound to a workflow or transition
// target. The engine only checks existence and business-unit ownership;
// template content belongs to the form editor.
type FormTemplate struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	BusinessUnitID string    `json:"business_unit_id"`
	CreatedAt      time.Time `json:"created_at"`
}
