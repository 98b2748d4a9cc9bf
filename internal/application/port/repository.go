// Package port declares the interfaces the chain engine consumes. The engine
// holds no process-wide state; everything durable lives behind these
// interfaces and every family-scoped mutation runs inside the transaction
// manager.
package port

import (
	"context"

	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// WorkflowRepository defines persistence operations for workflow versions and
// their steps. Get methods return (nil, nil) when the row does not exist;
// services translate that into NotFoundError.
type WorkflowRepository interface {
	Insert(ctx context.Context, workflow *entity.Workflow) error
	GetByID(ctx context.Context, id string) (*entity.Workflow, error)
	ListInBusinessUnit(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error)
	ListFamilyMembers(ctx context.Context, familyID string) ([]*entity.Workflow, error)

	// SetLatest flags one member as latest and clears the flag on every
	// other member of the family in a single atomic statement.
	SetLatest(ctx context.Context, workflowID, familyID string) error

	SetStatus(ctx context.Context, workflowID string, status entity.WorkflowStatus) error

	// SetFamilyStatus moves every family member currently in fromStatus to
	// toStatus. An empty fromStatus matches all members.
	SetFamilyStatus(ctx context.Context, familyID string, fromStatus, toStatus entity.WorkflowStatus) error

	Delete(ctx context.Context, id string) error

	// ReplaceSteps deletes the workflow's step list and inserts the given
	// one; step_number is the sole ordering key.
	ReplaceSteps(ctx context.Context, workflowID string, steps []entity.Step) error
	ListSteps(ctx context.Context, workflowID string) ([]entity.Step, error)
}

// SectionRepository defines persistence operations for multi-stage chain
// sections and their embedded steps.
type SectionRepository interface {
	ReplaceSections(ctx context.Context, chainID string, sections []entity.Section) error
	ListByChain(ctx context.Context, chainID string) ([]entity.Section, error)
	CountRoleReferences(ctx context.Context, roleID string) (int, error)
}

// TransitionRepository defines persistence operations for chain transitions.
type TransitionRepository interface {
	Insert(ctx context.Context, transition *entity.Transition) error
	GetByID(ctx context.Context, id string) (*entity.Transition, error)
	GetBySourceAndCondition(ctx context.Context, sourceWorkflowID string, condition entity.TriggerCondition) (*entity.Transition, error)
	ListBySource(ctx context.Context, sourceWorkflowID string) ([]*entity.Transition, error)
	ListInBusinessUnit(ctx context.Context, businessUnitID string) ([]*entity.Transition, error)
	Update(ctx context.Context, transition *entity.Transition) error
	Delete(ctx context.Context, id string) error
	CountByWorkflow(ctx context.Context, workflowID string) (int, error)
}

// RequestRepository reads running requests and their append-only history.
// The engine never writes either.
type RequestRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	ListHistory(ctx context.Context, requestID string) ([]entity.RequestHistoryEntry, error)
	CountByWorkflow(ctx context.Context, workflowID string) (int, error)
}

// RoleRepository defines persistence operations for approver roles.
type RoleRepository interface {
	Insert(ctx context.Context, role *entity.Role) error
	GetByID(ctx context.Context, id string) (*entity.Role, error)
	ListInBusinessUnit(ctx context.Context, businessUnitID string) ([]*entity.Role, error)

	// GetNames resolves role ids to display names in one query.
	GetNames(ctx context.Context, ids []string) (map[string]string, error)

	CountStepReferences(ctx context.Context, roleID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// TemplateRepository reads form templates for transition-target validation.
type TemplateRepository interface {
	Insert(ctx context.Context, template *entity.FormTemplate) error
	GetByID(ctx context.Context, id string) (*entity.FormTemplate, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
