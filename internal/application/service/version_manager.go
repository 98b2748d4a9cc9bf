package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flowchain/approval-engine/internal/application/dispatcher"
	"github.com/flowchain/approval-engine/internal/application/port"
	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/internal/domain/event"
	"github.com/flowchain/approval-engine/internal/lock"
)

// StepInput is one approval step supplied by the caller. Step numbers must be
// contiguous starting at 1; the list always replaces the previous one.
type StepInput struct {
	StepNumber     int    `json:"step_number"`
	ApproverRoleID string `json:"approver_role_id"`
}

// CreateWorkflowInput carries the fields for a new workflow family root.
type CreateWorkflowInput struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	BusinessUnitID string      `json:"business_unit_id"`
	Steps          []StepInput `json:"steps"`
}

// CreateVersionInput carries the fields for a new version in an existing
// family. Nothing is copied from the parent: the caller supplies the full new
// step list. Empty Name inherits the parent's.
type CreateVersionInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Steps       []StepInput `json:"steps"`
}

// VersionManager enforces the workflow lifecycle and version-family
// invariants: one latest member per family, archive cascading to the whole
// family, unarchive returning to draft. All family-scoped mutations run
// serialized per family and inside one transaction.
type VersionManager interface {
	CreateWorkflow(ctx context.Context, input CreateWorkflowInput) (*entity.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error)
	ListWorkflows(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error)
	ListVersions(ctx context.Context, workflowID string) (*entity.Family, error)
	DeleteWorkflow(ctx context.Context, id string) error

	CreateVersion(ctx context.Context, workflowID string, input CreateVersionInput) (*entity.Workflow, error)
	Activate(ctx context.Context, workflowID string) (*entity.Workflow, error)
	SetDraft(ctx context.Context, workflowID string) (*entity.Workflow, error)
	Archive(ctx context.Context, workflowID string) error
	Unarchive(ctx context.Context, workflowID string) error
	RestoreVersion(ctx context.Context, targetVersionID string) (*entity.Workflow, error)
}

type versionManagerImpl struct {
	workflowRepo   port.WorkflowRepository
	transitionRepo port.TransitionRepository
	requestRepo    port.RequestRepository
	roleRepo       port.RoleRepository
	txManager      port.TransactionManager
	familyLock     lock.FamilyLock
	events         dispatcher.Dispatcher
	logger         Logger
}

// NewVersionManager creates a new VersionManager
func NewVersionManager(
	workflowRepo port.WorkflowRepository,
	transitionRepo port.TransitionRepository,
	requestRepo port.RequestRepository,
	roleRepo port.RoleRepository,
	txManager port.TransactionManager,
	familyLock lock.FamilyLock,
	events dispatcher.Dispatcher,
	logger Logger,
) VersionManager {
	return &versionManagerImpl{
		workflowRepo:   workflowRepo,
		transitionRepo: transitionRepo,
		requestRepo:    requestRepo,
		roleRepo:       roleRepo,
		txManager:      txManager,
		familyLock:     familyLock,
		events:         events,
		logger:         logger,
	}
}

// CreateWorkflow creates a draft family root with version 1. The workflow is
// not latest until its first activation.
func (s *versionManagerImpl) CreateWorkflow(ctx context.Context, input CreateWorkflowInput) (*entity.Workflow, error) {
	if input.Name == "" {
		return nil, entity.NewValidationError("name", "name is required")
	}
	if input.BusinessUnitID == "" {
		return nil, entity.NewValidationError("business_unit_id", "business unit is required")
	}
	steps, err := s.validateSteps(ctx, input.Steps)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	workflow := &entity.Workflow{
		ID:             newID(),
		Name:           input.Name,
		Description:    input.Description,
		BusinessUnitID: input.BusinessUnitID,
		Status:         entity.WorkflowStatusDraft,
		Version:        1,
		IsLatest:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workflowRepo.Insert(txCtx, workflow); err != nil {
			return fmt.Errorf("insert workflow: %w", err)
		}
		if err := s.workflowRepo.ReplaceSteps(txCtx, workflow.ID, bindSteps(workflow.ID, steps)); err != nil {
			return fmt.Errorf("replace steps: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create workflow", "error", err, "name", input.Name)
		return nil, err
	}

	s.logger.Info("Workflow created", "id", workflow.ID, "name", workflow.Name)
	return workflow, nil
}

// GetWorkflow retrieves a workflow by id.
func (s *versionManagerImpl) GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if workflow == nil {
		return nil, &entity.NotFoundError{Resource: "workflow", ID: id}
	}
	return workflow, nil
}

// ListWorkflows lists a business unit's workflows.
func (s *versionManagerImpl) ListWorkflows(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error) {
	if businessUnitID == "" {
		return nil, entity.NewValidationError("business_unit_id", "business unit is required")
	}
	workflows, err := s.workflowRepo.ListInBusinessUnit(ctx, businessUnitID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return workflows, nil
}

// ListVersions resolves the full family of the given workflow.
func (s *versionManagerImpl) ListVersions(ctx context.Context, workflowID string) (*entity.Family, error) {
	workflow, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	members, err := s.workflowRepo.ListFamilyMembers(ctx, workflow.FamilyID())
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	return &entity.Family{RootID: workflow.FamilyID(), Members: members}, nil
}

// DeleteWorkflow removes a workflow version. Deletion is blocked while any
// transition or request references it.
func (s *versionManagerImpl) DeleteWorkflow(ctx context.Context, id string) error {
	workflow, err := s.GetWorkflow(ctx, id)
	if err != nil {
		return err
	}

	return s.familyLock.Synchronized(ctx, workflow.FamilyID(), func(ctx context.Context) error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			var references []string
			transitionCount, err := s.transitionRepo.CountByWorkflow(txCtx, id)
			if err != nil {
				return fmt.Errorf("count transitions: %w", err)
			}
			if transitionCount > 0 {
				references = append(references, fmt.Sprintf("%d transitions", transitionCount))
			}
			requestCount, err := s.requestRepo.CountByWorkflow(txCtx, id)
			if err != nil {
				return fmt.Errorf("count requests: %w", err)
			}
			if requestCount > 0 {
				references = append(references, fmt.Sprintf("%d requests", requestCount))
			}
			if len(references) > 0 {
				return &entity.DependencyInUseError{Resource: "workflow", ID: id, References: references}
			}

			if err := s.workflowRepo.Delete(txCtx, id); err != nil {
				return fmt.Errorf("delete workflow: %w", err)
			}
			s.logger.Info("Workflow deleted", "id", id)
			return nil
		})
	})
}

// CreateVersion adds a new draft version to the workflow's family with
// version = max(family versions) + 1 and takes over the latest flag.
func (s *versionManagerImpl) CreateVersion(ctx context.Context, workflowID string, input CreateVersionInput) (*entity.Workflow, error) {
	parent, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	steps, err := s.validateSteps(ctx, input.Steps)
	if err != nil {
		return nil, err
	}

	familyID := parent.FamilyID()
	var created *entity.Workflow

	err = s.familyLock.Synchronized(ctx, familyID, func(ctx context.Context) error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			members, err := s.loadFamily(txCtx, familyID)
			if err != nil {
				return err
			}

			family := &entity.Family{RootID: familyID, Members: members}
			now := time.Now()
			created = &entity.Workflow{
				ID:               newID(),
				Name:             input.Name,
				Description:      input.Description,
				BusinessUnitID:   parent.BusinessUnitID,
				Status:           entity.WorkflowStatusDraft,
				Version:          family.MaxVersion() + 1,
				ParentWorkflowID: &familyID,
				IsLatest:         true,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if created.Name == "" {
				created.Name = parent.Name
			}

			if err := s.workflowRepo.Insert(txCtx, created); err != nil {
				return fmt.Errorf("insert version: %w", err)
			}
			if err := s.workflowRepo.ReplaceSteps(txCtx, created.ID, bindSteps(created.ID, steps)); err != nil {
				return fmt.Errorf("replace steps: %w", err)
			}
			// One atomic statement flips the latest flag family-wide.
			if err := s.workflowRepo.SetLatest(txCtx, created.ID, familyID); err != nil {
				return fmt.Errorf("set latest: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Error("Failed to create version", "error", err, "workflow_id", workflowID)
		return nil, err
	}

	s.logger.Info("Version created", "id", created.ID, "family_id", familyID, "version", created.Version)
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeVersionCreated, created.ID, created.BusinessUnitID, map[string]interface{}{
		"family_id": familyID,
		"version":   created.Version,
	}))
	return created, nil
}

// Activate promotes a draft version to active, demotes any other active
// family member to draft, and makes it the family's latest version.
func (s *versionManagerImpl) Activate(ctx context.Context, workflowID string) (*entity.Workflow, error) {
	workflow, err := s.promote(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeWorkflowActivated, workflow.ID, workflow.BusinessUnitID, map[string]interface{}{
		"version": workflow.Version,
	}))
	return workflow, nil
}

// SetDraft explicitly demotes an active version back to draft. The latest
// flag is untouched.
func (s *versionManagerImpl) SetDraft(ctx context.Context, workflowID string) (*entity.Workflow, error) {
	workflow, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	err = s.familyLock.Synchronized(ctx, workflow.FamilyID(), func(ctx context.Context) error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			// The pre-lock read only routed us to the family lock; the status
			// may have changed since. The edge check needs the current row.
			current, err := s.GetWorkflow(txCtx, workflow.ID)
			if err != nil {
				return err
			}
			workflow = current
			if workflow.Status == entity.WorkflowStatusDraft {
				return nil
			}
			if err := requireLifecycleEdge(workflow.Status, lifecycleDemote); err != nil {
				return err
			}
			if err := s.workflowRepo.SetStatus(txCtx, workflow.ID, entity.WorkflowStatusDraft); err != nil {
				return fmt.Errorf("set status: %w", err)
			}
			workflow.Status = entity.WorkflowStatusDraft
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Workflow demoted to draft", "id", workflow.ID)
	return workflow, nil
}

// Archive retires the whole family: every member, any status, becomes
// archived.
func (s *versionManagerImpl) Archive(ctx context.Context, workflowID string) error {
	workflow, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	familyID := workflow.FamilyID()
	changed := false
	err = s.familyLock.Synchronized(ctx, familyID, func(ctx context.Context) error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			current, err := s.GetWorkflow(txCtx, workflow.ID)
			if err != nil {
				return err
			}
			workflow = current
			if workflow.Status == entity.WorkflowStatusArchived {
				return nil
			}
			if err := requireLifecycleEdge(workflow.Status, lifecycleArchive); err != nil {
				return err
			}
			if err := s.workflowRepo.SetFamilyStatus(txCtx, familyID, "", entity.WorkflowStatusArchived); err != nil {
				return fmt.Errorf("archive family: %w", err)
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		s.logger.Error("Failed to archive family", "error", err, "family_id", familyID)
		return err
	}
	if !changed {
		return nil
	}

	s.logger.Info("Family archived", "family_id", familyID)
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeWorkflowArchived, workflow.ID, workflow.BusinessUnitID, map[string]interface{}{
		"family_id": familyID,
	}))
	return nil
}

// Unarchive resets exactly the family members that are archived back to
// draft. Re-activation is a separate explicit step.
func (s *versionManagerImpl) Unarchive(ctx context.Context, workflowID string) error {
	workflow, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	familyID := workflow.FamilyID()
	err = s.familyLock.Synchronized(ctx, familyID, func(ctx context.Context) error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			current, err := s.GetWorkflow(txCtx, workflow.ID)
			if err != nil {
				return err
			}
			workflow = current
			if err := requireLifecycleEdge(workflow.Status, lifecycleUnarchive); err != nil {
				return err
			}
			if err := s.workflowRepo.SetFamilyStatus(txCtx, familyID, entity.WorkflowStatusArchived, entity.WorkflowStatusDraft); err != nil {
				return fmt.Errorf("unarchive family: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Error("Failed to unarchive family", "error", err, "family_id", familyID)
		return err
	}

	s.logger.Info("Family unarchived", "family_id", familyID)
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeWorkflowUnarchived, workflow.ID, workflow.BusinessUnitID, map[string]interface{}{
		"family_id": familyID,
	}))
	return nil
}

// RestoreVersion rolls the family back to an older version: the target
// becomes active and latest, any other active member is demoted to draft.
func (s *versionManagerImpl) RestoreVersion(ctx context.Context, targetVersionID string) (*entity.Workflow, error) {
	workflow, err := s.promote(ctx, targetVersionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Version restored", "id", workflow.ID, "version", workflow.Version)
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeVersionRestored, workflow.ID, workflow.BusinessUnitID, map[string]interface{}{
		"version": workflow.Version,
	}))
	return workflow, nil
}

// promote makes the given version the family's active, latest member.
// Shared by Activate and RestoreVersion, which differ only in intent.
func (s *versionManagerImpl) promote(ctx context.Context, workflowID string) (*entity.Workflow, error) {
	workflow, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	familyID := workflow.FamilyID()
	err = s.familyLock.Synchronized(ctx, familyID, func(ctx context.Context) error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			current, err := s.GetWorkflow(txCtx, workflow.ID)
			if err != nil {
				return err
			}
			workflow = current
			if workflow.Status != entity.WorkflowStatusActive {
				if err := requireLifecycleEdge(workflow.Status, lifecycleActivate); err != nil {
					return err
				}
			}
			if _, err := s.loadFamily(txCtx, familyID); err != nil {
				return err
			}

			// Demote every active sibling, then raise the target. Both run
			// inside the same transaction, so no intermediate state is
			// observable.
			if err := s.workflowRepo.SetFamilyStatus(txCtx, familyID, entity.WorkflowStatusActive, entity.WorkflowStatusDraft); err != nil {
				return fmt.Errorf("demote active members: %w", err)
			}
			if err := s.workflowRepo.SetStatus(txCtx, workflow.ID, entity.WorkflowStatusActive); err != nil {
				return fmt.Errorf("set status: %w", err)
			}
			if err := s.workflowRepo.SetLatest(txCtx, workflow.ID, familyID); err != nil {
				return fmt.Errorf("set latest: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Error("Failed to promote workflow", "error", err, "id", workflowID)
		return nil, err
	}

	workflow.Status = entity.WorkflowStatusActive
	workflow.IsLatest = true
	s.logger.Info("Workflow activated", "id", workflow.ID, "version", workflow.Version)
	return workflow, nil
}

// loadFamily fetches the family members and verifies the single-latest
// invariant before any write relies on it.
func (s *versionManagerImpl) loadFamily(ctx context.Context, familyID string) ([]*entity.Workflow, error) {
	members, err := s.workflowRepo.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	latest := 0
	for _, m := range members {
		if m.IsLatest {
			latest++
		}
	}
	if latest > 1 {
		return nil, &entity.InvariantViolationError{
			Message: fmt.Sprintf("family %s has %d latest members", familyID, latest),
		}
	}
	return members, nil
}

// validateSteps checks the supplied step list for contiguous numbering and
// existing approver roles.
func (s *versionManagerImpl) validateSteps(ctx context.Context, steps []StepInput) ([]StepInput, error) {
	if len(steps) == 0 {
		return nil, entity.NewValidationError("steps", "at least one approval step is required")
	}

	seen := make(map[int]bool, len(steps))
	roleIDs := make([]string, 0, len(steps))
	for _, step := range steps {
		if step.StepNumber < 1 || step.StepNumber > len(steps) || seen[step.StepNumber] {
			return nil, entity.NewValidationError("steps", "step numbers must be contiguous starting at 1")
		}
		seen[step.StepNumber] = true
		if step.ApproverRoleID == "" {
			return nil, entity.NewValidationError("steps", fmt.Sprintf("step %d has no approver role", step.StepNumber))
		}
		roleIDs = append(roleIDs, step.ApproverRoleID)
	}

	names, err := s.roleRepo.GetNames(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	for _, id := range roleIDs {
		if _, ok := names[id]; !ok {
			return nil, entity.NewValidationError("steps", fmt.Sprintf("approver role %s does not exist", id))
		}
	}
	return steps, nil
}

func bindSteps(workflowID string, steps []StepInput) []entity.Step {
	out := make([]entity.Step, 0, len(steps))
	for _, s := range steps {
		out = append(out, entity.Step{
			WorkflowID:     workflowID,
			StepNumber:     s.StepNumber,
			ApproverRoleID: s.ApproverRoleID,
		})
	}
	return out
}
