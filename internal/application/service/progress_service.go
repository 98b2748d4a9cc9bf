package service

import (
	"context"
	"fmt"

	"github.com/flowchain/approval-engine/internal/application/port"
	"github.com/flowchain/approval-engine/internal/domain/chain"
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// ProgressService derives a request's current position from its chain
// definition and append-only history.
type ProgressService interface {
	GetRequest(ctx context.Context, requestID string) (*entity.Request, error)
	GetProgress(ctx context.Context, requestID string) (*chain.WorkflowProgress, error)
}

type progressServiceImpl struct {
	requestRepo  port.RequestRepository
	workflowRepo port.WorkflowRepository
	sectionRepo  port.SectionRepository
	roleRepo     port.RoleRepository
	logger       Logger
}

// NewProgressService creates a new ProgressService
func NewProgressService(
	requestRepo port.RequestRepository,
	workflowRepo port.WorkflowRepository,
	sectionRepo port.SectionRepository,
	roleRepo port.RoleRepository,
	logger Logger,
) ProgressService {
	return &progressServiceImpl{
		requestRepo:  requestRepo,
		workflowRepo: workflowRepo,
		sectionRepo:  sectionRepo,
		roleRepo:     roleRepo,
		logger:       logger,
	}
}

// GetRequest retrieves a request by id.
func (s *progressServiceImpl) GetRequest(ctx context.Context, requestID string) (*entity.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return nil, &entity.NotFoundError{Resource: "request", ID: requestID}
	}
	return request, nil
}

// GetProgress loads the request's chain definition, history and role names,
// then delegates to the pure computation. A request bound to a plain workflow
// without sections gets a single synthesized section around the workflow's
// step list, so both shapes report through the same structure.
func (s *progressServiceImpl) GetProgress(ctx context.Context, requestID string) (*chain.WorkflowProgress, error) {
	request, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	sections, err := s.sectionRepo.ListByChain(ctx, request.WorkflowChainID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	if len(sections) == 0 {
		sections, err = s.synthesizeSection(ctx, request.WorkflowChainID)
		if err != nil {
			return nil, err
		}
	}

	history, err := s.requestRepo.ListHistory(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list request history: %w", err)
	}

	roleIDs := make([]string, 0)
	for _, section := range sections {
		for _, step := range section.Steps {
			roleIDs = append(roleIDs, step.ApproverRoleID)
		}
	}
	roleNames, err := s.roleRepo.GetNames(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve role names: %w", err)
	}

	progress := chain.ComputeProgress(sections, history, request.Status, roleNames)
	return &progress, nil
}

// synthesizeSection wraps a sectionless workflow's step list in one section.
func (s *progressServiceImpl) synthesizeSection(ctx context.Context, workflowID string) ([]entity.Section, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if workflow == nil {
		return nil, &entity.NotFoundError{Resource: "workflow", ID: workflowID}
	}
	steps, err := s.workflowRepo.ListSteps(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, nil
	}
	return []entity.Section{{
		ID:      workflow.ID,
		ChainID: workflow.ID,
		Order:   0,
		Name:    workflow.Name,
		Steps:   steps,
	}}, nil
}
