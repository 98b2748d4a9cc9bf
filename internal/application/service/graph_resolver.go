package service

import (
	"context"
	"fmt"

	"github.com/flowchain/approval-engine/internal/application/port"
	"github.com/flowchain/approval-engine/internal/domain/chain"
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// AvailableTarget is one candidate transition target, annotated with whether
// linking to it would close a cycle. The annotation is advisory for UI;
// ValidateTransition is the enforced gate.
type AvailableTarget struct {
	WorkflowID          string                `json:"workflow_id"`
	Name                string                `json:"name"`
	Version             int                   `json:"version"`
	Status              entity.WorkflowStatus `json:"status"`
	WouldCreateCircular bool                  `json:"would_create_circular"`
}

// GraphResolver answers questions about the business unit's transition graph.
type GraphResolver interface {
	ListAvailableTargets(ctx context.Context, sourceWorkflowID string) ([]AvailableTarget, error)
	ValidateTransition(ctx context.Context, sourceWorkflowID, targetWorkflowID string, targetTemplateID *string) error
}

type graphResolverImpl struct {
	workflowRepo   port.WorkflowRepository
	transitionRepo port.TransitionRepository
	templateRepo   port.TemplateRepository
	logger         Logger
}

// NewGraphResolver creates a new GraphResolver
func NewGraphResolver(
	workflowRepo port.WorkflowRepository,
	transitionRepo port.TransitionRepository,
	templateRepo port.TemplateRepository,
	logger Logger,
) GraphResolver {
	return &graphResolverImpl{
		workflowRepo:   workflowRepo,
		transitionRepo: transitionRepo,
		templateRepo:   templateRepo,
		logger:         logger,
	}
}

// ListAvailableTargets returns every non-archived workflow in the source's
// business unit except the source itself, each annotated with whether adding
// source -> candidate would create a cycle.
func (s *graphResolverImpl) ListAvailableTargets(ctx context.Context, sourceWorkflowID string) ([]AvailableTarget, error) {
	source, graph, workflows, err := s.loadGraph(ctx, sourceWorkflowID)
	if err != nil {
		return nil, err
	}

	targets := make([]AvailableTarget, 0, len(workflows))
	for _, w := range workflows {
		if w.ID == source.ID || w.Status == entity.WorkflowStatusArchived {
			continue
		}
		targets = append(targets, AvailableTarget{
			WorkflowID:          w.ID,
			Name:                w.Name,
			Version:             w.Version,
			Status:              w.Status,
			WouldCreateCircular: graph.WouldCreateCycle(source.ID, w.ID),
		})
	}
	return targets, nil
}

// ValidateTransition is the authoritative creation-time gate: it re-runs the
// cycle check and verifies the target and template references.
func (s *graphResolverImpl) ValidateTransition(ctx context.Context, sourceWorkflowID, targetWorkflowID string, targetTemplateID *string) error {
	source, graph, workflows, err := s.loadGraph(ctx, sourceWorkflowID)
	if err != nil {
		return err
	}

	var target *entity.Workflow
	for _, w := range workflows {
		if w.ID == targetWorkflowID {
			target = w
			break
		}
	}
	if target == nil {
		// The target may live in another business unit; fetch it to tell
		// "does not exist" apart from "wrong business unit".
		other, err := s.workflowRepo.GetByID(ctx, targetWorkflowID)
		if err != nil {
			return fmt.Errorf("get target workflow: %w", err)
		}
		if other == nil {
			return &entity.NotFoundError{Resource: "workflow", ID: targetWorkflowID}
		}
		return entity.NewValidationError("target_workflow_id", "target workflow belongs to a different business unit")
	}
	if target.Status == entity.WorkflowStatusArchived {
		return entity.NewValidationError("target_workflow_id", "target workflow is archived")
	}

	if targetTemplateID != nil && *targetTemplateID != "" {
		template, err := s.templateRepo.GetByID(ctx, *targetTemplateID)
		if err != nil {
			return fmt.Errorf("get target template: %w", err)
		}
		if template == nil {
			return entity.NewValidationError("target_template_id", "template does not exist")
		}
		if template.BusinessUnitID != source.BusinessUnitID {
			return entity.NewValidationError("target_template_id", "template belongs to a different business unit")
		}
	}

	if graph.WouldCreateCycle(source.ID, target.ID) {
		return &entity.CircularChainError{
			SourceWorkflowID: source.ID,
			TargetWorkflowID: target.ID,
		}
	}
	return nil
}

// loadGraph fetches the source workflow plus the business unit's workflow set
// and transition edges, and builds the family-level graph over them.
func (s *graphResolverImpl) loadGraph(ctx context.Context, sourceWorkflowID string) (*entity.Workflow, *chain.Graph, []*entity.Workflow, error) {
	source, err := s.workflowRepo.GetByID(ctx, sourceWorkflowID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get source workflow: %w", err)
	}
	if source == nil {
		return nil, nil, nil, &entity.NotFoundError{Resource: "workflow", ID: sourceWorkflowID}
	}

	workflows, err := s.workflowRepo.ListInBusinessUnit(ctx, source.BusinessUnitID, true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list workflows: %w", err)
	}
	transitions, err := s.transitionRepo.ListInBusinessUnit(ctx, source.BusinessUnitID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list transitions: %w", err)
	}

	return source, chain.NewGraph(workflows, transitions), workflows, nil
}
