package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flowchain/approval-engine/internal/application/dispatcher"
	"github.com/flowchain/approval-engine/internal/application/port"
	"github.com/flowchain/approval-engine/internal/domain/chain"
	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/internal/domain/event"
)

// TransitionInput carries the caller-supplied fields of a transition.
type TransitionInput struct {
	SourceWorkflowID string                  `json:"source_workflow_id"`
	TargetWorkflowID string                  `json:"target_workflow_id"`
	TriggerCondition entity.TriggerCondition `json:"trigger_condition"`
	TargetTemplateID *string                 `json:"target_template_id,omitempty"`
	InitiatorRoleID  *string                 `json:"initiator_role_id,omitempty"`
	AutoTrigger      bool                    `json:"auto_trigger"`
	Description      string                  `json:"description"`
}

// SpawnAction is what EvaluateOutcome decided to do.
type SpawnAction string

const (
	// SpawnActionNone means no transition matched the outcome.
	SpawnActionNone SpawnAction = "none"
	// SpawnActionSpawn means a new request was created automatically.
	SpawnActionSpawn SpawnAction = "spawned"
	// SpawnActionNotify means the resolved initiator was told a manual
	// trigger is waiting.
	SpawnActionNotify SpawnAction = "notified"
)

// SpawnDecision is the result of evaluating a request's terminal outcome
// against the source workflow's outgoing transitions.
type SpawnDecision struct {
	Action           SpawnAction `json:"action"`
	TransitionID     string      `json:"transition_id,omitempty"`
	TargetWorkflowID string      `json:"target_workflow_id,omitempty"`
	TargetTemplateID *string     `json:"target_template_id,omitempty"`
	InitiatorID      string      `json:"initiator_id,omitempty"`
	SpawnedRequestID string      `json:"spawned_request_id,omitempty"`
}

// TransitionEngine manages the directed edges of the workflow graph and
// evaluates trigger conditions when requests reach terminal outcomes.
type TransitionEngine interface {
	CreateTransition(ctx context.Context, input TransitionInput) (*entity.Transition, error)
	UpdateTransition(ctx context.Context, id string, input TransitionInput) (*entity.Transition, error)
	DeleteTransition(ctx context.Context, id string) error
	EvaluateOutcome(ctx context.Context, requestID, workflowID string, outcome entity.TriggerCondition) (*SpawnDecision, error)
	GetChain(ctx context.Context, startWorkflowID string) ([]entity.ChainNode, error)
}

type transitionEngineImpl struct {
	workflowRepo   port.WorkflowRepository
	transitionRepo port.TransitionRepository
	requestRepo    port.RequestRepository
	resolver       GraphResolver
	spawner        port.RequestSpawner
	notifier       port.Notifier
	txManager      port.TransactionManager
	events         dispatcher.Dispatcher
	logger         Logger
}

// NewTransitionEngine creates a new TransitionEngine
func NewTransitionEngine(
	workflowRepo port.WorkflowRepository,
	transitionRepo port.TransitionRepository,
	requestRepo port.RequestRepository,
	resolver GraphResolver,
	spawner port.RequestSpawner,
	notifier port.Notifier,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) TransitionEngine {
	return &transitionEngineImpl{
		workflowRepo:   workflowRepo,
		transitionRepo: transitionRepo,
		requestRepo:    requestRepo,
		resolver:       resolver,
		spawner:        spawner,
		notifier:       notifier,
		txManager:      txManager,
		events:         events,
		logger:         logger,
	}
}

// CreateTransition validates and persists a new edge. The cycle check, the
// duplicate (source, condition) check and the insert all run in one
// transaction: two concurrent creates of complementary edges must not both
// see a graph without the other's edge.
func (s *transitionEngineImpl) CreateTransition(ctx context.Context, input TransitionInput) (*entity.Transition, error) {
	if err := validateTransitionFields(input); err != nil {
		return nil, err
	}

	now := time.Now()
	transition := &entity.Transition{
		ID:               newID(),
		SourceWorkflowID: input.SourceWorkflowID,
		TargetWorkflowID: input.TargetWorkflowID,
		TriggerCondition: input.TriggerCondition,
		TargetTemplateID: input.TargetTemplateID,
		InitiatorRoleID:  input.InitiatorRoleID,
		AutoTrigger:      input.AutoTrigger,
		Description:      input.Description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resolver.ValidateTransition(txCtx, input.SourceWorkflowID, input.TargetWorkflowID, input.TargetTemplateID); err != nil {
			return err
		}
		existing, err := s.transitionRepo.GetBySourceAndCondition(txCtx, input.SourceWorkflowID, input.TriggerCondition)
		if err != nil {
			return fmt.Errorf("check duplicate trigger: %w", err)
		}
		if existing != nil {
			return &entity.DuplicateTriggerError{
				SourceWorkflowID: input.SourceWorkflowID,
				Condition:        input.TriggerCondition,
			}
		}
		if err := s.transitionRepo.Insert(txCtx, transition); err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create transition", "error", err,
			"source", input.SourceWorkflowID, "target", input.TargetWorkflowID)
		return nil, err
	}

	s.logger.Info("Transition created", "id", transition.ID,
		"source", transition.SourceWorkflowID, "target", transition.TargetWorkflowID,
		"condition", transition.TriggerCondition)
	s.dispatchTransitionEvent(ctx, event.TypeTransitionCreated, transition)
	return transition, nil
}

// UpdateTransition replaces a transition's fields. When the edge itself
// (source, target or condition) changes, validation and the duplicate check
// run again.
func (s *transitionEngineImpl) UpdateTransition(ctx context.Context, id string, input TransitionInput) (*entity.Transition, error) {
	existing, err := s.getTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	edgeChanged := existing.SourceWorkflowID != input.SourceWorkflowID ||
		existing.TargetWorkflowID != input.TargetWorkflowID ||
		existing.TriggerCondition != input.TriggerCondition
	if edgeChanged {
		if err := validateTransitionFields(input); err != nil {
			return nil, err
		}
	}

	updated := &entity.Transition{
		ID:               existing.ID,
		SourceWorkflowID: input.SourceWorkflowID,
		TargetWorkflowID: input.TargetWorkflowID,
		TriggerCondition: input.TriggerCondition,
		TargetTemplateID: input.TargetTemplateID,
		InitiatorRoleID:  input.InitiatorRoleID,
		AutoTrigger:      input.AutoTrigger,
		Description:      input.Description,
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if edgeChanged {
			if err := s.resolver.ValidateTransition(txCtx, input.SourceWorkflowID, input.TargetWorkflowID, input.TargetTemplateID); err != nil {
				return err
			}
			duplicate, err := s.transitionRepo.GetBySourceAndCondition(txCtx, input.SourceWorkflowID, input.TriggerCondition)
			if err != nil {
				return fmt.Errorf("check duplicate trigger: %w", err)
			}
			if duplicate != nil && duplicate.ID != id {
				return &entity.DuplicateTriggerError{
					SourceWorkflowID: input.SourceWorkflowID,
					Condition:        input.TriggerCondition,
				}
			}
		}
		if err := s.transitionRepo.Update(txCtx, updated); err != nil {
			return fmt.Errorf("update transition: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update transition", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Transition updated", "id", id)
	s.dispatchTransitionEvent(ctx, event.TypeTransitionUpdated, updated)
	return updated, nil
}

// DeleteTransition removes an edge. Requests that already passed through it
// are untouched; transitions gate future spawns only.
func (s *transitionEngineImpl) DeleteTransition(ctx context.Context, id string) error {
	transition, err := s.getTransition(ctx, id)
	if err != nil {
		return err
	}
	if err := s.transitionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transition: %w", err)
	}

	s.logger.Info("Transition deleted", "id", id)
	s.dispatchTransitionEvent(ctx, event.TypeTransitionDeleted, transition)
	return nil
}

// EvaluateOutcome decides what happens after a request reaches a terminal
// outcome on workflowID. No matching transition means no action; a matching
// auto transition spawns the next request through the collaborator; a manual
// one notifies the resolved initiator instead.
func (s *transitionEngineImpl) EvaluateOutcome(ctx context.Context, requestID, workflowID string, outcome entity.TriggerCondition) (*SpawnDecision, error) {
	if !outcome.IsValid() {
		return nil, entity.NewValidationError("outcome", fmt.Sprintf("unknown trigger condition %q", outcome))
	}
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return nil, &entity.NotFoundError{Resource: "request", ID: requestID}
	}

	transition, err := s.transitionRepo.GetBySourceAndCondition(ctx, workflowID, outcome)
	if err != nil {
		return nil, fmt.Errorf("get transition: %w", err)
	}
	if transition == nil {
		return &SpawnDecision{Action: SpawnActionNone}, nil
	}

	initiatorID, err := s.resolveInitiator(ctx, requestID, transition)
	if err != nil {
		return nil, err
	}

	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	businessUnitID := ""
	if workflow != nil {
		businessUnitID = workflow.BusinessUnitID
	}

	decision := &SpawnDecision{
		TransitionID:     transition.ID,
		TargetWorkflowID: transition.TargetWorkflowID,
		TargetTemplateID: transition.TargetTemplateID,
		InitiatorID:      initiatorID,
	}

	if transition.AutoTrigger {
		templateID := ""
		if transition.TargetTemplateID != nil {
			templateID = *transition.TargetTemplateID
		}
		spawnedID, err := s.spawner.CreateRequest(ctx, transition.TargetWorkflowID, templateID, initiatorID)
		if err != nil {
			s.logger.Error("Failed to spawn request", "error", err,
				"transition_id", transition.ID, "target", transition.TargetWorkflowID)
			return nil, fmt.Errorf("spawn request: %w", err)
		}
		decision.Action = SpawnActionSpawn
		decision.SpawnedRequestID = spawnedID

		s.logger.Info("Request spawned", "request_id", spawnedID,
			"source_request_id", requestID, "target", transition.TargetWorkflowID)
		// Every hop of a chain correlates on the request that started it, so
		// subscribers can stitch the chain back together.
		s.events.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeRequestSpawned, spawnedID, businessUnitID, map[string]interface{}{
			"source_request_id":  requestID,
			"transition_id":      transition.ID,
			"target_workflow_id": transition.TargetWorkflowID,
			"initiator_id":       initiatorID,
		}, requestID))
		return decision, nil
	}

	if err := s.notifier.NotifyPendingManualTrigger(ctx, initiatorID, transition, requestID); err != nil {
		s.logger.Error("Failed to notify initiator", "error", err,
			"transition_id", transition.ID, "initiator_id", initiatorID)
		return nil, fmt.Errorf("notify initiator: %w", err)
	}
	decision.Action = SpawnActionNotify

	s.logger.Info("Manual trigger pending", "source_request_id", requestID,
		"target", transition.TargetWorkflowID, "initiator_id", initiatorID)
	s.events.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeManualTriggerPending, requestID, businessUnitID, map[string]interface{}{
		"transition_id":      transition.ID,
		"target_workflow_id": transition.TargetWorkflowID,
		"initiator_id":       initiatorID,
	}, requestID))
	return decision, nil
}

// GetChain resolves the representative linear chain starting at the given
// workflow.
func (s *transitionEngineImpl) GetChain(ctx context.Context, startWorkflowID string) ([]entity.ChainNode, error) {
	start, err := s.workflowRepo.GetByID(ctx, startWorkflowID)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if start == nil {
		return nil, &entity.NotFoundError{Resource: "workflow", ID: startWorkflowID}
	}

	workflows, err := s.workflowRepo.ListInBusinessUnit(ctx, start.BusinessUnitID, true)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	transitions, err := s.transitionRepo.ListInBusinessUnit(ctx, start.BusinessUnitID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}

	names := make(map[string]string, len(workflows))
	for _, w := range workflows {
		names[w.ID] = w.Name
	}
	bySource := make(map[string][]*entity.Transition, len(transitions))
	for _, t := range transitions {
		bySource[t.SourceWorkflowID] = append(bySource[t.SourceWorkflowID], t)
	}

	return chain.Walk(start.ID, bySource, names), nil
}

// resolveInitiator picks the transition's configured role, falling back to
// the actor of the highest approved step in the source request's history.
func (s *transitionEngineImpl) resolveInitiator(ctx context.Context, requestID string, transition *entity.Transition) (string, error) {
	if transition.InitiatorRoleID != nil && *transition.InitiatorRoleID != "" {
		return *transition.InitiatorRoleID, nil
	}

	history, err := s.requestRepo.ListHistory(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("list request history: %w", err)
	}

	lastStep := 0
	actor := ""
	for _, h := range history {
		if h.Outcome == entity.StepOutcomeApproved && h.StepNumber >= lastStep {
			lastStep = h.StepNumber
			actor = h.ActorID
		}
	}
	if actor == "" {
		return "", entity.NewValidationError("initiator",
			fmt.Sprintf("request %s has no approved step to resolve an initiator from", requestID))
	}
	return actor, nil
}

func (s *transitionEngineImpl) getTransition(ctx context.Context, id string) (*entity.Transition, error) {
	transition, err := s.transitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transition: %w", err)
	}
	if transition == nil {
		return nil, &entity.NotFoundError{Resource: "transition", ID: id}
	}
	return transition, nil
}

func validateTransitionFields(input TransitionInput) error {
	if input.SourceWorkflowID == "" {
		return entity.NewValidationError("source_workflow_id", "source workflow is required")
	}
	if input.TargetWorkflowID == "" {
		return entity.NewValidationError("target_workflow_id", "target workflow is required")
	}
	if !input.TriggerCondition.IsValid() {
		return entity.NewValidationError("trigger_condition", fmt.Sprintf("unknown trigger condition %q", input.TriggerCondition))
	}
	return nil
}

func (s *transitionEngineImpl) dispatchTransitionEvent(ctx context.Context, eventType event.Type, transition *entity.Transition) {
	workflow, err := s.workflowRepo.GetByID(ctx, transition.SourceWorkflowID)
	businessUnitID := ""
	if err == nil && workflow != nil {
		businessUnitID = workflow.BusinessUnitID
	}
	e := event.NewEvent(eventType, transition.ID, businessUnitID, map[string]interface{}{
		"source_workflow_id": transition.SourceWorkflowID,
		"target_workflow_id": transition.TargetWorkflowID,
		"trigger_condition":  transition.TriggerCondition.String(),
	})
	s.events.DispatchAsync(ctx, e.WithPayload("auto_trigger", transition.AutoTrigger))
}
