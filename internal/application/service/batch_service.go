package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// Batch operation names. Each maps onto one engine operation.
const (
	BatchOpWorkflowActivate  = "workflow.activate"
	BatchOpWorkflowDraft     = "workflow.draft"
	BatchOpWorkflowArchive   = "workflow.archive"
	BatchOpWorkflowUnarchive = "workflow.unarchive"
	BatchOpWorkflowRestore   = "workflow.restore"
	BatchOpTransitionCreate  = "transition.create"
	BatchOpTransitionDelete  = "transition.delete"
	BatchOpRoleCreate        = "role.create"
	BatchOpRoleDelete        = "role.delete"
)

// Command is one operation in a batch. Payload shape depends on Op.
type Command struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

// Result is the outcome of one batch command. Commands run sequentially and
// independently: a failed command never rolls back the ones before it.
type Result struct {
	Op    string      `json:"op"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// BatchService executes a list of engine commands at the integration
// boundary, one result per command.
type BatchService interface {
	ApplyBatch(ctx context.Context, commands []Command) []Result
}

type batchServiceImpl struct {
	versions    VersionManager
	transitions TransitionEngine
	roles       RoleService
	logger      Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(
	versions VersionManager,
	transitions TransitionEngine,
	roles RoleService,
	logger Logger,
) BatchService {
	return &batchServiceImpl{
		versions:    versions,
		transitions: transitions,
		roles:       roles,
		logger:      logger,
	}
}

// ApplyBatch runs the commands in order. Each result carries the per-command
// error; there is no batch-level atomicity.
func (s *batchServiceImpl) ApplyBatch(ctx context.Context, commands []Command) []Result {
	results := make([]Result, 0, len(commands))
	failed := 0
	for _, cmd := range commands {
		data, err := s.apply(ctx, cmd)
		result := Result{Op: cmd.Op, Data: data}
		if err != nil {
			result.Error = err.Error()
			failed++
		}
		results = append(results, result)
	}
	s.logger.Info("Batch applied", "commands", len(commands), "failed", failed)
	return results
}

type batchIDPayload struct {
	ID string `json:"id"`
}

func (s *batchServiceImpl) apply(ctx context.Context, cmd Command) (interface{}, error) {
	switch cmd.Op {
	case BatchOpWorkflowActivate:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return s.versions.Activate(ctx, id)
	case BatchOpWorkflowDraft:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return s.versions.SetDraft(ctx, id)
	case BatchOpWorkflowArchive:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return nil, s.versions.Archive(ctx, id)
	case BatchOpWorkflowUnarchive:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return nil, s.versions.Unarchive(ctx, id)
	case BatchOpWorkflowRestore:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return s.versions.RestoreVersion(ctx, id)
	case BatchOpTransitionCreate:
		var input TransitionInput
		if err := json.Unmarshal(cmd.Payload, &input); err != nil {
			return nil, entity.NewValidationError("payload", err.Error())
		}
		return s.transitions.CreateTransition(ctx, input)
	case BatchOpTransitionDelete:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return nil, s.transitions.DeleteTransition(ctx, id)
	case BatchOpRoleCreate:
		var input CreateRoleInput
		if err := json.Unmarshal(cmd.Payload, &input); err != nil {
			return nil, entity.NewValidationError("payload", err.Error())
		}
		return s.roles.CreateRole(ctx, input)
	case BatchOpRoleDelete:
		id, err := decodeID(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return nil, s.roles.DeleteRole(ctx, id)
	default:
		return nil, entity.NewValidationError("op", fmt.Sprintf("unknown batch operation %q", cmd.Op))
	}
}

func decodeID(payload json.RawMessage) (string, error) {
	var p batchIDPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", entity.NewValidationError("payload", err.Error())
	}
	if p.ID == "" {
		return "", entity.NewValidationError("id", "id is required")
	}
	return p.ID, nil
}
