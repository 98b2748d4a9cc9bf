package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/pkg/database"
)

// TransitionRepository handles transition database operations
type TransitionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTransitionRepository creates a new transition repository
func NewTransitionRepository(db *database.DB, logger *zap.Logger) *TransitionRepository {
	return &TransitionRepository{
		db:     db,
		logger: logger,
	}
}

const transitionColumns = `id, source_workflow_id, target_workflow_id, trigger_condition,
	target_template_id, initiator_role_id, auto_trigger, description, created_at, updated_at`

// Insert persists a new transition.
func (r *TransitionRepository) Insert(ctx context.Context, transition *entity.Transition) error {
	query := `
		INSERT INTO transitions (
			id, source_workflow_id, target_workflow_id, trigger_condition,
			target_template_id, initiator_role_id, auto_trigger, description,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := queryable(ctx, r.db).ExecContext(ctx, query,
		transition.ID,
		transition.SourceWorkflowID,
		transition.TargetWorkflowID,
		transition.TriggerCondition.String(),
		transition.TargetTemplateID,
		transition.InitiatorRoleID,
		transition.AutoTrigger,
		transition.Description,
		transition.CreatedAt,
		transition.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert transition", zap.Error(err), zap.String("id", transition.ID))
		return fmt.Errorf("failed to insert transition: %w", err)
	}
	return nil
}

// GetByID retrieves a transition by id. Returns (nil, nil) when absent.
func (r *TransitionRepository) GetByID(ctx context.Context, id string) (*entity.Transition, error) {
	query := `SELECT ` + transitionColumns + ` FROM transitions WHERE id = ?`

	transition, err := scanTransition(queryable(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transition: %w", err)
	}
	return transition, nil
}

// GetBySourceAndCondition retrieves the unique transition for a (source,
// condition) pair. Returns (nil, nil) when absent.
func (r *TransitionRepository) GetBySourceAndCondition(ctx context.Context, sourceWorkflowID string, condition entity.TriggerCondition) (*entity.Transition, error) {
	query := `SELECT ` + transitionColumns + `
		FROM transitions
		WHERE source_workflow_id = ? AND trigger_condition = ?`

	transition, err := scanTransition(queryable(ctx, r.db).QueryRowContext(ctx, query, sourceWorkflowID, condition.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transition by source and condition: %w", err)
	}
	return transition, nil
}

// ListBySource lists a workflow's outgoing transitions.
func (r *TransitionRepository) ListBySource(ctx context.Context, sourceWorkflowID string) ([]*entity.Transition, error) {
	query := `SELECT ` + transitionColumns + `
		FROM transitions
		WHERE source_workflow_id = ?
		ORDER BY trigger_condition`

	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, sourceWorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()
	return collectTransitions(rows)
}

// ListInBusinessUnit lists every transition whose source workflow belongs to
// the business unit.
func (r *TransitionRepository) ListInBusinessUnit(ctx context.Context, businessUnitID string) ([]*entity.Transition, error) {
	query := `
		SELECT t.id, t.source_workflow_id, t.target_workflow_id, t.trigger_condition,
			t.target_template_id, t.initiator_role_id, t.auto_trigger, t.description,
			t.created_at, t.updated_at
		FROM transitions t
		JOIN workflows w ON w.id = t.source_workflow_id
		WHERE w.business_unit_id = ?
		ORDER BY t.created_at, t.id
	`
	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, businessUnitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()
	return collectTransitions(rows)
}

// Update replaces a transition's fields.
func (r *TransitionRepository) Update(ctx context.Context, transition *entity.Transition) error {
	query := `
		UPDATE transitions
		SET source_workflow_id = ?, target_workflow_id = ?, trigger_condition = ?,
			target_template_id = ?, initiator_role_id = ?, auto_trigger = ?,
			description = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := queryable(ctx, r.db).ExecContext(ctx, query,
		transition.SourceWorkflowID,
		transition.TargetWorkflowID,
		transition.TriggerCondition.String(),
		transition.TargetTemplateID,
		transition.InitiatorRoleID,
		transition.AutoTrigger,
		transition.Description,
		transition.UpdatedAt,
		transition.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transition: %w", err)
	}
	return nil
}

// Delete removes a transition.
func (r *TransitionRepository) Delete(ctx context.Context, id string) error {
	_, err := queryable(ctx, r.db).ExecContext(ctx, `DELETE FROM transitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transition: %w", err)
	}
	return nil
}

// CountByWorkflow counts transitions touching the workflow on either end.
func (r *TransitionRepository) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	query := `SELECT COUNT(*) FROM transitions WHERE source_workflow_id = ? OR target_workflow_id = ?`

	var count int
	err := queryable(ctx, r.db).QueryRowContext(ctx, query, workflowID, workflowID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transitions: %w", err)
	}
	return count, nil
}

func scanTransition(row rowScanner) (*entity.Transition, error) {
	var transition entity.Transition
	var condition string
	var templateID, initiatorRoleID sql.NullString

	err := row.Scan(
		&transition.ID,
		&transition.SourceWorkflowID,
		&transition.TargetWorkflowID,
		&condition,
		&templateID,
		&initiatorRoleID,
		&transition.AutoTrigger,
		&transition.Description,
		&transition.CreatedAt,
		&transition.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	transition.TriggerCondition = entity.TriggerCondition(condition)
	if templateID.Valid {
		transition.TargetTemplateID = &templateID.String
	}
	if initiatorRoleID.Valid {
		transition.InitiatorRoleID = &initiatorRoleID.String
	}
	return &transition, nil
}

func collectTransitions(rows *sql.Rows) ([]*entity.Transition, error) {
	var transitions []*entity.Transition
	for rows.Next() {
		transition, err := scanTransition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, transition)
	}
	return transitions, rows.Err()
}
