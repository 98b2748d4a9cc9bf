package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/pkg/database"
)

// WorkflowRepository handles workflow and step database operations
type WorkflowRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *database.DB, logger *zap.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

const workflowColumns = `id, name, description, business_unit_id, status, version,
	parent_workflow_id, is_latest, created_at, updated_at`

// Insert persists a new workflow version.
func (r *WorkflowRepository) Insert(ctx context.Context, workflow *entity.Workflow) error {
	query := `
		INSERT INTO workflows (
			id, name, description, business_unit_id, status, version,
			parent_workflow_id, is_latest, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := queryable(ctx, r.db).ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.BusinessUnitID,
		workflow.Status.String(),
		workflow.Version,
		workflow.ParentWorkflowID,
		workflow.IsLatest,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert workflow", zap.Error(err), zap.String("id", workflow.ID))
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}

// GetByID retrieves a workflow by id. Returns (nil, nil) when absent.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = ?`

	workflow, err := r.scanWorkflow(queryable(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return workflow, nil
}

// ListInBusinessUnit lists a business unit's workflows, newest first.
func (r *WorkflowRepository) ListInBusinessUnit(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE business_unit_id = ?`
	if !includeArchived {
		query += ` AND status != 'archived'`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, businessUnitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()
	return r.collectWorkflows(rows)
}

// ListFamilyMembers returns every version sharing the given family root,
// including the root itself, ordered by version.
func (r *WorkflowRepository) ListFamilyMembers(ctx context.Context, familyID string) ([]*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = ? OR parent_workflow_id = ?
		ORDER BY version`

	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, familyID, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	defer rows.Close()
	return r.collectWorkflows(rows)
}

// SetLatest flags the given member as latest and clears every sibling in the
// same statement, so no interleaving can observe two latest members.
func (r *WorkflowRepository) SetLatest(ctx context.Context, workflowID, familyID string) error {
	query := `
		UPDATE workflows
		SET is_latest = CASE WHEN id = ? THEN 1 ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? OR parent_workflow_id = ?
	`
	_, err := queryable(ctx, r.db).ExecContext(ctx, query, workflowID, familyID, familyID)
	if err != nil {
		r.logger.Error("Failed to set latest", zap.Error(err), zap.String("workflow_id", workflowID))
		return fmt.Errorf("failed to set latest: %w", err)
	}
	return nil
}

// SetStatus updates one workflow's lifecycle status.
func (r *WorkflowRepository) SetStatus(ctx context.Context, workflowID string, status entity.WorkflowStatus) error {
	query := `UPDATE workflows SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := queryable(ctx, r.db).ExecContext(ctx, query, status.String(), workflowID)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// SetFamilyStatus moves family members from one status to another. An empty
// fromStatus matches all members.
func (r *WorkflowRepository) SetFamilyStatus(ctx context.Context, familyID string, fromStatus, toStatus entity.WorkflowStatus) error {
	query := `
		UPDATE workflows
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE (id = ? OR parent_workflow_id = ?)
	`
	args := []interface{}{toStatus.String(), familyID, familyID}
	if fromStatus != "" {
		query += ` AND status = ?`
		args = append(args, fromStatus.String())
	}

	_, err := queryable(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to set family status", zap.Error(err), zap.String("family_id", familyID))
		return fmt.Errorf("failed to set family status: %w", err)
	}
	return nil
}

// Delete removes a workflow. Steps go with it via the foreign key cascade.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := queryable(ctx, r.db).ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return nil
}

// ReplaceSteps swaps the workflow's step list wholesale.
func (r *WorkflowRepository) ReplaceSteps(ctx context.Context, workflowID string, steps []entity.Step) error {
	q := queryable(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM workflow_steps WHERE workflow_id = ?`, workflowID); err != nil {
		return fmt.Errorf("failed to clear steps: %w", err)
	}
	for _, step := range steps {
		_, err := q.ExecContext(ctx,
			`INSERT INTO workflow_steps (workflow_id, step_number, approver_role_id) VALUES (?, ?, ?)`,
			workflowID, step.StepNumber, step.ApproverRoleID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %d: %w", step.StepNumber, err)
		}
	}
	return nil
}

// ListSteps returns the workflow's steps in step order.
func (r *WorkflowRepository) ListSteps(ctx context.Context, workflowID string) ([]entity.Step, error) {
	query := `
		SELECT workflow_id, step_number, approver_role_id
		FROM workflow_steps
		WHERE workflow_id = ?
		ORDER BY step_number
	`
	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []entity.Step
	for rows.Next() {
		var step entity.Step
		if err := rows.Scan(&step.WorkflowID, &step.StepNumber, &step.ApproverRoleID); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*entity.Workflow, error) {
	var workflow entity.Workflow
	var status string
	var parent sql.NullString

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.BusinessUnitID,
		&status,
		&workflow.Version,
		&parent,
		&workflow.IsLatest,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Status = entity.WorkflowStatus(status)
	if parent.Valid {
		workflow.ParentWorkflowID = &parent.String
	}
	return &workflow, nil
}

func (r *WorkflowRepository) collectWorkflows(rows *sql.Rows) ([]*entity.Workflow, error) {
	var workflows []*entity.Workflow
	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, workflow)
	}
	return workflows, rows.Err()
}
