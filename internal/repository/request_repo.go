package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/pkg/database"
)

// RequestRepository reads requests and their append-only history. The engine
// never writes either; intake and step recording live outside it.
type RequestRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *database.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a request by id. Returns (nil, nil) when absent.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	query := `
		SELECT id, workflow_chain_id, status, created_at, updated_at
		FROM requests
		WHERE id = ?
	`
	var request entity.Request
	var status string
	err := queryable(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.WorkflowChainID,
		&status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	request.Status = entity.RequestStatus(status)
	return &request, nil
}

// ListHistory returns a request's decision records in step order.
func (r *RequestRepository) ListHistory(ctx context.Context, requestID string) ([]entity.RequestHistoryEntry, error) {
	query := `
		SELECT request_id, step_number, actor_id, outcome, decided_at
		FROM request_history
		WHERE request_id = ?
		ORDER BY step_number, decided_at
	`
	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list request history: %w", err)
	}
	defer rows.Close()

	var history []entity.RequestHistoryEntry
	for rows.Next() {
		var entry entity.RequestHistoryEntry
		var outcome string
		err := rows.Scan(&entry.RequestID, &entry.StepNumber, &entry.ActorID, &outcome, &entry.DecidedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Outcome = entity.StepOutcome(outcome)
		history = append(history, entry)
	}
	return history, rows.Err()
}

// CountByWorkflow counts requests running against the workflow.
func (r *RequestRepository) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	var count int
	err := queryable(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE workflow_chain_id = ?`, workflowID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}
