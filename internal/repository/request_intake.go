package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/pkg/database"
)

// RequestIntake implements port.RequestSpawner by creating a draft request
// row directly. Full request intake (forms, submission) lives outside the
// engine; this is the minimal collaborator the auto-trigger path needs.
type RequestIntake struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRequestIntake creates a new request intake
func NewRequestIntake(db *database.DB, logger *zap.Logger) *RequestIntake {
	return &RequestIntake{
		db:     db,
		logger: logger,
	}
}

// CreateRequest creates a draft request against the target workflow and
// returns its id. The initiator is recorded for the intake layer to route;
// the request stays DRAFT until that initiator submits it.
func (r *RequestIntake) CreateRequest(ctx context.Context, workflowID, templateID, initiatorID string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO requests (id, workflow_chain_id, status, created_at, updated_at)
		VALUES (?, ?, 'DRAFT', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	if _, err := queryable(ctx, r.db).ExecContext(ctx, query, id, workflowID); err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	r.logger.Info("Request created",
		zap.String("request_id", id),
		zap.String("workflow_id", workflowID),
		zap.String("template_id", templateID),
		zap.String("initiator_id", initiatorID))
	return id, nil
}
