package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/pkg/database"
)

// TemplateRepository handles form template database operations. The engine
// only checks existence and ownership; template content lives elsewhere.
type TemplateRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *database.DB, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Insert persists a new form template.
func (r *TemplateRepository) Insert(ctx context.Context, template *entity.FormTemplate) error {
	query := `INSERT INTO form_templates (id, name, business_unit_id, created_at) VALUES (?, ?, ?, ?)`
	_, err := queryable(ctx, r.db).ExecContext(ctx, query,
		template.ID, template.Name, template.BusinessUnitID, template.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// GetByID retrieves a template by id. Returns (nil, nil) when absent.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entity.FormTemplate, error) {
	query := `SELECT id, name, business_unit_id, created_at FROM form_templates WHERE id = ?`

	var template entity.FormTemplate
	err := queryable(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&template.ID, &template.Name, &template.BusinessUnitID, &template.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}
