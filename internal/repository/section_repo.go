package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/pkg/database"
)

// SectionRepository handles chain section database operations
type SectionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(db *database.DB, logger *zap.Logger) *SectionRepository {
	return &SectionRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceSections swaps a chain's section list wholesale, embedded steps and
// initiators included.
func (r *SectionRepository) ReplaceSections(ctx context.Context, chainID string, sections []entity.Section) error {
	q := queryable(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		DELETE FROM section_steps WHERE section_id IN (SELECT id FROM chain_sections WHERE chain_id = ?)`, chainID)
	if err != nil {
		return fmt.Errorf("failed to clear section steps: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		DELETE FROM section_initiators WHERE section_id IN (SELECT id FROM chain_sections WHERE chain_id = ?)`, chainID)
	if err != nil {
		return fmt.Errorf("failed to clear section initiators: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM chain_sections WHERE chain_id = ?`, chainID); err != nil {
		return fmt.Errorf("failed to clear sections: %w", err)
	}

	for _, section := range sections {
		var initiatorType interface{}
		if section.InitiatorType != "" {
			initiatorType = string(section.InitiatorType)
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO chain_sections (id, chain_id, section_order, name, form_template_id, initiator_type, initiator_role_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			section.ID, chainID, section.Order, section.Name, section.FormTemplateID,
			initiatorType, section.InitiatorRoleID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert section %d: %w", section.Order, err)
		}

		for _, step := range section.Steps {
			_, err := q.ExecContext(ctx, `
				INSERT INTO section_steps (section_id, step_number, approver_role_id) VALUES (?, ?, ?)`,
				section.ID, step.StepNumber, step.ApproverRoleID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert section step %d: %w", step.StepNumber, err)
			}
		}
		for _, roleID := range section.InitiatorRoleIDs {
			_, err := q.ExecContext(ctx, `
				INSERT INTO section_initiators (section_id, role_id) VALUES (?, ?)`,
				section.ID, roleID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert section initiator: %w", err)
			}
		}
	}
	return nil
}

// ListByChain returns a chain's sections in order, with their steps and
// initiator roles populated.
func (r *SectionRepository) ListByChain(ctx context.Context, chainID string) ([]entity.Section, error) {
	q := queryable(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT id, chain_id, section_order, name, form_template_id, initiator_type, initiator_role_id
		FROM chain_sections
		WHERE chain_id = ?
		ORDER BY section_order`, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []entity.Section
	for rows.Next() {
		var section entity.Section
		var initiatorType, initiatorRoleID sql.NullString
		err := rows.Scan(&section.ID, &section.ChainID, &section.Order, &section.Name,
			&section.FormTemplateID, &initiatorType, &initiatorRoleID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		if initiatorType.Valid {
			section.InitiatorType = entity.InitiatorType(initiatorType.String)
		}
		if initiatorRoleID.Valid {
			section.InitiatorRoleID = &initiatorRoleID.String
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sections {
		if err := r.loadSectionDetails(ctx, q, &sections[i]); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

// CountRoleReferences counts section steps and initiator slots referencing
// the role.
func (r *SectionRepository) CountRoleReferences(ctx context.Context, roleID string) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM section_steps WHERE approver_role_id = ?) +
			(SELECT COUNT(*) FROM section_initiators WHERE role_id = ?) +
			(SELECT COUNT(*) FROM chain_sections WHERE initiator_role_id = ?)
	`
	var count int
	err := queryable(ctx, r.db).QueryRowContext(ctx, query, roleID, roleID, roleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count role references: %w", err)
	}
	return count, nil
}

func (r *SectionRepository) loadSectionDetails(ctx context.Context, q querier, section *entity.Section) error {
	stepRows, err := q.QueryContext(ctx, `
		SELECT step_number, approver_role_id
		FROM section_steps
		WHERE section_id = ?
		ORDER BY step_number`, section.ID)
	if err != nil {
		return fmt.Errorf("failed to list section steps: %w", err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var step entity.Step
		if err := stepRows.Scan(&step.StepNumber, &step.ApproverRoleID); err != nil {
			return fmt.Errorf("failed to scan section step: %w", err)
		}
		section.Steps = append(section.Steps, step)
	}
	if err := stepRows.Err(); err != nil {
		return err
	}

	initiatorRows, err := q.QueryContext(ctx, `
		SELECT role_id FROM section_initiators WHERE section_id = ? ORDER BY role_id`, section.ID)
	if err != nil {
		return fmt.Errorf("failed to list section initiators: %w", err)
	}
	defer initiatorRows.Close()

	for initiatorRows.Next() {
		var roleID string
		if err := initiatorRows.Scan(&roleID); err != nil {
			return fmt.Errorf("failed to scan section initiator: %w", err)
		}
		section.InitiatorRoleIDs = append(section.InitiatorRoleIDs, roleID)
	}
	return initiatorRows.Err()
}
