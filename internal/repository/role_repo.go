package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/pkg/database"
)

// RoleRepository handles role database operations
type RoleRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *database.DB, logger *zap.Logger) *RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// Insert persists a new role. Capability flags are stored as a JSON array.
func (r *RoleRepository) Insert(ctx context.Context, role *entity.Role) error {
	flags, err := json.Marshal(role.CapabilityFlags)
	if err != nil {
		return fmt.Errorf("failed to marshal capability flags: %w", err)
	}
	if role.CapabilityFlags == nil {
		flags = []byte("[]")
	}

	query := `
		INSERT INTO roles (id, name, business_unit_id, capability_flags, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = queryable(ctx, r.db).ExecContext(ctx, query,
		role.ID, role.Name, role.BusinessUnitID, string(flags), role.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert role", zap.Error(err), zap.String("id", role.ID))
		return fmt.Errorf("failed to insert role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by id. Returns (nil, nil) when absent.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	query := `SELECT id, name, business_unit_id, capability_flags, created_at FROM roles WHERE id = ?`

	role, err := scanRole(queryable(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// ListInBusinessUnit lists a business unit's roles by name.
func (r *RoleRepository) ListInBusinessUnit(ctx context.Context, businessUnitID string) ([]*entity.Role, error) {
	query := `
		SELECT id, name, business_unit_id, capability_flags, created_at
		FROM roles
		WHERE business_unit_id = ?
		ORDER BY name
	`
	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, businessUnitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*entity.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetNames resolves role ids to display names in one query. Unknown ids are
// simply absent from the result.
func (r *RoleRepository) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT id, name FROM roles WHERE id IN (` + placeholders + `)`
	rows, err := queryable(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get role names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan role name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// CountStepReferences counts workflow steps referencing the role.
func (r *RoleRepository) CountStepReferences(ctx context.Context, roleID string) (int, error) {
	var count int
	err := queryable(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workflow_steps WHERE approver_role_id = ?`, roleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count step references: %w", err)
	}
	return count, nil
}

// Delete removes a role.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	_, err := queryable(ctx, r.db).ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

func scanRole(row rowScanner) (*entity.Role, error) {
	var role entity.Role
	var flags string
	err := row.Scan(&role.ID, &role.Name, &role.BusinessUnitID, &flags, &role.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(flags), &role.CapabilityFlags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capability flags: %w", err)
	}
	return &role, nil
}
