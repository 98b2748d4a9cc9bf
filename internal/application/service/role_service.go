package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flowchain/approval-engine/internal/application/port"
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// CreateRoleInput carries the fields for a new approver role.
type CreateRoleInput struct {
	Name            string   `json:"name"`
	BusinessUnitID  string   `json:"business_unit_id"`
	CapabilityFlags []string `json:"capability_flags,omitempty"`
}

// RoleService administers approver roles. Deletion is blocked while any step
// or section references the role.
type RoleService interface {
	CreateRole(ctx context.Context, input CreateRoleInput) (*entity.Role, error)
	GetRole(ctx context.Context, id string) (*entity.Role, error)
	ListRoles(ctx context.Context, businessUnitID string) ([]*entity.Role, error)
	DeleteRole(ctx context.Context, id string) error
}

type roleServiceImpl struct {
	roleRepo    port.RoleRepository
	sectionRepo port.SectionRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewRoleService creates a new RoleService
func NewRoleService(
	roleRepo port.RoleRepository,
	sectionRepo port.SectionRepository,
	txManager port.TransactionManager,
	logger Logger,
) RoleService {
	return &roleServiceImpl{
		roleRepo:    roleRepo,
		sectionRepo: sectionRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateRole creates a new approver role.
func (s *roleServiceImpl) CreateRole(ctx context.Context, input CreateRoleInput) (*entity.Role, error) {
	if input.Name == "" {
		return nil, entity.NewValidationError("name", "name is required")
	}
	if input.BusinessUnitID == "" {
		return nil, entity.NewValidationError("business_unit_id", "business unit is required")
	}

	role := &entity.Role{
		ID:              newID(),
		Name:            input.Name,
		BusinessUnitID:  input.BusinessUnitID,
		CapabilityFlags: input.CapabilityFlags,
		CreatedAt:       time.Now(),
	}
	if err := s.roleRepo.Insert(ctx, role); err != nil {
		s.logger.Error("Failed to create role", "error", err, "name", input.Name)
		return nil, fmt.Errorf("insert role: %w", err)
	}

	s.logger.Info("Role created", "id", role.ID, "name", role.Name)
	return role, nil
}

// GetRole retrieves a role by id.
func (s *roleServiceImpl) GetRole(ctx context.Context, id string) (*entity.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	if role == nil {
		return nil, &entity.NotFoundError{Resource: "role", ID: id}
	}
	return role, nil
}

// ListRoles lists a business unit's roles.
func (s *roleServiceImpl) ListRoles(ctx context.Context, businessUnitID string) ([]*entity.Role, error) {
	if businessUnitID == "" {
		return nil, entity.NewValidationError("business_unit_id", "business unit is required")
	}
	roles, err := s.roleRepo.ListInBusinessUnit(ctx, businessUnitID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// DeleteRole removes a role unless steps or sections still reference it. The
// reference check and the delete share a transaction.
func (s *roleServiceImpl) DeleteRole(ctx context.Context, id string) error {
	if _, err := s.GetRole(ctx, id); err != nil {
		return err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var references []string
		stepCount, err := s.roleRepo.CountStepReferences(txCtx, id)
		if err != nil {
			return fmt.Errorf("count step references: %w", err)
		}
		if stepCount > 0 {
			references = append(references, fmt.Sprintf("%d steps", stepCount))
		}
		sectionCount, err := s.sectionRepo.CountRoleReferences(txCtx, id)
		if err != nil {
			return fmt.Errorf("count section references: %w", err)
		}
		if sectionCount > 0 {
			references = append(references, fmt.Sprintf("%d sections", sectionCount))
		}
		if len(references) > 0 {
			return &entity.DependencyInUseError{Resource: "role", ID: id, References: references}
		}
		if err := s.roleRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Role deleted", "id", id)
	return nil
}
