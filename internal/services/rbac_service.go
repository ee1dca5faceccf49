package services

import (
	"context"
	"errors"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

// Permission names checked by the HTTP layer.
const (
	PermTendersRead     = "tenders:read"
	PermTendersWrite    = "tenders:write"
	PermDebtsRead       = "debts:read"
	PermDebtsWrite      = "debts:write"
	PermStaffRead       = "staff:read"
	PermStaffWrite      = "staff:write"
	PermBankingRead     = "banking:read"
	PermBankingWrite    = "banking:write"
	PermAccountingRead  = "accounting:read"
	PermAccountingWrite = "accounting:write"
	PermInvestorsRead   = "investors:read"
	PermInvestorsWrite  = "investors:write"
	PermDashboardRead   = "dashboard:read"
	PermAssistantUse    = "assistant:use"
	PermAuditRead       = "audit:read"
	PermTenantManage    = "tenant:manage"
)

// AllPermissions lists every named permission, used to validate roles.
var AllPermissions = []string{
	PermTendersRead, PermTendersWrite, PermDebtsRead, PermDebtsWrite, PermStaffRead, PermStaffWrite,
	PermBankingRead, PermBankingWrite, PermAccountingRead, PermAccountingWrite, PermInvestorsRead,
	PermInvestorsWrite, PermDashboardRead, PermAssistantUse, PermAuditRead, PermTenantManage,
}

type RBACService interface {
	UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error)
	GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error)
}

type rbacService struct {
	roleRepo repositories.RoleRepository
}

func NewRBACService(roleRepo repositories.RoleRepository) RBACService {
	return &rbacService{roleRepo: roleRepo}
}

func (s *rbacService) UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error) {
	role, err := s.roleRepo.GetForUser(ctx, tenantID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role.Grants(permissionName), nil
}

func (s *rbacService) GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	role, err := s.roleRepo.GetForUser(ctx, tenantID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	for _, p := range role.Permissions {
		if p == models.PermissionAll {
			return AllPermissions, nil
		}
	}
	return role.Permissions, nil
}

func validPermission(p string) bool {
	if p == models.PermissionAll {
		return true
	}
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}
