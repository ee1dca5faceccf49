package services

import (
	"context"
	"errors"
	"strings"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

type StaffService interface {
	ListRoles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error)
	GetRole(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error)
	CreateRole(ctx context.Context, tenantID uuid.UUID, req *RoleRequest) (*models.Role, error)
	UpdateRole(ctx context.Context, tenantID, id uuid.UUID, req *RoleRequest) (*models.Role, error)
	DeleteRole(ctx context.Context, tenantID, id uuid.UUID) error

	ListEmployees(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Employee, error)
	GetEmployee(ctx context.Context, tenantID, id uuid.UUID) (*models.Employee, error)
	CreateEmployee(ctx context.Context, tenantID uuid.UUID, req *EmployeeRequest) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, tenantID, id uuid.UUID, req *EmployeeRequest) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, tenantID, id uuid.UUID) error
}

type RoleRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type EmployeeRequest struct {
	RoleID              uuid.UUID  `json:"role_id" validate:"required"`
	UserID              *uuid.UUID `json:"user_id"`
	FullName            string     `json:"full_name" validate:"required"`
	Email               string     `json:"email" validate:"omitempty,email"`
	Position            string     `json:"position"`
	WeeklyCapacityHours int        `json:"weekly_capacity_hours" validate:"omitempty,gt=0,lte=168"`
	HourlyRate          int64      `json:"hourly_rate" validate:"gte=0"`
	Status              string     `json:"status" validate:"omitempty,oneof=active inactive"`
}

type staffService struct {
	roleRepo     repositories.RoleRepository
	employeeRepo repositories.EmployeeRepository
}

func NewStaffService(roleRepo repositories.RoleRepository, employeeRepo repositories.EmployeeRepository) StaffService {
	return &staffService{roleRepo: roleRepo, employeeRepo: employeeRepo}
}

func (s *staffService) ListRoles(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Role, error) {
	return s.roleRepo.List(ctx, tenantID, limit, offset)
}

func (s *staffService) GetRole(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error) {
	return s.roleRepo.GetByID(ctx, tenantID, id)
}

func normalizePermissions(perms []string) ([]string, error) {
	seen := make(map[string]bool, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if !validPermission(p) {
			return nil, invalid("unknown permission %q", p)
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *staffService) CreateRole(ctx context.Context, tenantID uuid.UUID, req *RoleRequest) (*models.Role, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	perms, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}
	role := &models.Role{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Permissions: perms,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *staffService) UpdateRole(ctx context.Context, tenantID, id uuid.UUID, req *RoleRequest) (*models.Role, error) {
	perms, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}
	role, err := s.roleRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if role.Name == OwnerRoleName && strings.TrimSpace(req.Name) != OwnerRoleName {
		return nil, invalid("the owner role cannot be renamed")
	}
	role.Name = strings.TrimSpace(req.Name)
	role.Description = req.Description
	role.Permissions = perms
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *staffService) DeleteRole(ctx context.Context, tenantID, id uuid.UUID) error {
	role, err := s.roleRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if role.Name == OwnerRoleName {
		return invalid("the owner role cannot be deleted")
	}
	return s.roleRepo.Delete(ctx, tenantID, id)
}

func (s *staffService) ListEmployees(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Employee, error) {
	return s.employeeRepo.List(ctx, tenantID, status, limit, offset)
}

func (s *staffService) GetEmployee(ctx context.Context, tenantID, id uuid.UUID) (*models.Employee, error) {
	return s.employeeRepo.GetByID(ctx, tenantID, id)
}

func (s *staffService) checkRole(ctx context.Context, tenantID, roleID uuid.UUID) error {
	if _, err := s.roleRepo.GetByID(ctx, tenantID, roleID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return invalid("role_id does not reference a role")
		}
		return err
	}
	return nil
}

func applyEmployeeRequest(e *models.Employee, req *EmployeeRequest) {
	e.RoleID = req.RoleID
	e.UserID = req.UserID
	e.FullName = strings.TrimSpace(req.FullName)
	e.Email = req.Email
	e.Position = req.Position
	e.HourlyRate = req.HourlyRate
	if req.WeeklyCapacityHours > 0 {
		e.WeeklyCapacityHours = req.WeeklyCapacityHours
	}
	if req.Status != "" {
		e.Status = req.Status
	}
}

func (s *staffService) CreateEmployee(ctx context.Context, tenantID uuid.UUID, req *EmployeeRequest) (*models.Employee, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, invalid("full_name is required")
	}
	if req.WeeklyCapacityHours < 0 || req.HourlyRate < 0 {
		return nil, invalid("capacity and rate cannot be negative")
	}
	if err := s.checkRole(ctx, tenantID, req.RoleID); err != nil {
		return nil, err
	}
	employee := &models.Employee{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		WeeklyCapacityHours: 40,
		Status:              models.EmployeeStatusActive,
	}
	applyEmployeeRequest(employee, req)
	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *staffService) UpdateEmployee(ctx context.Context, tenantID, id uuid.UUID, req *EmployeeRequest) (*models.Employee, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, invalid("full_name is required")
	}
	if req.WeeklyCapacityHours < 0 || req.HourlyRate < 0 {
		return nil, invalid("capacity and rate cannot be negative")
	}
	if err := s.checkRole(ctx, tenantID, req.RoleID); err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyEmployeeRequest(employee, req)
	if err := s.employeeRepo.Update(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *staffService) DeleteEmployee(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.employeeRepo.Delete(ctx, tenantID, id)
}
