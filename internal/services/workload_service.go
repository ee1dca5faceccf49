package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

type WorkloadService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *AllocationRequest) (*models.WorkloadAllocation, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkloadAllocation, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *AllocationRequest) (*models.WorkloadAllocation, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.WorkloadFilter) ([]*models.WorkloadAllocation, error)
	Utilization(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) (*Utilization, error)
	TeamUtilization(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Utilization, error)
}

type AllocationRequest struct {
	EmployeeID uuid.UUID  `json:"employee_id" validate:"required"`
	TenderID   *uuid.UUID `json:"tender_id"`
	Title      string     `json:"title" validate:"required"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    time.Time  `json:"end_date" validate:"required"`
	Hours      int        `json:"hours" validate:"gt=0"`
}

type workloadService struct {
	workloadRepo repositories.WorkloadRepository
	employeeRepo repositories.EmployeeRepository
}

func NewWorkloadService(workloadRepo repositories.WorkloadRepository, employeeRepo repositories.EmployeeRepository) WorkloadService {
	return &workloadService{workloadRepo: workloadRepo, employeeRepo: employeeRepo}
}

func (s *workloadService) validate(ctx context.Context, tenantID uuid.UUID, req *AllocationRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalid("title is required")
	}
	if req.Hours <= 0 {
		return invalid("hours must be positive")
	}
	if req.EndDate.Before(req.StartDate) {
		return invalid("end_date cannot be before start_date")
	}
	if _, err := s.employeeRepo.GetByID(ctx, tenantID, req.EmployeeID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return invalid("employee_id does not reference an employee")
		}
		return err
	}
	return nil
}

func applyAllocation(a *models.WorkloadAllocation, req *AllocationRequest) {
	a.EmployeeID = req.EmployeeID
	a.TenderID = req.TenderID
	a.Title = strings.TrimSpace(req.Title)
	a.StartDate = dateOnly(req.StartDate)
	a.EndDate = dateOnly(req.EndDate)
	a.Hours = req.Hours
}

func (s *workloadService) Create(ctx context.Context, tenantID uuid.UUID, req *AllocationRequest) (*models.WorkloadAllocation, error) {
	if err := s.validate(ctx, tenantID, req); err != nil {
		return nil, err
	}
	a := &models.WorkloadAllocation{ID: uuid.New(), TenantID: tenantID}
	applyAllocation(a, req)
	if err := s.workloadRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *workloadService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkloadAllocation, error) {
	return s.workloadRepo.GetByID(ctx, tenantID, id)
}

func (s *workloadService) Update(ctx context.Context, tenantID, id uuid.UUID, req *AllocationRequest) (*models.WorkloadAllocation, error) {
	if err := s.validate(ctx, tenantID, req); err != nil {
		return nil, err
	}
	a, err := s.workloadRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyAllocation(a, req)
	if err := s.workloadRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *workloadService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.workloadRepo.Delete(ctx, tenantID, id)
}

func (s *workloadService) List(ctx context.Context, tenantID uuid.UUID, filter models.WorkloadFilter) ([]*models.WorkloadAllocation, error) {
	return s.workloadRepo.List(ctx, tenantID, filter)
}

func (s *workloadService) Utilization(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) (*Utilization, error) {
	if to.Before(from) {
		return nil, invalid("to cannot be before from")
	}
	employee, err := s.employeeRepo.GetByID(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.workloadRepo.Overlapping(ctx, tenantID, &employeeID, from, to)
	if err != nil {
		return nil, err
	}
	u := ComputeUtilization(employee, allocations, from, to)
	return &u, nil
}

func (s *workloadService) TeamUtilization(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Utilization, error) {
	if to.Before(from) {
		return nil, invalid("to cannot be before from")
	}
	employees, err := s.employeeRepo.List(ctx, tenantID, models.EmployeeStatusActive, 0, 0)
	if err != nil {
		return nil, err
	}
	allocations, err := s.workloadRepo.Overlapping(ctx, tenantID, nil, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]Utilization, 0, len(employees))
	for _, e := range employees {
		out = append(out, ComputeUtilization(e, allocations, from, to))
	}
	return out, nil
}
