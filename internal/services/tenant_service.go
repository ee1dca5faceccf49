package services

import (
	"context"
	"regexp"
	"strings"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/google/uuid"
)

type TenantService interface {
	// Create registers a tenant owned by the calling user and seeds its
	// default pipeline and owner role.
	Create(ctx context.Context, ownerUserID uuid.UUID, req *CreateTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
}

func NewTenantService(tenantRepo repositories.TenantRepository) TenantService {
	return &tenantService{tenantRepo: tenantRepo}
}

type CreateTenantRequest struct {
	Name      string `json:"name" validate:"required"`
	Slug      string `json:"slug" validate:"required"`
	INN       string `json:"inn"`
	OwnerName string `json:"owner_name"`
	OwnerMail string `json:"owner_email" validate:"omitempty,email"`
}

type UpdateTenantRequest struct {
	ID     uuid.UUID
	Name   string `json:"name" validate:"required"`
	Slug   string `json:"slug" validate:"required"`
	INN    string `json:"inn"`
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

const OwnerRoleName = "owner"

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// DefaultStages is the pipeline every new tenant starts with.
var DefaultStages = []struct {
	Name string
	Kind string
}{
	{"Новые", models.StageKindOpen},
	{"Подготовка заявки", models.StageKindOpen},
	{"Подана", models.StageKindOpen},
	{"Выиграна", models.StageKindWon},
	{"Проиграна", models.StageKindLost},
}

func validateTenantFields(name, slug, inn string) error {
	if strings.TrimSpace(name) == "" || slug == "" {
		return invalid("name and slug are required")
	}
	if strings.TrimSpace(slug) != slug || strings.Contains(slug, " ") {
		return invalid("slug cannot have spaces")
	}
	if !slugPattern.MatchString(slug) {
		return invalid("slug may contain lowercase letters, digits and dashes")
	}
	if inn != "" {
		if err := common.ValidateINN(inn, "inn"); err != nil {
			return invalid("%s", err.Error())
		}
	}
	return nil
}

func (s *tenantService) Create(ctx context.Context, ownerUserID uuid.UUID, req *CreateTenantRequest) (*models.Tenant, error) {
	if err := validateTenantFields(req.Name, req.Slug, req.INN); err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(req.Name),
		Slug:   req.Slug,
		INN:    req.INN,
		Status: models.TenantStatusActive,
	}

	stages := make([]*models.TenderStage, 0, len(DefaultStages))
	for i, st := range DefaultStages {
		stages = append(stages, &models.TenderStage{
			ID:       uuid.New(),
			TenantID: tenant.ID,
			Name:     st.Name,
			Position: i + 1,
			Kind:     st.Kind,
		})
	}

	owner := &models.Role{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		Name:        OwnerRoleName,
		Description: "Full access",
		Permissions: []string{models.PermissionAll},
	}

	ownerName := strings.TrimSpace(req.OwnerName)
	if ownerName == "" {
		ownerName = "Owner"
	}
	employee := &models.Employee{
		ID:                  uuid.New(),
		TenantID:            tenant.ID,
		RoleID:              owner.ID,
		UserID:              &ownerUserID,
		FullName:            ownerName,
		Email:               req.OwnerMail,
		WeeklyCapacityHours: 40,
		Status:              models.EmployeeStatusActive,
	}

	if err := s.tenantRepo.CreateWithDefaults(ctx, tenant, stages, owner, employee); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error) {
	if err := validateTenantFields(req.Name, req.Slug, req.INN); err != nil {
		return nil, err
	}
	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Slug = req.Slug
	existing.INN = req.INN
	existing.Status = req.Status

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tenantRepo.Delete(ctx, id)
}
