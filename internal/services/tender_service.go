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

// TenderView is a tender with its stage name and stage timing.
type TenderView struct {
	*models.Tender
	StageName string      `json:"stage_name"`
	StageKind string      `json:"stage_kind"`
	Timing    StageTiming `json:"timing"`
}

type TenderService interface {
	ListStages(ctx context.Context, tenantID uuid.UUID) ([]*models.TenderStage, error)
	CreateStage(ctx context.Context, tenantID uuid.UUID, req *StageRequest) (*models.TenderStage, error)
	UpdateStage(ctx context.Context, tenantID, id uuid.UUID, req *StageRequest) (*models.TenderStage, error)
	DeleteStage(ctx context.Context, tenantID, id uuid.UUID) error

	Create(ctx context.Context, tenantID uuid.UUID, req *TenderRequest) (*TenderView, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*TenderView, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *TenderRequest) (*TenderView, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.TenderFilter) ([]*TenderView, error)
	ChangeStage(ctx context.Context, tenantID, tenderID, stageID uuid.UUID, by *uuid.UUID) (*TenderView, error)
	ListStale(ctx context.Context, tenantID uuid.UUID) ([]*TenderView, error)
	History(ctx context.Context, tenantID, tenderID uuid.UUID) ([]*models.TenderStageChange, error)
}

type StageRequest struct {
	Name           string `json:"name" validate:"required"`
	Position       int    `json:"position" validate:"gte=1"`
	Kind           string `json:"kind" validate:"omitempty,oneof=open won lost"`
	StaleAfterDays int    `json:"stale_after_days" validate:"gte=0"`
}

type TenderRequest struct {
	Title          string     `json:"title" validate:"required"`
	Customer       string     `json:"customer"`
	RegistryNumber string     `json:"registry_number"`
	Platform       string     `json:"platform"`
	InitialPrice   int64      `json:"initial_price" validate:"gte=0"`
	BidPrice       *int64     `json:"bid_price" validate:"omitempty,gte=0"`
	ContractPrice  *int64     `json:"contract_price" validate:"omitempty,gte=0"`
	CostEstimate   int64      `json:"cost_estimate" validate:"gte=0"`
	StageID        *uuid.UUID `json:"stage_id"`
	Deadline       *time.Time `json:"deadline"`
	ResponsibleID  *uuid.UUID `json:"responsible_id"`
	Notes          string     `json:"notes"`
}

type tenderService struct {
	tenderRepo   repositories.TenderRepository
	stageRepo    repositories.TenderStageRepository
	employeeRepo repositories.EmployeeRepository
	staleDefault int
	now          func() time.Time
}

func NewTenderService(tenderRepo repositories.TenderRepository, stageRepo repositories.TenderStageRepository,
	employeeRepo repositories.EmployeeRepository, staleAfterDays int) TenderService {
	return &tenderService{
		tenderRepo:   tenderRepo,
		stageRepo:    stageRepo,
		employeeRepo: employeeRepo,
		staleDefault: staleAfterDays,
		now:          time.Now,
	}
}

func (s *tenderService) ListStages(ctx context.Context, tenantID uuid.UUID) ([]*models.TenderStage, error) {
	return s.stageRepo.List(ctx, tenantID)
}

func (s *tenderService) CreateStage(ctx context.Context, tenantID uuid.UUID, req *StageRequest) (*models.TenderStage, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	if req.StaleAfterDays < 0 {
		return nil, invalid("stale_after_days cannot be negative")
	}
	stage := &models.TenderStage{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Name:           strings.TrimSpace(req.Name),
		Position:       req.Position,
		Kind:           req.Kind,
		StaleAfterDays: req.StaleAfterDays,
	}
	if stage.Kind == "" {
		stage.Kind = models.StageKindOpen
	}
	if err := s.stageRepo.Create(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *tenderService) UpdateStage(ctx context.Context, tenantID, id uuid.UUID, req *StageRequest) (*models.TenderStage, error) {
	if req.StaleAfterDays < 0 {
		return nil, invalid("stale_after_days cannot be negative")
	}
	stage, err := s.stageRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	stage.Name = strings.TrimSpace(req.Name)
	stage.Position = req.Position
	if req.Kind != "" {
		stage.Kind = req.Kind
	}
	stage.StaleAfterDays = req.StaleAfterDays
	if err := s.stageRepo.Update(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *tenderService) DeleteStage(ctx context.Context, tenantID, id uuid.UUID) error {
	n, err := s.stageRepo.CountTenders(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrStageInUse
	}
	return s.stageRepo.Delete(ctx, tenantID, id)
}

// stageIndex loads the tenant's stages keyed by id.
func (s *tenderService) stageIndex(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]*models.TenderStage, []*models.TenderStage, error) {
	stages, err := s.stageRepo.List(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	index := make(map[uuid.UUID]*models.TenderStage, len(stages))
	for _, st := range stages {
		index[st.ID] = st
	}
	return index, stages, nil
}

func (s *tenderService) view(t *models.Tender, stages map[uuid.UUID]*models.TenderStage, now time.Time) *TenderView {
	stage := stages[t.StageID]
	v := &TenderView{Tender: t, Timing: ComputeStageTiming(t.StageChangedAt, now, stage, s.staleDefault)}
	if stage != nil {
		v.StageName = stage.Name
		v.StageKind = stage.Kind
	}
	return v
}

func (s *tenderService) validateRequest(ctx context.Context, tenantID uuid.UUID, req *TenderRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalid("title is required")
	}
	if req.InitialPrice < 0 || req.CostEstimate < 0 ||
		(req.BidPrice != nil && *req.BidPrice < 0) || (req.ContractPrice != nil && *req.ContractPrice < 0) {
		return invalid("prices cannot be negative")
	}
	if req.ResponsibleID != nil {
		if _, err := s.employeeRepo.GetByID(ctx, tenantID, *req.ResponsibleID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return invalid("responsible_id does not reference an employee")
			}
			return err
		}
	}
	return nil
}

func (s *tenderService) Create(ctx context.Context, tenantID uuid.UUID, req *TenderRequest) (*TenderView, error) {
	if err := s.validateRequest(ctx, tenantID, req); err != nil {
		return nil, err
	}
	index, stages, err := s.stageIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var stageID uuid.UUID
	switch {
	case req.StageID != nil:
		if _, ok := index[*req.StageID]; !ok {
			return nil, invalid("stage_id does not reference a stage")
		}
		stageID = *req.StageID
	case len(stages) > 0:
		stageID = stages[0].ID
	default:
		return nil, invalid("tenant has no tender stages")
	}

	now := s.now()
	tender := &models.Tender{
		ID:             uuid.New(),
		TenantID:       tenantID,
		StageID:        stageID,
		StageChangedAt: now,
	}
	applyTenderRequest(tender, req)

	if err := s.tenderRepo.Create(ctx, tender); err != nil {
		return nil, err
	}
	return s.view(tender, index, now), nil
}

func applyTenderRequest(t *models.Tender, req *TenderRequest) {
	t.Title = strings.TrimSpace(req.Title)
	t.Customer = req.Customer
	t.RegistryNumber = req.RegistryNumber
	t.Platform = req.Platform
	t.InitialPrice = req.InitialPrice
	t.BidPrice = req.BidPrice
	t.ContractPrice = req.ContractPrice
	t.CostEstimate = req.CostEstimate
	t.Deadline = req.Deadline
	t.ResponsibleID = req.ResponsibleID
	t.Notes = req.Notes
}

func (s *tenderService) Get(ctx context.Context, tenantID, id uuid.UUID) (*TenderView, error) {
	tender, err := s.tenderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	index, _, err := s.stageIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.view(tender, index, s.now()), nil
}

func (s *tenderService) Update(ctx context.Context, tenantID, id uuid.UUID, req *TenderRequest) (*TenderView, error) {
	if err := s.validateRequest(ctx, tenantID, req); err != nil {
		return nil, err
	}
	tender, err := s.tenderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyTenderRequest(tender, req)
	if err := s.tenderRepo.Update(ctx, tender); err != nil {
		return nil, err
	}
	index, _, err := s.stageIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.view(tender, index, s.now()), nil
}

func (s *tenderService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tenderRepo.Delete(ctx, tenantID, id)
}

func (s *tenderService) List(ctx context.Context, tenantID uuid.UUID, filter models.TenderFilter) ([]*TenderView, error) {
	filter.Query = common.SanitizeSearchQuery(filter.Query)
	tenders, err := s.tenderRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	index, _, err := s.stageIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]*TenderView, 0, len(tenders))
	for _, t := range tenders {
		views = append(views, s.view(t, index, now))
	}
	return views, nil
}

func (s *tenderService) ChangeStage(ctx context.Context, tenantID, tenderID, stageID uuid.UUID, by *uuid.UUID) (*TenderView, error) {
	tender, err := s.tenderRepo.GetByID(ctx, tenantID, tenderID)
	if err != nil {
		return nil, err
	}
	if tender.StageID == stageID {
		return nil, ErrSameStage
	}
	index, _, err := s.stageIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, ok := index[stageID]; !ok {
		return nil, invalid("stage_id does not reference a stage")
	}

	now := s.now()
	spent := now.Sub(tender.StageChangedAt)
	if spent < 0 {
		spent = 0
	}
	from := tender.StageID
	change := &models.TenderStageChange{
		ID:             uuid.New(),
		TenantID:       tenantID,
		TenderID:       tenderID,
		FromStageID:    &from,
		ToStageID:      stageID,
		ChangedBy:      by,
		ChangedAt:      now,
		SecondsInStage: int64(spent / time.Second),
	}
	if err := s.tenderRepo.ChangeStage(ctx, change); err != nil {
		return nil, err
	}

	tender.StageID = stageID
	tender.StageChangedAt = now
	return s.view(tender, index, now), nil
}

func (s *tenderService) ListStale(ctx context.Context, tenantID uuid.UUID) ([]*TenderView, error) {
	tenders, err := s.tenderRepo.ListOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	index, _, err := s.stageIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stale := []*TenderView{}
	for _, t := range tenders {
		if v := s.view(t, index, now); v.Timing.Stale {
			stale = append(stale, v)
		}
	}
	return stale, nil
}

func (s *tenderService) History(ctx context.Context, tenantID, tenderID uuid.UUID) ([]*models.TenderStageChange, error) {
	if _, err := s.tenderRepo.GetByID(ctx, tenantID, tenderID); err != nil {
		return nil, err
	}
	return s.tenderRepo.History(ctx, tenantID, tenderID)
}
