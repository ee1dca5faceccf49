package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvestorService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *InvestorRequest) (*models.Investor, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Investor, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *InvestorRequest) (*models.Investor, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Investor, error)

	CreateInvestment(ctx context.Context, tenantID uuid.UUID, req *InvestmentRequest) (*models.Investment, error)
	GetInvestment(ctx context.Context, tenantID, id uuid.UUID) (*models.Investment, error)
	UpdateInvestment(ctx context.Context, tenantID, id uuid.UUID, req *InvestmentRequest) (*models.Investment, error)
	DeleteInvestment(ctx context.Context, tenantID, id uuid.UUID) error
	ListInvestments(ctx context.Context, tenantID uuid.UUID, investorID *uuid.UUID) ([]*models.Investment, error)

	PayoutSchedule(ctx context.Context, tenantID, investmentID uuid.UUID) ([]models.PayoutRow, error)
	Summary(ctx context.Context, tenantID, investorID uuid.UUID) (*models.InvestorSummary, error)
}

type InvestorRequest struct {
	Name  string `json:"name" validate:"required"`
	Kind  string `json:"kind" validate:"omitempty,oneof=individual company"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

type InvestmentRequest struct {
	InvestorID    uuid.UUID `json:"investor_id" validate:"required"`
	Amount        int64     `json:"amount" validate:"gt=0"`
	RatePercent   float64   `json:"rate_percent" validate:"gte=0,lte=1000"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	TermMonths    int       `json:"term_months" validate:"gt=0,lte=600"`
	PayoutFormula string    `json:"payout_formula"`
	Status        string    `json:"status" validate:"omitempty,oneof=active closed"`
}

type investorService struct {
	investorRepo repositories.InvestorRepository
}

func NewInvestorService(investorRepo repositories.InvestorRepository) InvestorService {
	return &investorService{investorRepo: investorRepo}
}

func (s *investorService) Create(ctx context.Context, tenantID uuid.UUID, req *InvestorRequest) (*models.Investor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	inv := &models.Investor{ID: uuid.New(), TenantID: tenantID, Kind: models.InvestorIndividual}
	applyInvestor(inv, req)
	if err := s.investorRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func applyInvestor(inv *models.Investor, req *InvestorRequest) {
	inv.Name = strings.TrimSpace(req.Name)
	if req.Kind != "" {
		inv.Kind = req.Kind
	}
	inv.Email = req.Email
	inv.Phone = req.Phone
	inv.Notes = req.Notes
}

func (s *investorService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Investor, error) {
	return s.investorRepo.GetByID(ctx, tenantID, id)
}

func (s *investorService) Update(ctx context.Context, tenantID, id uuid.UUID, req *InvestorRequest) (*models.Investor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	inv, err := s.investorRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyInvestor(inv, req)
	if err := s.investorRepo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *investorService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.investorRepo.Delete(ctx, tenantID, id)
}

func (s *investorService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Investor, error) {
	return s.investorRepo.List(ctx, tenantID, limit, offset)
}

func (s *investorService) checkInvestment(ctx context.Context, tenantID uuid.UUID, req *InvestmentRequest) error {
	if req.Amount <= 0 {
		return invalid("amount must be positive")
	}
	if req.RatePercent < 0 {
		return invalid("rate_percent cannot be negative")
	}
	if req.TermMonths <= 0 {
		return invalid("term_months must be positive")
	}
	if req.StartDate.IsZero() {
		return invalid("start_date is required")
	}
	// Run the whole schedule once so formulas that only parse, such as a
	// comparison or a division by zero in some month, never get stored.
	draft := &models.Investment{}
	applyInvestment(draft, req)
	if _, err := BuildPayoutSchedule(draft); err != nil {
		return err
	}
	if _, err := s.investorRepo.GetByID(ctx, tenantID, req.InvestorID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return invalid("investor_id does not reference an investor")
		}
		return err
	}
	return nil
}

func applyInvestment(i *models.Investment, req *InvestmentRequest) {
	i.InvestorID = req.InvestorID
	i.Amount = req.Amount
	i.RatePercent = req.RatePercent
	i.StartDate = dateOnly(req.StartDate)
	i.TermMonths = req.TermMonths
	i.PayoutFormula = strings.TrimSpace(req.PayoutFormula)
	if i.PayoutFormula == "" {
		i.PayoutFormula = models.DefaultPayoutFormula
	}
	if req.Status != "" {
		i.Status = req.Status
	}
}

func (s *investorService) CreateInvestment(ctx context.Context, tenantID uuid.UUID, req *InvestmentRequest) (*models.Investment, error) {
	if err := s.checkInvestment(ctx, tenantID, req); err != nil {
		return nil, err
	}
	i := &models.Investment{ID: uuid.New(), TenantID: tenantID, Status: models.InvestmentActive}
	applyInvestment(i, req)
	if err := s.investorRepo.CreateInvestment(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *investorService) GetInvestment(ctx context.Context, tenantID, id uuid.UUID) (*models.Investment, error) {
	return s.investorRepo.GetInvestment(ctx, tenantID, id)
}

func (s *investorService) UpdateInvestment(ctx context.Context, tenantID, id uuid.UUID, req *InvestmentRequest) (*models.Investment, error) {
	if err := s.checkInvestment(ctx, tenantID, req); err != nil {
		return nil, err
	}
	i, err := s.investorRepo.GetInvestment(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyInvestment(i, req)
	if err := s.investorRepo.UpdateInvestment(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *investorService) DeleteInvestment(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.investorRepo.DeleteInvestment(ctx, tenantID, id)
}

func (s *investorService) ListInvestments(ctx context.Context, tenantID uuid.UUID, investorID *uuid.UUID) ([]*models.Investment, error) {
	return s.investorRepo.ListInvestments(ctx, tenantID, investorID)
}

func (s *investorService) PayoutSchedule(ctx context.Context, tenantID, investmentID uuid.UUID) ([]models.PayoutRow, error) {
	i, err := s.investorRepo.GetInvestment(ctx, tenantID, investmentID)
	if err != nil {
		return nil, err
	}
	return BuildPayoutSchedule(i)
}

func (s *investorService) Summary(ctx context.Context, tenantID, investorID uuid.UUID) (*models.InvestorSummary, error) {
	if _, err := s.investorRepo.GetByID(ctx, tenantID, investorID); err != nil {
		return nil, err
	}
	investments, err := s.investorRepo.ListInvestments(ctx, tenantID, &investorID)
	if err != nil {
		return nil, err
	}
	summary := &models.InvestorSummary{InvestorID: investorID, Investments: len(investments)}
	for _, i := range investments {
		summary.TotalInvested += i.Amount
		if i.Status != models.InvestmentActive {
			continue
		}
		summary.ActiveInvested += i.Amount
		monthly, err := evaluatePayout(i, 1)
		if err != nil {
			return nil, err
		}
		summary.MonthlyPayout += monthly
	}
	return summary, nil
}

func parsePayoutFormula(formula string) (*govaluate.EvaluableExpression, error) {
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return nil, invalid("payout formula %q: %v", formula, err)
	}
	for _, v := range expr.Vars() {
		switch v {
		case "amount", "rate", "term", "month":
		default:
			return nil, invalid("payout formula uses unknown variable %q", v)
		}
	}
	return expr, nil
}

// maxPayoutUnits keeps a payout in rubles representable as int64 kopecks.
const maxPayoutUnits = math.MaxInt64 / 100

func evaluateWith(expr *govaluate.EvaluableExpression, i *models.Investment, month int) (int64, error) {
	params := map[string]interface{}{
		"amount": common.KopecksToUnits(i.Amount).InexactFloat64(),
		"rate":   i.RatePercent,
		"term":   float64(i.TermMonths),
		"month":  float64(month),
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return 0, invalid("payout formula for month %d: %v", month, err)
	}
	value, ok := result.(float64)
	if !ok {
		return 0, invalid("payout formula result %v is not a number", result)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, invalid("payout formula for month %d does not give a finite amount", month)
	}
	if math.Abs(value) > maxPayoutUnits {
		return 0, invalid("payout formula for month %d gives an amount out of range", month)
	}
	return common.UnitsToKopecks(decimal.NewFromFloat(value)), nil
}

func evaluatePayout(i *models.Investment, month int) (int64, error) {
	expr, err := parsePayoutFormula(payoutFormula(i))
	if err != nil {
		return 0, err
	}
	return evaluateWith(expr, i, month)
}

func payoutFormula(i *models.Investment) string {
	if strings.TrimSpace(i.PayoutFormula) == "" {
		return models.DefaultPayoutFormula
	}
	return i.PayoutFormula
}

// BuildPayoutSchedule evaluates the investment's formula for months 1..term.
// Payouts fall on the same day of month as the start date, one month apart.
func BuildPayoutSchedule(i *models.Investment) ([]models.PayoutRow, error) {
	if i.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: investment has no term", common.ErrValidation)
	}
	expr, err := parsePayoutFormula(payoutFormula(i))
	if err != nil {
		return nil, err
	}
	rows := make([]models.PayoutRow, 0, i.TermMonths)
	for month := 1; month <= i.TermMonths; month++ {
		amount, err := evaluateWith(expr, i, month)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.PayoutRow{
			Month:  month,
			Date:   addMonthsClamped(i.StartDate, month),
			Amount: amount,
		})
	}
	return rows, nil
}

// addMonthsClamped moves t by n months keeping the day of month, clamped to
// the last day when the target month is shorter.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
