package services

import (
	"context"
	"testing"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestBuildPayoutSchedule_DefaultFormula(t *testing.T) {
	inv := &models.Investment{
		Amount:      1_200_000_00,
		RatePercent: 12,
		StartDate:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		TermMonths:  3,
	}

	rows, err := BuildPayoutSchedule(inv)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, r := range rows {
		assert.Equal(t, i+1, r.Month)
		assert.Equal(t, int64(12_000_00), r.Amount)
	}
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), rows[2].Date)
}

func TestBuildPayoutSchedule_CustomFormula(t *testing.T) {
	inv := &models.Investment{
		Amount:        300_000_00,
		RatePercent:   10,
		StartDate:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		TermMonths:    3,
		PayoutFormula: "month == term ? amount + amount * rate / 100 / 12 : amount * rate / 100 / 12",
	}

	rows, err := BuildPayoutSchedule(inv)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(2_500_00), rows[0].Amount)
	assert.Equal(t, int64(2_500_00), rows[1].Amount)
	assert.Equal(t, int64(302_500_00), rows[2].Amount)
}

func TestBuildPayoutSchedule_RoundsToKopecks(t *testing.T) {
	inv := &models.Investment{
		Amount:      100_00,
		RatePercent: 10,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TermMonths:  1,
	}
	rows, err := BuildPayoutSchedule(inv)
	require.NoError(t, err)
	// 100 * 10 / 100 / 12 = 0.8333...
	assert.Equal(t, int64(83), rows[0].Amount)
}

func TestBuildPayoutSchedule_BadFormula(t *testing.T) {
	inv := &models.Investment{Amount: 100, TermMonths: 1, PayoutFormula: "amount * bonus"}
	_, err := BuildPayoutSchedule(inv)
	assert.ErrorIs(t, err, common.ErrValidation)

	inv.PayoutFormula = "amount * ("
	_, err = BuildPayoutSchedule(inv)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestBuildPayoutSchedule_RejectsNonFiniteAndNonNumeric(t *testing.T) {
	tests := []struct {
		name    string
		formula string
	}{
		{"division by zero", "amount / (month - month)"},
		{"zero over zero", "(month - month) / (term - term)"},
		{"zero only in a later month", "amount / (month - 2)"},
		{"boolean result", "month > 1"},
		{"string result", "'monthly'"},
		{"overflows kopecks", "amount * 10 ** 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.Investment{Amount: 100_00, RatePercent: 12, TermMonths: 3, PayoutFormula: tt.formula}
			var err error
			require.NotPanics(t, func() { _, err = BuildPayoutSchedule(inv) })
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

type InvestorServiceTestSuite struct {
	suite.Suite
	mockRepo *MockInvestorRepository
	service  InvestorService
	tenantID uuid.UUID
}

func (suite *InvestorServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockInvestorRepository{}
	suite.service = NewInvestorService(suite.mockRepo)
	suite.tenantID = uuid.New()
}

func (suite *InvestorServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestInvestorServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvestorServiceTestSuite))
}

func (suite *InvestorServiceTestSuite) TestCreateInvestment_DefaultsFormula() {
	ctx := context.Background()
	investorID := uuid.New()
	suite.mockRepo.On("GetByID", ctx, suite.tenantID, investorID).Return(&models.Investor{ID: investorID}, nil)
	suite.mockRepo.On("CreateInvestment", ctx, mock.AnythingOfType("*models.Investment")).Return(nil)

	inv, err := suite.service.CreateInvestment(ctx, suite.tenantID, &InvestmentRequest{
		InvestorID:  investorID,
		Amount:      500_000_00,
		RatePercent: 18,
		StartDate:   time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC),
		TermMonths:  12,
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.DefaultPayoutFormula, inv.PayoutFormula)
	assert.Equal(suite.T(), models.InvestmentActive, inv.Status)
	assert.Equal(suite.T(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), inv.StartDate)
}

func (suite *InvestorServiceTestSuite) TestCreateInvestment_RejectsUnknownVariable() {
	_, err := suite.service.CreateInvestment(context.Background(), suite.tenantID, &InvestmentRequest{
		InvestorID:    uuid.New(),
		Amount:        100,
		StartDate:     time.Now(),
		TermMonths:    1,
		PayoutFormula: "amount * inflation",
	})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *InvestorServiceTestSuite) TestCreateInvestment_RejectsFormulaWithoutFiniteAmount() {
	for _, formula := range []string{"amount / (month - month)", "month > 1"} {
		var err error
		require.NotPanics(suite.T(), func() {
			_, err = suite.service.CreateInvestment(context.Background(), suite.tenantID, &InvestmentRequest{
				InvestorID:    uuid.New(),
				Amount:        100_000_00,
				RatePercent:   12,
				StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				TermMonths:    12,
				PayoutFormula: formula,
			})
		}, formula)
		assert.ErrorIs(suite.T(), err, common.ErrValidation, formula)
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateInvestment", mock.Anything, mock.Anything)
}

func (suite *InvestorServiceTestSuite) TestSummary() {
	ctx := context.Background()
	investorID := uuid.New()
	suite.mockRepo.On("GetByID", ctx, suite.tenantID, investorID).Return(&models.Investor{ID: investorID}, nil)
	suite.mockRepo.On("ListInvestments", ctx, suite.tenantID, &investorID).Return([]*models.Investment{
		{Amount: 1_200_000_00, RatePercent: 12, TermMonths: 12, Status: models.InvestmentActive},
		{Amount: 600_000_00, RatePercent: 24, TermMonths: 6, Status: models.InvestmentActive},
		{Amount: 100_000_00, RatePercent: 50, TermMonths: 6, Status: models.InvestmentClosed},
	}, nil)

	summary, err := suite.service.Summary(ctx, suite.tenantID, investorID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, summary.Investments)
	assert.Equal(suite.T(), int64(1_900_000_00), summary.TotalInvested)
	assert.Equal(suite.T(), int64(1_800_000_00), summary.ActiveInvested)
	assert.Equal(suite.T(), int64(24_000_00), summary.MonthlyPayout)
}

func (suite *InvestorServiceTestSuite) TestPayoutSchedule_NotFound() {
	ctx := context.Background()
	id := uuid.New()
	suite.mockRepo.On("GetInvestment", ctx, suite.tenantID, id).Return(nil, common.ErrNotFound)

	_, err := suite.service.PayoutSchedule(ctx, suite.tenantID, id)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
