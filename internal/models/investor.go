package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvestorIndividual = "individual"
	InvestorCompany    = "company"

	InvestmentActive = "active"
	InvestmentClosed = "closed"

	// DefaultPayoutFormula pays the annual rate in equal monthly parts.
	DefaultPayoutFormula = "amount * rate / 100 / 12"
)

type Investor struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Kind      string    `json:"kind" db:"kind"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Investment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TenantID      uuid.UUID `json:"tenant_id" db:"tenant_id"`
	InvestorID    uuid.UUID `json:"investor_id" db:"investor_id"`
	Amount        int64     `json:"amount" db:"amount"`
	RatePercent   float64   `json:"rate_percent" db:"rate_percent"`
	StartDate     time.Time `json:"start_date" db:"start_date"`
	TermMonths    int       `json:"term_months" db:"term_months"`
	PayoutFormula string    `json:"payout_formula" db:"payout_formula"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type PayoutRow struct {
	Month  int       `json:"month"`
	Date   time.Time `json:"date"`
	Amount int64     `json:"amount"`
}

type InvestorSummary struct {
	InvestorID     uuid.UUID `json:"investor_id"`
	Investments    int       `json:"investments"`
	TotalInvested  int64     `json:"total_invested"`
	ActiveInvested int64     `json:"active_invested"`
	MonthlyPayout  int64     `json:"monthly_payout"`
}
