package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DebtReceivable = "receivable"
	DebtPayable    = "payable"

	DebtStatusUnpaid        = "unpaid"
	DebtStatusPartiallyPaid = "partially_paid"
	DebtStatusPaid          = "paid"
)

// Debt amounts are in kopecks. 0 <= AmountPaid <= Amount always holds.
type Debt struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Direction    string     `json:"direction" db:"direction"`
	Counterparty string     `json:"counterparty" db:"counterparty"`
	Description  string     `json:"description" db:"description"`
	Amount       int64      `json:"amount" db:"amount"`
	AmountPaid   int64      `json:"amount_paid" db:"amount_paid"`
	Currency     string     `json:"currency" db:"currency"`
	IssuedOn     time.Time  `json:"issued_on" db:"issued_on"`
	DueOn        *time.Time `json:"due_on" db:"due_on"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Outstanding is the unpaid remainder.
func (d *Debt) Outstanding() int64 {
	return d.Amount - d.AmountPaid
}

// DebtStatusFor derives the status from the paid amount.
func DebtStatusFor(amount, paid int64) string {
	switch {
	case paid <= 0:
		return DebtStatusUnpaid
	case paid >= amount:
		return DebtStatusPaid
	default:
		return DebtStatusPartiallyPaid
	}
}

type DebtPayment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	DebtID    uuid.UUID `json:"debt_id" db:"debt_id"`
	Amount    int64     `json:"amount" db:"amount"`
	PaidOn    time.Time `json:"paid_on" db:"paid_on"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type DebtFilter struct {
	Direction string
	Status    string
	Limit     int
	Offset    int
}
