package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

type BankAccount struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name           string    `json:"name" db:"name"`
	BankName       string    `json:"bank_name" db:"bank_name"`
	AccountNumber  string    `json:"account_number" db:"account_number"`
	BIC            string    `json:"bic" db:"bic"`
	Currency       string    `json:"currency" db:"currency"`
	OpeningBalance int64     `json:"opening_balance" db:"opening_balance"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// AccountBalance is an account with its current balance in kopecks.
type AccountBalance struct {
	BankAccount
	Inflow  int64 `json:"inflow"`
	Outflow int64 `json:"outflow"`
	Balance int64 `json:"balance"`
}

type BankTransaction struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TenantID      uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	AccountID     uuid.UUID  `json:"account_id" db:"account_id"`
	Direction     string     `json:"direction" db:"direction"`
	Amount        int64      `json:"amount" db:"amount"`
	Counterparty  string     `json:"counterparty" db:"counterparty"`
	Purpose       string     `json:"purpose" db:"purpose"`
	Category      string     `json:"category" db:"category"`
	OperationDate time.Time  `json:"operation_date" db:"operation_date"`
	TenderID      *uuid.UUID `json:"tender_id" db:"tender_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type BankTransactionFilter struct {
	AccountID *uuid.UUID
	Direction string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
