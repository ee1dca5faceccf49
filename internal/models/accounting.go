package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocTypeInvoice  = "invoice"
	DocTypeAct      = "act"
	DocTypeWaybill  = "waybill"
	DocTypeContract = "contract"
	DocTypeOther    = "other"

	DocStatusDraft     = "draft"
	DocStatusIssued    = "issued"
	DocStatusSigned    = "signed"
	DocStatusCancelled = "cancelled"
)

type AccountingDocument struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	DocType      string     `json:"doc_type" db:"doc_type"`
	Number       string     `json:"number" db:"number"`
	Counterparty string     `json:"counterparty" db:"counterparty"`
	Amount       int64      `json:"amount" db:"amount"`
	DocDate      time.Time  `json:"doc_date" db:"doc_date"`
	Status       string     `json:"status" db:"status"`
	TenderID     *uuid.UUID `json:"tender_id" db:"tender_id"`
	FileKey      *string    `json:"-" db:"file_key"`
	FileName     *string    `json:"file_name" db:"file_name"`
	ContentType  *string    `json:"content_type" db:"content_type"`
	FileSize     *int64     `json:"file_size" db:"file_size"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type DocumentFilter struct {
	DocType  string
	Status   string
	TenderID *uuid.UUID
	Limit    int
	Offset   int
}

// KudirEntry is one line of the income and expense ledger. Exactly one of
// Income or Expense is positive.
type KudirEntry struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	TenantID          uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	EntryDate         time.Time  `json:"entry_date" db:"entry_date"`
	DocumentRef       string     `json:"document_ref" db:"document_ref"`
	Description       string     `json:"description" db:"description"`
	Income            int64      `json:"income" db:"income"`
	Expense           int64      `json:"expense" db:"expense"`
	Category          string     `json:"category" db:"category"`
	BankTransactionID *uuid.UUID `json:"bank_transaction_id" db:"bank_transaction_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

type KudirFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type KudirQuarter struct {
	Quarter int   `json:"quarter"`
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
}

type CategoryTotal struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

type KudirSummary struct {
	Year              int             `json:"year"`
	Quarters          []KudirQuarter  `json:"quarters"`
	TotalIncome       int64           `json:"total_income"`
	TotalExpense      int64           `json:"total_expense"`
	ExpenseByCategory []CategoryTotal `json:"expense_by_category"`
}
