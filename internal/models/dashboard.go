package models

import (
	"time"

	"github.com/google/uuid"
)

type FinancialOverview struct {
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	Inflow           int64     `json:"inflow"`
	Outflow          int64     `json:"outflow"`
	Profit           int64     `json:"profit"`
	MarginPercent    float64   `json:"margin_percent"`
	Receivable       int64     `json:"receivable"`
	Payable          int64     `json:"payable"`
	OpenTenders      int       `json:"open_tenders"`
	PipelineValue    int64     `json:"pipeline_value"`
	WonContractValue int64     `json:"won_contract_value"`
}

// MonthFlow is a raw monthly aggregate as returned by the database.
type MonthFlow struct {
	Month   time.Time
	Inflow  int64
	Outflow int64
}

type CashFlowPoint struct {
	Month   string `json:"month"`
	Inflow  int64  `json:"inflow"`
	Outflow int64  `json:"outflow"`
	Net     int64  `json:"net"`
	Balance int64  `json:"balance"`
}

type CashFlow struct {
	OpeningBalance int64           `json:"opening_balance"`
	Points         []CashFlowPoint `json:"points"`
}

type AgingBucket struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

type DebtAging struct {
	AsOf       time.Time     `json:"as_of"`
	Receivable []AgingBucket `json:"receivable"`
	Payable    []AgingBucket `json:"payable"`
}

type TenderProfit struct {
	TenderID       uuid.UUID `json:"tender_id"`
	Title          string    `json:"title"`
	Customer       string    `json:"customer"`
	ContractPrice  int64     `json:"contract_price"`
	CostEstimate   int64     `json:"cost_estimate"`
	LinkedExpenses int64     `json:"linked_expenses"`
	Profit         int64     `json:"profit"`
	MarginPercent  float64   `json:"margin_percent"`
}
