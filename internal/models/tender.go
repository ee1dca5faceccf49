package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage kinds. Won and lost stages are terminal for the pipeline.
const (
	StageKindOpen = "open"
	StageKindWon  = "won"
	StageKindLost = "lost"
)

type TenderStage struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name           string    `json:"name" db:"name"`
	Position       int       `json:"position" db:"position"`
	Kind           string    `json:"kind" db:"kind"`
	StaleAfterDays int       `json:"stale_after_days" db:"stale_after_days"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsFinal reports whether tenders in this stage have left the pipeline.
func (s *TenderStage) IsFinal() bool {
	return s.Kind == StageKindWon || s.Kind == StageKindLost
}

// Tender prices are stored in kopecks.
type Tender struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Title          string     `json:"title" db:"title"`
	Customer       string     `json:"customer" db:"customer"`
	RegistryNumber string     `json:"registry_number" db:"registry_number"`
	Platform       string     `json:"platform" db:"platform"`
	InitialPrice   int64      `json:"initial_price" db:"initial_price"`
	BidPrice       *int64     `json:"bid_price" db:"bid_price"`
	ContractPrice  *int64     `json:"contract_price" db:"contract_price"`
	CostEstimate   int64      `json:"cost_estimate" db:"cost_estimate"`
	StageID        uuid.UUID  `json:"stage_id" db:"stage_id"`
	StageChangedAt time.Time  `json:"stage_changed_at" db:"stage_changed_at"`
	Deadline       *time.Time `json:"deadline" db:"deadline"`
	ResponsibleID  *uuid.UUID `json:"responsible_id" db:"responsible_id"`
	Notes          string     `json:"notes" db:"notes"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// PipelineValue is the amount the tender is expected to bring: the bid when
// one was placed, otherwise the initial (maximum) price.
func (t *Tender) PipelineValue() int64 {
	if t.BidPrice != nil {
		return *t.BidPrice
	}
	return t.InitialPrice
}

type TenderStageChange struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	TenderID       uuid.UUID  `json:"tender_id" db:"tender_id"`
	FromStageID    *uuid.UUID `json:"from_stage_id" db:"from_stage_id"`
	ToStageID      uuid.UUID  `json:"to_stage_id" db:"to_stage_id"`
	ChangedBy      *uuid.UUID `json:"changed_by" db:"changed_by"`
	ChangedAt      time.Time  `json:"changed_at" db:"changed_at"`
	SecondsInStage int64      `json:"seconds_in_stage" db:"seconds_in_stage"`
}

type TenderFilter struct {
	StageID       *uuid.UUID
	ResponsibleID *uuid.UUID
	Query         string
	Limit         int
	Offset        int
}
