package services

import (
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	BandUnder   = "under"
	BandOptimal = "optimal"
	BandOver    = "over"
)

type Utilization struct {
	EmployeeID     uuid.UUID `json:"employee_id"`
	FullName       string    `json:"full_name"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	WorkingDays    int       `json:"working_days"`
	CapacityHours  float64   `json:"capacity_hours"`
	AllocatedHours float64   `json:"allocated_hours"`
	Percent        float64   `json:"percent"`
	Band           string    `json:"band"`
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WorkingDays counts Monday..Friday dates in [from, to].
func WorkingDays(from, to time.Time) int {
	from, to = dateOnly(from), dateOnly(to)
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// ProratedHours is the share of an allocation's hours that falls into the
// window, split evenly across the allocation's working days.
func ProratedHours(a *models.WorkloadAllocation, from, to time.Time) decimal.Decimal {
	total := WorkingDays(a.StartDate, a.EndDate)
	if total == 0 {
		return decimal.Zero
	}
	start, end := dateOnly(a.StartDate), dateOnly(a.EndDate)
	if f := dateOnly(from); f.After(start) {
		start = f
	}
	if t := dateOnly(to); t.Before(end) {
		end = t
	}
	if start.After(end) {
		return decimal.Zero
	}
	overlap := WorkingDays(start, end)
	return decimal.NewFromInt(int64(a.Hours)).Mul(decimal.NewFromInt(int64(overlap))).Div(decimal.NewFromInt(int64(total)))
}

// UtilizationBand classifies a utilization percentage.
func UtilizationBand(percent float64) string {
	switch {
	case percent > 100:
		return BandOver
	case percent >= 70:
		return BandOptimal
	default:
		return BandUnder
	}
}

// ComputeUtilization sums prorated allocations against the employee's
// capacity over the window's working days.
func ComputeUtilization(e *models.Employee, allocations []*models.WorkloadAllocation, from, to time.Time) Utilization {
	days := WorkingDays(from, to)
	capacity := decimal.NewFromInt(int64(e.WeeklyCapacityHours)).Div(decimal.NewFromInt(5)).Mul(decimal.NewFromInt(int64(days)))

	allocated := decimal.Zero
	for _, a := range allocations {
		if a.EmployeeID != e.ID {
			continue
		}
		allocated = allocated.Add(ProratedHours(a, from, to))
	}

	percent := decimal.Zero
	if capacity.IsPositive() {
		percent = allocated.Div(capacity).Mul(decimal.NewFromInt(100)).Round(1)
	}
	p := percent.InexactFloat64()

	return Utilization{
		EmployeeID:     e.ID,
		FullName:       e.FullName,
		From:           dateOnly(from),
		To:             dateOnly(to),
		WorkingDays:    days,
		CapacityHours:  capacity.Round(1).InexactFloat64(),
		AllocatedHours: allocated.Round(1).InexactFloat64(),
		Percent:        p,
		Band:           UtilizationBand(p),
	}
}
