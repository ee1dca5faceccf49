package analytics

import (
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
)

// Aging bucket labels, in display order.
const (
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	Bucket90Plus  = "90+"
)

var bucketLabels = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, Bucket90Plus}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// BuildCashFlow lays the monthly aggregates onto every month of [from, to],
// filling gaps with zeroes and carrying a running balance from opening.
func BuildCashFlow(opening int64, flows []models.MonthFlow, from, to time.Time) models.CashFlow {
	byMonth := make(map[string]models.MonthFlow, len(flows))
	for _, f := range flows {
		byMonth[f.Month.Format("2006-01")] = f
	}

	cf := models.CashFlow{OpeningBalance: opening, Points: []models.CashFlowPoint{}}
	balance := opening
	for m := monthStart(from); !m.After(monthStart(to)); m = m.AddDate(0, 1, 0) {
		label := m.Format("2006-01")
		f := byMonth[label]
		net := f.Inflow - f.Outflow
		balance += net
		cf.Points = append(cf.Points, models.CashFlowPoint{
			Month:   label,
			Inflow:  f.Inflow,
			Outflow: f.Outflow,
			Net:     net,
			Balance: balance,
		})
	}
	return cf
}

// AgingBucketFor returns the bucket of a debt due on dueOn as of asOf.
func AgingBucketFor(dueOn *time.Time, asOf time.Time) string {
	if dueOn == nil {
		return BucketCurrent
	}
	due := time.Date(dueOn.Year(), dueOn.Month(), dueOn.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	overdue := int(today.Sub(due).Hours() / 24)
	switch {
	case overdue <= 0:
		return BucketCurrent
	case overdue <= 30:
		return Bucket1To30
	case overdue <= 60:
		return Bucket31To60
	case overdue <= 90:
		return Bucket61To90
	default:
		return Bucket90Plus
	}
}

func emptyBuckets() []models.AgingBucket {
	out := make([]models.AgingBucket, len(bucketLabels))
	for i, l := range bucketLabels {
		out[i].Label = l
	}
	return out
}

func bucketIndex(label string) int {
	for i, l := range bucketLabels {
		if l == label {
			return i
		}
	}
	return 0
}

// AgeDebts groups the outstanding part of each debt by direction and bucket.
func AgeDebts(debts []*models.Debt, asOf time.Time) models.DebtAging {
	aging := models.DebtAging{AsOf: asOf, Receivable: emptyBuckets(), Payable: emptyBuckets()}
	for _, d := range debts {
		outstanding := d.Outstanding()
		if outstanding <= 0 {
			continue
		}
		buckets := aging.Receivable
		if d.Direction == models.DebtPayable {
			buckets = aging.Payable
		}
		i := bucketIndex(AgingBucketFor(d.DueOn, asOf))
		buckets[i].Amount += outstanding
		buckets[i].Count++
	}
	return aging
}

// FillProfit computes profit and margin of a won tender. Linked bank
// expenses replace the cost estimate once any have been recorded.
func FillProfit(p *models.TenderProfit) {
	cost := p.CostEstimate
	if p.LinkedExpenses > 0 {
		cost = p.LinkedExpenses
	}
	p.Profit = p.ContractPrice - cost
	p.MarginPercent = common.Percent(p.Profit, p.ContractPrice)
}

// FillOverview derives profit and margin from the flow totals.
func FillOverview(o *models.FinancialOverview) {
	o.Profit = o.Inflow - o.Outflow
	o.MarginPercent = common.Percent(o.Profit, o.Inflow)
}
