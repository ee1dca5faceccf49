package repositories

import (
	"context"
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
)

// DashboardRepository runs the grouped aggregate queries behind the
// dashboards. All ranges are inclusive dates.
type DashboardRepository interface {
	FlowTotals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (inflow, outflow int64, err error)
	OutstandingTotals(ctx context.Context, tenantID uuid.UUID) (receivable, payable int64, err error)
	OpenPipeline(ctx context.Context, tenantID uuid.UUID) (count int, value int64, err error)
	WonContractValue(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)
	MonthlyFlows(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.MonthFlow, error)
	BalanceBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error)
	WonTenders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.TenderProfit, error)
}

type dashboardRepo struct {
	db DB
}

func NewDashboardRepo(db DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) FlowTotals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'in'), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'out'), 0)::BIGINT
		FROM bank_transactions
		WHERE tenant_id = $1 AND operation_date BETWEEN $2 AND $3
	`
	var in, out int64
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&in, &out)
	return in, out, err
}

func (r *dashboardRepo) OutstandingTotals(ctx context.Context, tenantID uuid.UUID) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(amount - amount_paid) FILTER (WHERE direction = 'receivable'), 0)::BIGINT,
			COALESCE(SUM(amount - amount_paid) FILTER (WHERE direction = 'payable'), 0)::BIGINT
		FROM debts
		WHERE tenant_id = $1 AND status <> 'paid'
	`
	var receivable, payable int64
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&receivable, &payable)
	return receivable, payable, err
}

func (r *dashboardRepo) OpenPipeline(ctx context.Context, tenantID uuid.UUID) (int, int64, error) {
	query := `
		SELECT COUNT(*)::INT, COALESCE(SUM(COALESCE(t.bid_price, t.initial_price)), 0)::BIGINT
		FROM tenders t
		JOIN tender_stages s ON s.id = t.stage_id
		WHERE t.tenant_id = $1 AND s.kind = 'open'
	`
	var count int
	var value int64
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&count, &value)
	return count, value, err
}

func (r *dashboardRepo) WonContractValue(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(COALESCE(t.contract_price, t.bid_price, t.initial_price)), 0)::BIGINT
		FROM tenders t
		JOIN tender_stages s ON s.id = t.stage_id
		WHERE t.tenant_id = $1 AND s.kind = 'won' AND t.stage_changed_at::DATE BETWEEN $2 AND $3
	`
	var value int64
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&value)
	return value, err
}

func (r *dashboardRepo) MonthlyFlows(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.MonthFlow, error) {
	query := `
		SELECT date_trunc('month', operation_date)::DATE AS month,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'in'), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'out'), 0)::BIGINT
		FROM bank_transactions
		WHERE tenant_id = $1 AND operation_date BETWEEN $2 AND $3
		GROUP BY month
		ORDER BY month
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []models.MonthFlow
	for rows.Next() {
		var f models.MonthFlow
		if err := rows.Scan(&f.Month, &f.Inflow, &f.Outflow); err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

// BalanceBefore is the sum of opening balances plus net movement strictly
// before the given date.
func (r *dashboardRepo) BalanceBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	query := `
		SELECT
			COALESCE((SELECT SUM(opening_balance) FROM bank_accounts WHERE tenant_id = $1), 0)::BIGINT +
			COALESCE((SELECT SUM(CASE WHEN direction = 'in' THEN amount ELSE -amount END)
				FROM bank_transactions WHERE tenant_id = $1 AND operation_date < $2), 0)::BIGINT
	`
	var balance int64
	err := r.db.QueryRow(ctx, query, tenantID, before).Scan(&balance)
	return balance, err
}

// WonTenders returns won tenders in range with the sum of bank outflows
// linked to each.
func (r *dashboardRepo) WonTenders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.TenderProfit, error) {
	query := `
		SELECT t.id, t.title, t.customer,
			COALESCE(t.contract_price, t.bid_price, t.initial_price)::BIGINT,
			t.cost_estimate,
			COALESCE((SELECT SUM(b.amount) FROM bank_transactions b
				WHERE b.tenant_id = t.tenant_id AND b.tender_id = t.id AND b.direction = 'out'), 0)::BIGINT
		FROM tenders t
		JOIN tender_stages s ON s.id = t.stage_id
		WHERE t.tenant_id = $1 AND s.kind = 'won' AND t.stage_changed_at::DATE BETWEEN $2 AND $3
		ORDER BY t.stage_changed_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TenderProfit
	for rows.Next() {
		var p models.TenderProfit
		if err := rows.Scan(&p.TenderID, &p.Title, &p.Customer, &p.ContractPrice, &p.CostEstimate, &p.LinkedExpenses); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
