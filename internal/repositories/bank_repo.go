package repositories

import (
	"context"
	"time"

	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BankRepository interface {
	CreateAccount(ctx context.Context, a *models.BankAccount) error
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.BankAccount, error)
	UpdateAccount(ctx context.Context, a *models.BankAccount) error
	DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error
	ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.BankAccount, error)
	Balances(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error)

	CreateTransaction(ctx context.Context, t *models.BankTransaction) error
	GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error)
	UpdateTransaction(ctx context.Context, t *models.BankTransaction) error
	DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.BankTransactionFilter) ([]*models.BankTransaction, error)
	// ListUnledgered returns transactions in range that no KUDiR entry references.
	ListUnledgered(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.BankTransaction, error)
}

type bankRepo struct {
	db DB
}

func NewBankRepo(db DB) BankRepository {
	return &bankRepo{db: db}
}

const accountColumns = `id, tenant_id, name, bank_name, account_number, bic, currency, opening_balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.BankAccount, error) {
	a := &models.BankAccount{}
	err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.BankName, &a.AccountNumber, &a.BIC, &a.Currency, &a.OpeningBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *bankRepo) CreateAccount(ctx context.Context, a *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, tenant_id, name, bank_name, account_number, bic, currency, opening_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.TenantID, a.Name, a.BankName, a.AccountNumber, a.BIC, a.Currency, a.OpeningBalance)
	return mapError(err)
}

func (r *bankRepo) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE tenant_id = $1 AND id = $2`
	return scanAccount(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *bankRepo) UpdateAccount(ctx context.Context, a *models.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET name = $1, bank_name = $2, account_number = $3, bic = $4, currency = $5, opening_balance = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	return execOne(ctx, r.db, query, a.Name, a.BankName, a.AccountNumber, a.BIC, a.Currency, a.OpeningBalance, a.TenantID, a.ID)
}

func (r *bankRepo) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM bank_accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *bankRepo) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.BankAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.BankAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *bankRepo) Balances(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error) {
	query := `
		SELECT a.id, a.tenant_id, a.name, a.bank_name, a.account_number, a.bic, a.currency, a.opening_balance, a.created_at, a.updated_at,
			COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'in'), 0)::BIGINT,
			COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'out'), 0)::BIGINT
		FROM bank_accounts a
		LEFT JOIN bank_transactions t ON t.account_id = a.id AND t.tenant_id = a.tenant_id
		WHERE a.tenant_id = $1
		GROUP BY a.id
		ORDER BY a.name
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*models.AccountBalance
	for rows.Next() {
		b := &models.AccountBalance{}
		a := &b.BankAccount
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.BankName, &a.AccountNumber, &a.BIC, &a.Currency, &a.OpeningBalance,
			&a.CreatedAt, &a.UpdatedAt, &b.Inflow, &b.Outflow); err != nil {
			return nil, err
		}
		b.Balance = a.OpeningBalance + b.Inflow - b.Outflow
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

const transactionColumns = `id, tenant_id, account_id, direction, amount, counterparty, purpose, category, operation_date, tender_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.BankTransaction, error) {
	t := &models.BankTransaction{}
	err := row.Scan(&t.ID, &t.TenantID, &t.AccountID, &t.Direction, &t.Amount, &t.Counterparty, &t.Purpose, &t.Category,
		&t.OperationDate, &t.TenderID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]*models.BankTransaction, error) {
	defer rows.Close()
	var out []*models.BankTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *bankRepo) CreateTransaction(ctx context.Context, t *models.BankTransaction) error {
	query := `
		INSERT INTO bank_transactions (id, tenant_id, account_id, direction, amount, counterparty, purpose, category, operation_date, tender_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.TenantID, t.AccountID, t.Direction, t.Amount, t.Counterparty, t.Purpose, t.Category,
		t.OperationDate, t.TenderID)
	return mapError(err)
}

func (r *bankRepo) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*models.BankTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE tenant_id = $1 AND id = $2`
	return scanTransaction(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *bankRepo) UpdateTransaction(ctx context.Context, t *models.BankTransaction) error {
	query := `
		UPDATE bank_transactions
		SET account_id = $1, direction = $2, amount = $3, counterparty = $4, purpose = $5, category = $6,
			operation_date = $7, tender_id = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
	`
	return execOne(ctx, r.db, query, t.AccountID, t.Direction, t.Amount, t.Counterparty, t.Purpose, t.Category,
		t.OperationDate, t.TenderID, t.TenantID, t.ID)
}

func (r *bankRepo) DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM bank_transactions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *bankRepo) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.BankTransactionFilter) ([]*models.BankTransaction, error) {
	w := newWhere(`SELECT `+transactionColumns+` FROM bank_transactions WHERE tenant_id = $1`, tenantID)
	if filter.AccountID != nil {
		w.and("account_id = $%d", *filter.AccountID)
	}
	if filter.Direction != "" {
		w.and("direction = $%d", filter.Direction)
	}
	if filter.From != nil {
		w.and("operation_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.and("operation_date <= $%d", *filter.To)
	}
	w.page("operation_date DESC, created_at DESC", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, w.query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (r *bankRepo) ListUnledgered(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.BankTransaction, error) {
	query := `
		SELECT t.id, t.tenant_id, t.account_id, t.direction, t.amount, t.counterparty, t.purpose, t.category,
			t.operation_date, t.tender_id, t.created_at, t.updated_at
		FROM bank_transactions t
		LEFT JOIN kudir_entries k ON k.bank_transaction_id = t.id
		WHERE t.tenant_id = $1 AND t.operation_date BETWEEN $2 AND $3 AND k.id IS NULL
		ORDER BY t.operation_date, t.created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}
