package repositories

import (
	"context"
	"errors"
	"fmt"

	"bizdesk/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories use. pgxmock pools
// satisfy it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is implemented by both DB and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError translates driver errors into the common sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation, pgCheckViolation:
			return fmt.Errorf("%w: %s", common.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}

// execOne runs a statement that must touch exactly one row of the tenant.
func execOne(ctx context.Context, q querier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// whereBuilder appends numbered predicates to a tenant-scoped query.
type whereBuilder struct {
	query string
	args  []any
}

func newWhere(query string, tenantArg any) *whereBuilder {
	return &whereBuilder{query: query, args: []any{tenantArg}}
}

func (w *whereBuilder) and(cond string, arg any) {
	w.args = append(w.args, arg)
	w.query += fmt.Sprintf(" AND "+cond, len(w.args))
}

func (w *whereBuilder) page(order string, limit, offset int) {
	w.query += " ORDER BY " + order
	if limit > 0 {
		w.args = append(w.args, limit)
		w.query += fmt.Sprintf(" LIMIT $%d", len(w.args))
		if offset > 0 {
			w.args = append(w.args, offset)
			w.query += fmt.Sprintf(" OFFSET $%d", len(w.args))
		}
	}
}
