package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRepo_FlowTotals(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM bank_transactions\s+WHERE tenant_id = \$1 AND operation_date BETWEEN \$2 AND \$3`).
		WithArgs(tenantID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"in", "out"}).AddRow(int64(150000), int64(90000)))

	in, out, err := NewDashboardRepo(mock).FlowTotals(context.Background(), tenantID, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), in)
	assert.Equal(t, int64(90000), out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepo_MonthlyFlows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`date_trunc\('month', operation_date\)`).
		WithArgs(tenantID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"month", "in", "out"}).
			AddRow(from, int64(1000), int64(0)).
			AddRow(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), int64(0), int64(400)))

	flows, err := NewDashboardRepo(mock).MonthlyFlows(context.Background(), tenantID, from, to)
	require.NoError(t, err)
	require.Len(t, flows, 2)
	assert.Equal(t, time.March, flows[1].Month.Month())
	assert.Equal(t, int64(400), flows[1].Outflow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepo_WonTenders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	tenderID := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`s.kind = 'won'`).
		WithArgs(tenantID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "customer", "contract", "cost", "linked"}).
			AddRow(tenderID, "Road works", "City", int64(500000), int64(300000), int64(50000)))

	rows, err := NewDashboardRepo(mock).WonTenders(context.Background(), tenantID, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, tenderID, rows[0].TenderID)
	assert.Equal(t, int64(50000), rows[0].LinkedExpenses)
	assert.NoError(t, mock.ExpectationsWereMet())
}
