package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postingColumnNames = []string{
	"id", "company", "event_kind", "posting_date", "source_kind", "source_id", "remark",
	"multi_currency", "docstatus", "correlation_id", "created_at", "cancelled_at",
}

var lineColumnNames = []string{"account_id", "side", "amount", "currency", "exchange_rate", "base_amount", "party_id", "remark"}

func samplePosting(t *testing.T) *ledger.Posting {
	t.Helper()
	party := uuid.New()
	amount := decimal.NewFromInt(1000)
	one := decimal.NewFromInt(1)
	lines := []ledger.Line{
		{AccountID: uuid.New(), Side: ledger.SideDebit, Amount: amount, Currency: "GBP", ExchangeRate: one, BaseAmount: amount},
		{AccountID: uuid.New(), Side: ledger.SideCredit, Amount: amount, Currency: "GBP", ExchangeRate: one, BaseAmount: amount, PartyID: &party},
	}
	p, err := ledger.NewPosting("Acme Ltd", shared.EventKindShareIssuance, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		shared.DocumentKindMovement, uuid.New(), lines)
	require.NoError(t, err)
	p.CorrelationID = "corr-1"
	return p
}

func postingRow(p *ledger.Posting) []interface{} {
	return []interface{}{
		p.ID, p.Company, p.EventKind, p.PostingDate, p.SourceKind, p.SourceID, p.Remark,
		p.MultiCurrency, p.DocStatus, p.CorrelationID, p.CreatedAt, p.CancelledAt,
	}
}

func lineRows(p *ledger.Posting) *pgxmock.Rows {
	rows := pgxmock.NewRows(lineColumnNames)
	for _, l := range p.Lines {
		rows.AddRow(l.AccountID, l.Side, l.Amount, l.Currency, l.ExchangeRate, l.BaseAmount, l.PartyID, l.Remark)
	}
	return rows
}

func TestPostingRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: newTestLogger()}
	p := samplePosting(t)

	t.Run("writes header and lines", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO postings`).WithArgs(postingRow(p)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		for i, l := range p.Lines {
			mock.ExpectExec(`INSERT INTO posting_lines`).
				WithArgs(p.ID, i+1, l.AccountID, l.Side, l.Amount, l.Currency, l.ExchangeRate, l.BaseAmount, l.PartyID, l.Remark).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}

		assert.NoError(t, repo.Create(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("line failure", func(t *testing.T) {
		dbErr := errors.New("foreign key violation")
		mock.ExpectExec(`INSERT INTO postings`).WithArgs(postingRow(p)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO posting_lines`).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		err := repo.Create(ctx, p)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create posting line")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostingRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: newTestLogger()}
	p := samplePosting(t)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`FROM postings\s+WHERE id = \$1`).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows(postingColumnNames).AddRow(postingRow(p)...))
		mock.ExpectQuery(`FROM posting_lines\s+WHERE posting_id = \$1\s+ORDER BY line_no ASC`).WithArgs(p.ID).
			WillReturnRows(lineRows(p))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM postings`).WithArgs(p.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, p.ID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, shared.ErrNotFound{Record: "posting", ID: p.ID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostingRepository_Update(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: newTestLogger()}
	p := samplePosting(t)
	require.NoError(t, p.Cancel())
	query := `UPDATE postings\s+SET docstatus = \$1, cancelled_at = \$2, remark = \$3\s+WHERE id = \$4`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(shared.DocStatusCancelled, p.CancelledAt, p.Remark, p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Update(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(shared.DocStatusCancelled, p.CancelledAt, p.Remark, p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.Update(ctx, p), shared.ErrNotFound{Record: "posting"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostingRepository_ListBySource(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: newTestLogger()}
	first, second := samplePosting(t), samplePosting(t)
	second.SourceID = first.SourceID

	mock.ExpectQuery(`FROM postings\s+WHERE source_kind = \$1 AND source_id = \$2`).
		WithArgs(shared.DocumentKindMovement, first.SourceID).
		WillReturnRows(pgxmock.NewRows(postingColumnNames).AddRow(postingRow(first)...).AddRow(postingRow(second)...))
	mock.ExpectQuery(`FROM posting_lines`).WithArgs(first.ID).WillReturnRows(lineRows(first))
	mock.ExpectQuery(`FROM posting_lines`).WithArgs(second.ID).WillReturnRows(lineRows(second))

	got, err := repo.ListBySource(ctx, shared.DocumentKindMovement, first.SourceID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Lines, 2)
	assert.Equal(t, second.Lines, got[1].Lines)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM postings WHERE id = \$1`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("lock timeout")
		mock.ExpectExec(`DELETE FROM postings`).WithArgs(id).WillReturnError(dbErr)

		assert.ErrorIs(t, repo.Delete(ctx, id), dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
