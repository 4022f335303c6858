package store_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

func newStoreWithMock(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db), mock
}

func TestLinks_Transition_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	q := `(?s)^UPDATE\s+payment_links\s+SET\s+status\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+token\s*=\s*\$3\s+AND\s+status\s*=\s*\$4$`
	mock.ExpectExec(q).
		WithArgs(models.LinkExpired, sqlmock.AnyArg(), "tok", models.LinkPending).
		WillReturnError(errors.New("db down"))

	_, err := s.Links.Transition(context.Background(), "tok", models.LinkExpired, time.Now(), "")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinks_Transition_LostRace(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+payment_links\s+SET\s+status\s*=\s*\$1,\s*paid_at`).
		WithArgs(models.LinkPaid, sqlmock.AnyArg(), sqlmock.AnyArg(), "tok", models.LinkPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.Links.Transition(context.Background(), "tok", models.LinkPaid, time.Now(), "pi_1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinks_FindByToken_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+token,.*FROM\s+payment_links\s+WHERE\s+token\s*=\s*\$1$`).
		WithArgs("tok").
		WillReturnError(errors.New("db err"))

	_, err := s.Links.FindByToken(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "db error")
}

func TestLinks_FindByToken_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+token,.*FROM\s+payment_links`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Links.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInvoices_SetStatus_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+invoices\s+SET\s+status\s*=\s*\$1`).
		WithArgs(models.InvoicePaid, sqlmock.AnyArg(), "inv").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Invoices.SetStatus(context.Background(), "inv", models.InvoicePaid)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^UPDATE\s+payment_links`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^UPDATE\s+invoices\s+SET\s+status`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context, r *store.Repos) error {
		if _, err := r.Links.Transition(ctx, "tok", models.LinkPaid, time.Now(), ""); err != nil {
			return err
		}
		return r.Invoices.SetStatus(ctx, "inv", models.InvoicePaid)
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoices_Create_RetriesTakenNumber(t *testing.T) {
	s, mock := newStoreWithMock(t)

	numbers := `(?s)^SELECT\s+invoice_number\s+FROM\s+invoices\s+WHERE\s+invoice_number\s+LIKE\s+\$1$`
	insert := `(?s)^INSERT\s+INTO\s+invoices\s+.*ON CONFLICT \(invoice_number\) DO NOTHING$`

	mock.ExpectQuery(numbers).WithArgs("INV-2026-%").
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-2026-0001"))
	// A concurrent writer took 0002 first.
	mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(numbers).WithArgs("INV-2026-%").
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-2026-0001").AddRow("INV-2026-0002"))
	mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))

	inv := &models.Invoice{
		ClientID:  "c1",
		Currency:  "usd",
		Status:    models.InvoiceDraft,
		CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Invoices.Create(context.Background(), inv))
	assert.Equal(t, "INV-2026-0003", inv.InvoiceNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}
