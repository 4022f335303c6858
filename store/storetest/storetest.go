// Package storetest builds migrated in-memory stores and fixtures for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// New returns a store over a fresh, migrated in-memory sqlite database.
func New(t testing.TB) *store.Store {
	t.Helper()
	database, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.Migrate(context.Background(), database, db.DriverSQLite))
	return store.New(database)
}

// Client creates a client with the given email.
func Client(t testing.TB, s *store.Store, email string) *models.Client {
	t.Helper()
	c, err := s.Clients.Create(context.Background(), models.ClientInput{Name: "Acme " + email, Email: email})
	require.NoError(t, err)
	return c
}

// Invoice creates a draft invoice for clientID with a single line totalling total.
func Invoice(t testing.TB, s *store.Store, clientID string, total models.Money) *models.Invoice {
	t.Helper()
	in := models.InvoiceInput{
		ClientID: clientID,
		Items:    []models.LineItemInput{{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: total}},
		Currency: "usd",
	}
	require.Empty(t, in.Validate())
	inv := &models.Invoice{}
	require.NoError(t, in.Apply(inv))
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Create(ctx, inv)
	}))
	return inv
}
