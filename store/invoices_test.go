package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
	"github.com/satheeshds/invoicing/store/storetest"
)

func TestInvoices_CreateGetWithItems(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "billing@acme.test")

	due := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	in := models.InvoiceInput{
		ClientID: c.ID,
		Items: []models.LineItemInput{
			{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: 25000},
			{Description: "Hosting", Quantity: decimal.RequireFromString("1.5"), UnitPrice: 1000},
		},
		Tax:      500,
		Currency: "usd",
		DueDate:  &due,
	}
	require.Empty(t, in.Validate())
	inv := &models.Invoice{}
	require.NoError(t, in.Apply(inv))
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Create(ctx, inv)
	}))
	assert.Regexp(t, `^INV-\d{4}-0001$`, inv.InvoiceNumber)

	got, err := s.Invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Money(51500), got.Subtotal)
	assert.Equal(t, models.Money(52000), got.TotalAmount)
	assert.Equal(t, models.InvoiceDraft, got.Status)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Design", got.Items[0].Description)
	assert.True(t, got.Items[1].Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, models.Money(1500), got.Items[1].Amount)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	require.NotNil(t, got.ClientName)
	assert.Equal(t, c.Name, *got.ClientName)

	_, err = s.Invoices.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInvoices_DuplicateNumberConflicts(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "dup@acme.test")
	first := storetest.Invoice(t, s, c.ID, 100)

	dup := &models.Invoice{InvoiceNumber: first.InvoiceNumber, ClientID: c.ID, Currency: "usd", Status: models.InvoiceDraft}
	err := s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Create(ctx, dup)
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestInvoices_UpdateReplacesItems(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "upd@acme.test")
	inv := storetest.Invoice(t, s, c.ID, 50000)

	in := models.InvoiceInput{
		ClientID: c.ID,
		Items:    []models.LineItemInput{{Description: "Revised", Quantity: decimal.NewFromInt(1), UnitPrice: 70000}},
		Status:   models.InvoiceSent,
	}
	require.Empty(t, in.Validate())
	require.NoError(t, in.Apply(inv))
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Update(ctx, inv)
	}))

	got, err := s.Invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Money(70000), got.TotalAmount)
	assert.Equal(t, models.InvoiceSent, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Revised", got.Items[0].Description)
}

func TestInvoices_ListFilters(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	a := storetest.Client(t, s, "a@acme.test")
	b := storetest.Client(t, s, "b@acme.test")
	inv1 := storetest.Invoice(t, s, a.ID, 100)
	storetest.Invoice(t, s, b.ID, 200)
	require.NoError(t, s.Invoices.SetStatus(ctx, inv1.ID, models.InvoiceSent))

	all, err := s.Invoices.List(ctx, models.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Nil(t, all[0].Items)

	byClient, err := s.Invoices.List(ctx, models.InvoiceFilter{ClientID: a.ID})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, inv1.ID, byClient[0].ID)

	sent, err := s.Invoices.List(ctx, models.InvoiceFilter{Status: models.InvoiceSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	search, err := s.Invoices.List(ctx, models.InvoiceFilter{Search: "B@ACME"})
	require.NoError(t, err)
	require.Len(t, search, 1)
}

func TestInvoices_TransitionStatusIsGuarded(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "guard@acme.test")
	inv := storetest.Invoice(t, s, c.ID, 100)

	ok, err := s.Invoices.TransitionStatus(ctx, inv.ID, models.InvoicePending, models.InvoiceSent)
	require.NoError(t, err)
	assert.False(t, ok, "draft is not a source state")

	ok, err = s.Invoices.TransitionStatus(ctx, inv.ID, models.InvoicePending, models.InvoiceDraft, models.InvoiceSent)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePending, got.Status)

	_, err = s.Invoices.TransitionStatus(ctx, inv.ID, models.InvoicePaid)
	assert.Error(t, err)
}

func TestInvoices_RecurringAndDelete(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "rec@acme.test")
	inv := storetest.Invoice(t, s, c.ID, 100)
	inv.Recurring = true
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Update(ctx, inv)
	}))
	storetest.Invoice(t, s, c.ID, 200)

	rec, err := s.Invoices.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.Equal(t, inv.ID, rec[0].ID)
	assert.Len(t, rec[0].Items, 1)

	require.NoError(t, s.Invoices.SetFileURL(ctx, inv.ID, "s3://bucket/x.pdf"))
	require.NoError(t, s.Invoices.Delete(ctx, inv.ID))
	assert.ErrorIs(t, s.Invoices.Delete(ctx, inv.ID), models.ErrNotFound)
}

func TestInvoices_NumberingSurvivesDeletes(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "seq@acme.test")

	first := storetest.Invoice(t, s, c.ID, 100)
	second := storetest.Invoice(t, s, c.ID, 200)
	prefix := strings.TrimSuffix(first.InvoiceNumber, "0001")
	require.Equal(t, prefix+"0002", second.InvoiceNumber)

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Delete(ctx, first.ID)
	}))
	third := storetest.Invoice(t, s, c.ID, 300)
	assert.Equal(t, prefix+"0003", third.InvoiceNumber)

	// Recurring copies and custom numbers sharing the prefix do not advance the sequence.
	for _, number := range []string{second.InvoiceNumber + "-20260101000000", prefix + "custom"} {
		inv := &models.Invoice{InvoiceNumber: number, ClientID: c.ID, Currency: "usd", Status: models.InvoiceDraft}
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
			return r.Invoices.Create(ctx, inv)
		}))
	}
	fourth := storetest.Invoice(t, s, c.ID, 400)
	assert.Equal(t, prefix+"0004", fourth.InvoiceNumber)
}

func TestInvoices_NumberTakenByCustomInvoiceIsSkipped(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "skip@acme.test")

	first := storetest.Invoice(t, s, c.ID, 100)
	prefix := strings.TrimSuffix(first.InvoiceNumber, "0001")

	// A caller-chosen number matching the generated pattern moves the sequence past it.
	custom := &models.Invoice{InvoiceNumber: prefix + "0007", ClientID: c.ID, Currency: "usd", Status: models.InvoiceDraft}
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Create(ctx, custom)
	}))
	next := storetest.Invoice(t, s, c.ID, 200)
	assert.Equal(t, prefix+"0008", next.InvoiceNumber)
}

func TestInvoices_Lock(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.Client(t, s, "lock@acme.test")
	inv := storetest.Invoice(t, s, c.ID, 100)

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Lock(ctx, inv.ID)
	}))
	err := s.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		return r.Invoices.Lock(ctx, "missing")
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
