package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
	"github.com/satheeshds/invoicing/store/storetest"
)

func newLink(invoiceID string, amount models.Money, expires time.Time) *models.PaymentLink {
	ts := time.Now().UTC()
	return &models.PaymentLink{
		Token:     uuid.NewString(),
		InvoiceID: invoiceID,
		Amount:    amount,
		Currency:  "usd",
		Status:    models.LinkPending,
		ExpiresAt: expires,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func seedLink(t *testing.T, s *store.Store, expires time.Time) *models.PaymentLink {
	t.Helper()
	c := storetest.Client(t, s, uuid.NewString()+"@example.com")
	inv := storetest.Invoice(t, s, c.ID, 1000)
	l := newLink(inv.ID, inv.TotalAmount, expires)
	require.NoError(t, s.Links.Create(context.Background(), l))
	return l
}

func TestLinks_CreateAndFind(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(24 * time.Hour)
	l := seedLink(t, s, expires)

	got, err := s.Links.FindByToken(ctx, l.Token)
	require.NoError(t, err)
	assert.Equal(t, l.InvoiceID, got.InvoiceID)
	assert.Equal(t, models.Money(1000), got.Amount)
	assert.Equal(t, models.LinkPending, got.Status)
	assert.WithinDuration(t, expires, got.ExpiresAt, time.Millisecond)
	assert.Nil(t, got.PaidAt)

	_, err = s.Links.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLinks_TransitionIsCompareAndSwap(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	l := seedLink(t, s, time.Now().UTC().Add(time.Hour))
	at := time.Now().UTC()

	ok, err := s.Links.Transition(ctx, l.Token, models.LinkPaid, at, "pi_123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Links.Transition(ctx, l.Token, models.LinkExpired, at, "")
	require.NoError(t, err)
	assert.False(t, ok, "terminal link must not change")

	ok, err = s.Links.Transition(ctx, l.Token, models.LinkPaid, at, "pi_456")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Links.FindByToken(ctx, l.Token)
	require.NoError(t, err)
	assert.Equal(t, models.LinkPaid, got.Status)
	require.NotNil(t, got.ProviderPaymentRef)
	assert.Equal(t, "pi_123", *got.ProviderPaymentRef)
	require.NotNil(t, got.PaidAt)

	_, err = s.Links.Transition(ctx, l.Token, models.LinkPending, at, "")
	assert.Error(t, err)
}

func TestLinks_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	l := seedLink(t, s, time.Now().UTC().Add(-time.Minute))

	targets := []models.LinkStatus{models.LinkPaid, models.LinkExpired, models.LinkPaid, models.LinkExpired}
	results := make([]bool, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to models.LinkStatus) {
			defer wg.Done()
			ok, err := s.Links.Transition(ctx, l.Token, to, time.Now().UTC(), "ref")
			assert.NoError(t, err)
			results[i] = ok
		}(i, to)
	}
	wg.Wait()

	winners := 0
	for _, ok := range results {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestLinks_FindExpiredPending(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := seedLink(t, s, now.Add(-time.Hour))
	fresh := seedLink(t, s, now.Add(time.Hour))
	paid := seedLink(t, s, now.Add(-2*time.Hour))
	_, err := s.Links.Transition(ctx, paid.Token, models.LinkPaid, now, "")
	require.NoError(t, err)

	links, err := s.Links.FindExpiredPending(ctx, now)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, stale.Token, links[0].Token)
	assert.NotEqual(t, fresh.Token, links[0].Token)
}

func TestLinks_FindActiveForInvoice(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()
	l := seedLink(t, s, now.Add(time.Hour))

	later := newLink(l.InvoiceID, l.Amount, now.Add(2*time.Hour))
	require.NoError(t, s.Links.Create(ctx, later))
	expired := newLink(l.InvoiceID, l.Amount, now.Add(-time.Hour))
	require.NoError(t, s.Links.Create(ctx, expired))

	got, err := s.Links.FindActiveForInvoice(ctx, l.InvoiceID, now)
	require.NoError(t, err)
	assert.Equal(t, later.Token, got.Token)

	n, err := s.Links.CountByInvoice(ctx, l.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.Links.ListByInvoice(ctx, l.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.Links.FindActiveForInvoice(ctx, "nope", now)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLinks_SetSessionOnlyWhilePending(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	l := seedLink(t, s, time.Now().UTC().Add(time.Hour))

	require.NoError(t, s.Links.SetSession(ctx, l.Token, "stripe", "cs_1", time.Now().UTC()))
	got, err := s.Links.FindByToken(ctx, l.Token)
	require.NoError(t, err)
	require.NotNil(t, got.ProviderSessionID)
	assert.Equal(t, "cs_1", *got.ProviderSessionID)
	assert.Equal(t, "stripe", *got.Provider)

	_, err = s.Links.Transition(ctx, l.Token, models.LinkExpired, time.Now().UTC(), "")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Links.SetSession(ctx, l.Token, "stripe", "cs_2", time.Now().UTC()), models.ErrNotFound)
}
