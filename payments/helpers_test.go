package payments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
	"github.com/satheeshds/invoicing/store/storetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeProcessor struct {
	mu        sync.Mutex
	requests  []SessionRequest
	createErr error
	delay     time.Duration
	state     PaymentState
	ref       string
	statusErr error
	event     Event
}

func (f *fakeProcessor) Name() string { return "fake" }

func (f *fakeProcessor) CreateHostedSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.requests = append(f.requests, req)
	id := fmt.Sprintf("cs_%d", len(f.requests))
	return &Session{ID: id, URL: "https://pay.test/" + id}, nil
}

func (f *fakeProcessor) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	if signature != "valid" {
		return nil, fmt.Errorf("%w: bad signature", models.ErrSignatureInvalid)
	}
	ev := f.event
	return &ev, nil
}

func (f *fakeProcessor) SessionStatus(ctx context.Context, sessionID string) (PaymentState, string, error) {
	return f.state, f.ref, f.statusErr
}

func (f *fakeProcessor) lastRequest(t *testing.T) SessionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

// clock is a settable time source shared by the components under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store      *store.Store
	clock      *clock
	proc       *fakeProcessor
	issuer     *Issuer
	bridge     *Bridge
	reconciler *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := storetest.New(t)
	c := newClock()
	proc := &fakeProcessor{state: PaymentPending}

	issuer := NewIssuer(s, "https://app.test/", DefaultLinkTTL, discard)
	issuer.now = c.Now
	bridge := NewBridge(s, proc, "https://app.test", 200*time.Millisecond, discard)
	bridge.now = c.Now
	reconciler := NewReconciler(s, NewRegistry(proc), 200*time.Millisecond, discard)
	reconciler.now = c.Now

	return &fixture{store: s, clock: c, proc: proc, issuer: issuer, bridge: bridge, reconciler: reconciler}
}

func (f *fixture) invoice(t *testing.T, total models.Money) *models.Invoice {
	t.Helper()
	c := storetest.Client(t, f.store, uuid.NewString()+"@example.com")
	return storetest.Invoice(t, f.store, c.ID, total)
}

func (f *fixture) link(t *testing.T, token string) *models.PaymentLink {
	t.Helper()
	l, err := f.store.Links.FindByToken(context.Background(), token)
	require.NoError(t, err)
	return l
}

func (f *fixture) invoiceStatus(t *testing.T, id string) models.InvoiceStatus {
	t.Helper()
	inv, err := f.store.Invoices.Get(context.Background(), id)
	require.NoError(t, err)
	return inv.Status
}

// paidEvent points the fake processor's next webhook at token.
func (f *fixture) paidEvent(token string) {
	f.proc.event = Event{ID: "evt_1", Type: "checkout.session.completed", Token: token, SessionID: "cs_1", PaymentRef: "pi_1", State: PaymentPaid}
}
