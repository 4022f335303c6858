package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// DefaultProviderTimeout bounds every call to a processor.
const DefaultProviderTimeout = 10 * time.Second

// Bridge opens hosted checkout sessions for payable links.
type Bridge struct {
	store       *store.Store
	processor   Processor
	frontendURL string
	timeout     time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewBridge(s *store.Store, processor Processor, frontendURL string, timeout time.Duration, logger *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Bridge{
		store:       s,
		processor:   processor,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		timeout:     timeout,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With("component", "checkout", "provider", processor.Name()),
	}
}

// CreateCheckoutSession opens a session for exactly the link's snapshot amount
// and returns the processor's redirect URL. The link stays PENDING whatever the
// outcome; only reconciliation marks it paid.
func (b *Bridge) CreateCheckoutSession(ctx context.Context, token string) (string, error) {
	link, err := b.store.Links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrInvalidLink
		}
		return "", err
	}

	switch link.Status {
	case models.LinkPaid:
		return "", fmt.Errorf("%w: link already used", models.ErrInvalidLink)
	case models.LinkExpired:
		return "", models.ErrLinkExpired
	}
	now := b.now()
	if link.ExpiredAt(now) {
		expireLink(ctx, b.store, b.logger, token, now)
		return "", models.ErrLinkExpired
	}

	inv, err := b.store.Invoices.Get(ctx, link.InvoiceID)
	if err != nil {
		return "", err
	}
	// Another link of the same invoice may have been paid meanwhile.
	if inv.Status.IsPaid() {
		return "", models.ErrAlreadyPaid
	}
	description := "Invoice " + inv.InvoiceNumber

	q := "?token=" + url.QueryEscape(token)
	sctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	sess, err := b.processor.CreateHostedSession(sctx, SessionRequest{
		Token:       token,
		Amount:      link.Amount,
		Currency:    link.Currency,
		Description: description,
		SuccessURL:  b.frontendURL + "/success" + q,
		CancelURL:   b.frontendURL + "/cancel" + q,
	})
	if err != nil {
		b.logger.Warn("checkout session failed", "invoice_id", link.InvoiceID, "error", err)
		if errors.Is(err, models.ErrProviderUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	if err := b.store.Links.SetSession(ctx, token, b.processor.Name(), sess.ID, b.now()); err != nil {
		b.logger.Warn("recording checkout session failed", "invoice_id", link.InvoiceID, "session_id", sess.ID, "error", err)
	}

	b.logger.Info("checkout session created", "invoice_id", link.InvoiceID, "session_id", sess.ID, "amount", link.Amount.String())
	return sess.URL, nil
}

// expireLink CAS-expires a PENDING link found past its expiry. Losing the race is fine.
func expireLink(ctx context.Context, s *store.Store, logger *slog.Logger, token string, at time.Time) {
	ok, err := s.Links.Transition(ctx, token, models.LinkExpired, at, "")
	if err != nil {
		logger.Error("expiring payment link failed", "error", err)
		return
	}
	if ok {
		logger.Info("payment link expired on access")
	}
}
