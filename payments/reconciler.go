package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// WebhookOutcome says what a verified webhook did.
type WebhookOutcome string

const (
	OutcomeSettled     WebhookOutcome = "settled"
	OutcomeDuplicate   WebhookOutcome = "duplicate"
	OutcomeExpired     WebhookOutcome = "expired_link"
	OutcomeUnknownLink WebhookOutcome = "unknown_link"
	OutcomeIgnored     WebhookOutcome = "ignored"
)

// WebhookResult is returned for every verified webhook. A non-nil error from
// HandleWebhook means the processor should retry.
type WebhookResult struct {
	Outcome   WebhookOutcome  `json:"outcome"`
	EventID   string          `json:"event_id,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Invoice   *models.Invoice `json:"invoice,omitempty"`
}

// Reconciler converges processor webhooks and payer confirmations on one
// idempotent settle step: link PENDING->PAID and invoice -> paid, atomically.
type Reconciler struct {
	store      *store.Store
	processors Registry
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewReconciler(s *store.Store, processors Registry, timeout time.Duration, logger *slog.Logger) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Reconciler{
		store:      s,
		processors: processors,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With("component", "reconciler"),
	}
}

// HandleWebhook verifies the signature before any state is read, then settles
// the link named by a completed-payment event.
func (r *Reconciler) HandleWebhook(ctx context.Context, provider string, payload []byte, signature string) (*WebhookResult, error) {
	proc, ok := r.processors[provider]
	if !ok {
		return nil, fmt.Errorf("processor %q: %w", provider, models.ErrNotFound)
	}

	ev, err := proc.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, models.ErrSignatureInvalid) {
			r.logger.Warn("webhook rejected", "provider", provider, "error", err)
		}
		return nil, err
	}

	res := &WebhookResult{EventID: ev.ID, EventType: ev.Type}
	if !ev.Completed() {
		r.logger.Debug("webhook ignored", "provider", provider, "event_type", ev.Type, "state", ev.State)
		res.Outcome = OutcomeIgnored
		return res, nil
	}

	inv, changed, err := r.settle(ctx, ev.Token, ev.PaymentRef)
	switch {
	case errors.Is(err, models.ErrInvalidLink):
		r.logger.Warn("payment received for unknown link", "provider", provider, "event_id", ev.ID, "payment_ref", ev.PaymentRef)
		res.Outcome = OutcomeUnknownLink
		return res, nil
	case errors.Is(err, models.ErrLinkExpired):
		r.logger.Warn("payment received for expired link", "provider", provider, "event_id", ev.ID, "payment_ref", ev.PaymentRef)
		res.Outcome = OutcomeExpired
		return res, nil
	case err != nil:
		return nil, err
	}

	res.Invoice = inv
	res.Outcome = OutcomeDuplicate
	if changed {
		res.Outcome = OutcomeSettled
	}
	return res, nil
}

// Confirm is the payer-side fallback when the webhook is slow. The recorded
// checkout session is checked with the processor before anything is settled.
func (r *Reconciler) Confirm(ctx context.Context, token string) (*models.Invoice, error) {
	link, err := r.findLink(ctx, token)
	if err != nil {
		return nil, err
	}

	switch link.Status {
	case models.LinkPaid:
		return r.store.Invoices.Get(ctx, link.InvoiceID)
	case models.LinkExpired:
		return nil, models.ErrLinkExpired
	}
	now := r.now()
	if link.ExpiredAt(now) {
		expireLink(ctx, r.store, r.logger, token, now)
		return nil, models.ErrLinkExpired
	}
	if link.Provider == nil || link.ProviderSessionID == nil {
		return nil, fmt.Errorf("%w: no checkout session started", models.ErrPaymentIncomplete)
	}

	proc, ok := r.processors[*link.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: processor %s not configured", models.ErrProviderUnavailable, *link.Provider)
	}
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	state, ref, err := proc.SessionStatus(cctx, *link.ProviderSessionID)
	if err != nil {
		r.logger.Warn("session status lookup failed", "provider", *link.Provider, "invoice_id", link.InvoiceID, "error", err)
		if errors.Is(err, models.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if state != PaymentPaid {
		return nil, fmt.Errorf("%w: processor reports %s", models.ErrPaymentIncomplete, state)
	}

	inv, _, err := r.settle(ctx, token, ref)
	return inv, err
}

// Inspect backs the public pay page: the link must be payable, and the
// invoice is marked pending once the payer has opened it.
func (r *Reconciler) Inspect(ctx context.Context, token string) (*models.LinkView, error) {
	link, err := r.findLink(ctx, token)
	if err != nil {
		return nil, err
	}
	switch link.Status {
	case models.LinkPaid:
		return nil, fmt.Errorf("%w: link already used", models.ErrInvalidLink)
	case models.LinkExpired:
		return nil, models.ErrLinkExpired
	}
	now := r.now()
	if link.ExpiredAt(now) {
		expireLink(ctx, r.store, r.logger, token, now)
		return nil, models.ErrLinkExpired
	}

	if _, err := r.store.Invoices.TransitionStatus(ctx, link.InvoiceID, models.InvoicePending,
		models.InvoiceDraft, models.InvoiceSent, models.InvoiceOverdue); err != nil {
		return nil, err
	}
	inv, err := r.store.Invoices.Get(ctx, link.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &models.LinkView{
		Token:         link.Token,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientName:    inv.ClientName,
		Amount:        link.Amount,
		Currency:      link.Currency,
		DueDate:       inv.DueDate,
		InvoiceStatus: inv.Status,
		ExpiresAt:     link.ExpiresAt,
	}, nil
}

func (r *Reconciler) findLink(ctx context.Context, token string) (*models.PaymentLink, error) {
	link, err := r.store.Links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidLink
		}
		return nil, err
	}
	return link, nil
}

// settle is the single transition to PAID. It is idempotent: a link that is
// already PAID returns its invoice with changed=false. Losing the CAS to a
// concurrent writer reports the winner's outcome.
func (r *Reconciler) settle(ctx context.Context, token, paymentRef string) (*models.Invoice, bool, error) {
	link, err := r.findLink(ctx, token)
	if err != nil {
		return nil, false, err
	}

	switch link.Status {
	case models.LinkPaid:
		inv, err := r.store.Invoices.Get(ctx, link.InvoiceID)
		return inv, false, err
	case models.LinkExpired:
		return nil, false, models.ErrLinkExpired
	}
	now := r.now()
	if link.ExpiredAt(now) {
		expireLink(ctx, r.store, r.logger, token, now)
		return nil, false, models.ErrLinkExpired
	}

	var (
		inv *models.Invoice
		won bool
	)
	err = r.store.WithTx(ctx, func(ctx context.Context, repos *store.Repos) error {
		ok, err := repos.Links.Transition(ctx, token, models.LinkPaid, now, paymentRef)
		if err != nil || !ok {
			return err
		}
		won = true
		if err := repos.Invoices.SetStatus(ctx, link.InvoiceID, models.InvoicePaid); err != nil {
			return err
		}
		inv, err = repos.Invoices.Get(ctx, link.InvoiceID)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("settling payment link: %w", err)
	}

	if !won {
		current, err := r.findLink(ctx, token)
		if err != nil {
			return nil, false, err
		}
		if current.Status == models.LinkPaid {
			inv, err := r.store.Invoices.Get(ctx, current.InvoiceID)
			return inv, false, err
		}
		return nil, false, models.ErrLinkExpired
	}

	r.logger.Info("payment settled", "invoice_id", link.InvoiceID, "amount", link.Amount.String(), "payment_ref", paymentRef)
	return inv, true, nil
}
