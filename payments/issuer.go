package payments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// DefaultLinkTTL is how long an issued link stays payable.
const DefaultLinkTTL = 24 * time.Hour

// Issuer mints single-use payment links for invoices.
type Issuer struct {
	store       *store.Store
	frontendURL string
	ttl         time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewIssuer(s *store.Store, frontendURL string, ttl time.Duration, logger *slog.Logger) *Issuer {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &Issuer{
		store:       s,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With("component", "issuer"),
	}
}

// Issue always mints a new link. The invoice total is snapshotted as the link
// amount and a draft or overdue invoice moves to sent.
func (i *Issuer) Issue(ctx context.Context, invoiceID string) (*models.IssuedLink, error) {
	return i.issue(ctx, invoiceID, false)
}

// IssueOrReuse returns the invoice's current payable link if one exists and
// still charges the invoice's total and currency, otherwise it mints a new one.
func (i *Issuer) IssueOrReuse(ctx context.Context, invoiceID string) (*models.IssuedLink, error) {
	return i.issue(ctx, invoiceID, true)
}

func (i *Issuer) issue(ctx context.Context, invoiceID string, reuse bool) (*models.IssuedLink, error) {
	now := i.now()
	var out *models.IssuedLink

	err := i.store.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
		if err := r.Invoices.Lock(ctx, invoiceID); err != nil {
			return err
		}
		inv, err := r.Invoices.Get(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status.IsPaid() {
			return models.ErrAlreadyPaid
		}

		if reuse {
			existing, err := r.Links.FindActiveForInvoice(ctx, invoiceID, now)
			switch {
			case err == nil && existing.Amount == inv.TotalAmount && existing.Currency == inv.Currency:
				out = i.issued(existing, true)
				return nil
			case err == nil:
				i.logger.Info("active link no longer matches invoice, minting a new one",
					"invoice_id", inv.ID, "link_amount", existing.Amount.String(), "invoice_total", inv.TotalAmount.String())
			case !errors.Is(err, models.ErrNotFound):
				return err
			}
		}

		link := &models.PaymentLink{
			Token:     uuid.NewString(),
			InvoiceID: inv.ID,
			Amount:    inv.TotalAmount,
			Currency:  inv.Currency,
			Status:    models.LinkPending,
			ExpiresAt: now.Add(i.ttl),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.Links.Create(ctx, link); err != nil {
			return err
		}
		if _, err := r.Invoices.TransitionStatus(ctx, inv.ID, models.InvoiceSent, models.InvoiceDraft, models.InvoiceOverdue); err != nil {
			return err
		}
		out = i.issued(link, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	i.logger.Info("payment link issued",
		"invoice_id", invoiceID,
		"amount", out.Amount.String(),
		"expires_at", out.ExpiresAt,
		"reused", out.Reused,
	)
	return out, nil
}

func (i *Issuer) issued(l *models.PaymentLink, reused bool) *models.IssuedLink {
	return &models.IssuedLink{
		Token:     l.Token,
		PayURL:    i.PayURL(l.Token),
		InvoiceID: l.InvoiceID,
		Amount:    l.Amount,
		Currency:  l.Currency,
		ExpiresAt: l.ExpiresAt,
		Reused:    reused,
	}
}

// PayURL is the payer-facing page for a token.
func (i *Issuer) PayURL(token string) string {
	return i.frontendURL + "/pay/" + token
}
