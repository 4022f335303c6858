package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// Recurring spawns a fresh draft from every invoice flagged recurring.
// The source invoice is never modified.
type Recurring struct {
	store  *store.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewRecurring(s *store.Store, logger *slog.Logger) *Recurring {
	return &Recurring{
		store:  s,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("component", "recurring"),
	}
}

// Run returns the ids of the invoices it created. Failures on one invoice are
// logged and do not stop the batch.
func (j *Recurring) Run(ctx context.Context) ([]string, error) {
	sources, err := j.store.Invoices.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recurring invoices: %w", err)
	}

	created := []string{}
	now := j.now()
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		clone := cloneInvoice(src, now)
		err := j.store.WithTx(ctx, func(ctx context.Context, r *store.Repos) error {
			return r.Invoices.Create(ctx, clone)
		})
		if err != nil {
			j.logger.Error("cloning recurring invoice failed", "invoice_id", src.ID, "error", err)
			continue
		}
		created = append(created, clone.ID)
	}

	j.logger.Info("recurring invoices generated", "sources", len(sources), "created", len(created))
	return created, nil
}

func cloneInvoice(src models.Invoice, now time.Time) *models.Invoice {
	items := make([]models.LineItem, len(src.Items))
	copy(items, src.Items)

	var due *time.Time
	if src.DueDate != nil {
		d := now.Add(src.DueDate.Sub(src.CreatedAt))
		due = &d
	}

	return &models.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: fmt.Sprintf("%s-%s", src.InvoiceNumber, now.Format("20060102150405")),
		ClientID:      src.ClientID,
		Items:         items,
		Subtotal:      src.Subtotal,
		Tax:           src.Tax,
		TotalAmount:   src.TotalAmount,
		Currency:      src.Currency,
		DueDate:       due,
		Status:        models.InvoiceDraft,
		Recurring:     false,
		Notes:         src.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
