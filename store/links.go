package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/models"
)

const linkSelectQuery = `SELECT token, invoice_id, amount, currency, status, expires_at, provider,
	provider_session_id, provider_payment_ref, paid_at, created_at, updated_at
	FROM payment_links`

func scanLink(scanner interface{ Scan(...any) error }) (models.PaymentLink, error) {
	var l models.PaymentLink
	err := scanner.Scan(&l.Token, &l.InvoiceID, &l.Amount, &l.Currency, &l.Status, &l.ExpiresAt, &l.Provider,
		&l.ProviderSessionID, &l.ProviderPaymentRef, &l.PaidAt, &l.CreatedAt, &l.UpdatedAt)
	l.ExpiresAt = utc(l.ExpiresAt)
	l.PaidAt = utcPtr(l.PaidAt)
	l.CreatedAt = utc(l.CreatedAt)
	l.UpdatedAt = utc(l.UpdatedAt)
	return l, err
}

// LinkRepository persists payment links. Links are never deleted, and every
// status change is a compare-and-swap from PENDING.
type LinkRepository struct {
	q db.DBTX
}

func (r *LinkRepository) Create(ctx context.Context, l *models.PaymentLink) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO payment_links (token, invoice_id, amount, currency, status, expires_at,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.Token, l.InvoiceID, l.Amount, l.Currency, l.Status, l.ExpiresAt.UTC(), l.CreatedAt.UTC(), l.UpdatedAt.UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: token collision", models.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByToken returns the link or models.ErrNotFound.
func (r *LinkRepository) FindByToken(ctx context.Context, token string) (*models.PaymentLink, error) {
	l, err := scanLink(r.q.QueryRowContext(ctx, linkSelectQuery+" WHERE token = $1", token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment link: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &l, nil
}

// FindActiveForInvoice returns the PENDING link with the latest expiry that is still valid at now.
func (r *LinkRepository) FindActiveForInvoice(ctx context.Context, invoiceID string, now time.Time) (*models.PaymentLink, error) {
	l, err := scanLink(r.q.QueryRowContext(ctx, linkSelectQuery+` WHERE invoice_id = $1 AND status = $2 AND expires_at > $3
		ORDER BY expires_at DESC LIMIT 1`, invoiceID, models.LinkPending, now.UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active payment link: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &l, nil
}

func (r *LinkRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]models.PaymentLink, error) {
	return r.list(ctx, linkSelectQuery+" WHERE invoice_id = $1 ORDER BY created_at DESC", invoiceID)
}

// FindExpiredPending returns PENDING links whose expiry lies before now.
func (r *LinkRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]models.PaymentLink, error) {
	return r.list(ctx, linkSelectQuery+" WHERE status = $1 AND expires_at < $2 ORDER BY expires_at",
		models.LinkPending, now.UTC())
}

func (r *LinkRepository) list(ctx context.Context, query string, args ...any) ([]models.PaymentLink, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	links := []models.PaymentLink{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return links, nil
}

func (r *LinkRepository) CountByInvoice(ctx context.Context, invoiceID string) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_links WHERE invoice_id = $1`, invoiceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Transition moves a PENDING link to PAID or EXPIRED. It reports false when the
// link was no longer PENDING, i.e. another writer won the race.
func (r *LinkRepository) Transition(ctx context.Context, token string, to models.LinkStatus, at time.Time, paymentRef string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	switch to {
	case models.LinkPaid:
		var ref *string
		if paymentRef != "" {
			ref = &paymentRef
		}
		res, err = r.q.ExecContext(ctx, `UPDATE payment_links SET status = $1, paid_at = $2, provider_payment_ref = $3, updated_at = $2
			WHERE token = $4 AND status = $5`, to, at.UTC(), ref, token, models.LinkPending)
	case models.LinkExpired:
		res, err = r.q.ExecContext(ctx, `UPDATE payment_links SET status = $1, updated_at = $2
			WHERE token = $3 AND status = $4`, to, at.UTC(), token, models.LinkPending)
	default:
		return false, fmt.Errorf("illegal link transition to %s", to)
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

// SetSession records the provider checkout session on a PENDING link.
func (r *LinkRepository) SetSession(ctx context.Context, token, provider, sessionID string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE payment_links SET provider = $1, provider_session_id = $2, updated_at = $3
		WHERE token = $4 AND status = $5`, provider, sessionID, at.UTC(), token, models.LinkPending)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending payment link: %w", models.ErrNotFound)
	}
	return nil
}
