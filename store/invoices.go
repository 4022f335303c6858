package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/models"
)

const invoiceSelectQuery = `SELECT i.id, i.invoice_number, i.client_id, i.subtotal, i.tax, i.total_amount,
	i.currency, i.due_date, i.status, i.is_recurring, i.file_url, i.notes, i.created_at, i.updated_at,
	c.name
	FROM invoices i
	LEFT JOIN clients c ON i.client_id = c.id`

func scanInvoice(scanner interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	err := scanner.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.Subtotal, &inv.Tax, &inv.TotalAmount,
		&inv.Currency, &inv.DueDate, &inv.Status, &inv.Recurring, &inv.FileURL, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.ClientName)
	inv.DueDate = utcPtr(inv.DueDate)
	inv.CreatedAt = utc(inv.CreatedAt)
	inv.UpdatedAt = utc(inv.UpdatedAt)
	return inv, err
}

type InvoiceRepository struct {
	q db.DBTX
}

// Create inserts the invoice and its line items. Totals must already be computed.
// An empty ID is generated; CreatedAt/UpdatedAt default to now.
// Run it inside Store.WithTx so the items land atomically.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now()
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = inv.CreatedAt
	}
	if inv.InvoiceNumber != "" {
		if _, err := r.insert(ctx, inv, false); err != nil {
			return err
		}
		return r.insertItems(ctx, inv.ID, inv.Items)
	}

	// A concurrent writer may take the number between NextNumber and the insert.
	for attempt := 1; ; attempt++ {
		number, err := r.NextNumber(ctx, inv.CreatedAt)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		inserted, err := r.insert(ctx, inv, true)
		if err != nil {
			return err
		}
		if inserted {
			break
		}
		if attempt == maxNumberAttempts {
			return fmt.Errorf("%w: invoice number %s already exists", models.ErrConflict, number)
		}
	}
	return r.insertItems(ctx, inv.ID, inv.Items)
}

const maxNumberAttempts = 5

// insert writes the invoice row. With skipTaken a number collision is
// reported as inserted=false instead of an error.
func (r *InvoiceRepository) insert(ctx context.Context, inv *models.Invoice, skipTaken bool) (bool, error) {
	query := `INSERT INTO invoices (id, invoice_number, client_id, subtotal, tax, total_amount,
		currency, due_date, status, is_recurring, file_url, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if skipTaken {
		query += " ON CONFLICT (invoice_number) DO NOTHING"
	}
	res, err := r.q.ExecContext(ctx, query,
		inv.ID, inv.InvoiceNumber, inv.ClientID, inv.Subtotal, inv.Tax, inv.TotalAmount,
		inv.Currency, utcArg(inv.DueDate), inv.Status, inv.Recurring, inv.FileURL, inv.Notes,
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return false, fmt.Errorf("%w: invoice number %s already exists", models.ErrConflict, inv.InvoiceNumber)
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *InvoiceRepository) insertItems(ctx context.Context, invoiceID string, items []models.LineItem) error {
	for i, it := range items {
		_, err := r.q.ExecContext(ctx, `INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			invoiceID, i, it.Description, it.Quantity, it.UnitPrice, it.Amount)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *InvoiceRepository) items(ctx context.Context, invoiceID string) ([]models.LineItem, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT description, quantity, unit_price, amount
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		var it models.LineItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get returns the invoice with its line items.
func (r *InvoiceRepository) Get(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRowContext(ctx, invoiceSelectQuery+" WHERE i.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if inv.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns invoice headers (without line items), newest first.
func (r *InvoiceRepository) List(ctx context.Context, f models.InvoiceFilter) ([]models.Invoice, error) {
	query := invoiceSelectQuery
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conditions = append(conditions, "i.status = "+arg(f.Status))
	}
	if f.ClientID != "" {
		conditions = append(conditions, "i.client_id = "+arg(f.ClientID))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + strings.ToLower(s) + "%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(i.invoice_number) LIKE %s OR LOWER(COALESCE(i.notes, '')) LIKE %s OR LOWER(COALESCE(c.name, '')) LIKE %s)", p, p, p))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.created_at DESC, i.invoice_number DESC"

	return r.query(ctx, query, args...)
}

func (r *InvoiceRepository) query(ctx context.Context, query string, args ...any) ([]models.Invoice, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return invoices, nil
}

// ListRecurring returns every invoice flagged recurring, with line items.
func (r *InvoiceRepository) ListRecurring(ctx context.Context) ([]models.Invoice, error) {
	invoices, err := r.query(ctx, invoiceSelectQuery+" WHERE i.is_recurring = $1 ORDER BY i.created_at", true)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].Items, err = r.items(ctx, invoices[i].ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// Update rewrites the editable fields and replaces the line items.
// Run it inside Store.WithTx.
func (r *InvoiceRepository) Update(ctx context.Context, inv *models.Invoice) error {
	inv.UpdatedAt = now()
	res, err := r.q.ExecContext(ctx, `UPDATE invoices SET invoice_number = $1, client_id = $2, subtotal = $3, tax = $4,
		total_amount = $5, currency = $6, due_date = $7, status = $8, is_recurring = $9, notes = $10, updated_at = $11
		WHERE id = $12`,
		inv.InvoiceNumber, inv.ClientID, inv.Subtotal, inv.Tax, inv.TotalAmount, inv.Currency,
		utcArg(inv.DueDate), inv.Status, inv.Recurring, inv.Notes, inv.UpdatedAt, inv.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: invoice number %s already exists", models.ErrConflict, inv.InvoiceNumber)
		}
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %s: %w", inv.ID, models.ErrNotFound)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.insertItems(ctx, inv.ID, inv.Items)
}

func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Lock takes the invoice's row lock until the transaction ends, so reads that
// follow see any status change a concurrent transaction committed first.
// Run it inside Store.WithTx.
func (r *InvoiceRepository) Lock(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE invoices SET updated_at = updated_at WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// SetStatus unconditionally sets the invoice status.
func (r *InvoiceRepository) SetStatus(ctx context.Context, id string, status models.InvoiceStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3`, status, now(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// TransitionStatus sets the status only if the current one is among from.
// It reports whether a row changed.
func (r *InvoiceRepository) TransitionStatus(ctx context.Context, id string, to models.InvoiceStatus, from ...models.InvoiceStatus) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("transition requires at least one source status")
	}
	args := []any{to, now(), id}
	placeholders := make([]string, len(from))
	for i, s := range from {
		args = append(args, s)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	res, err := r.q.ExecContext(ctx, `UPDATE invoices SET status = $1, updated_at = $2
		WHERE id = $3 AND status IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *InvoiceRepository) SetFileURL(ctx context.Context, id, url string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE invoices SET file_url = $1, updated_at = $2 WHERE id = $3`, url, now(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return nil
}

var generatedNumber = regexp.MustCompile(`^INV-\d{4}-(\d{4,})$`)

// NextNumber returns the number after the highest generated one for the year
// of at, e.g. INV-2026-0007. Gaps left by deleted invoices are not reused and
// custom or recurring numbers sharing the prefix are ignored.
func (r *InvoiceRepository) NextNumber(ctx context.Context, at time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", at.Year())
	rows, err := r.q.QueryContext(ctx, `SELECT invoice_number FROM invoices WHERE invoice_number LIKE $1`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	highest := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}
		m := generatedNumber.FindStringSubmatch(number)
		if m == nil || !strings.HasPrefix(number, prefix) {
			continue
		}
		if v, err := strconv.Atoi(m[1]); err == nil && v > highest {
			highest = v
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1), nil
}
