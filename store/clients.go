package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/models"
)

const clientSelectQuery = `SELECT id, name, email, company, phone, gst_number, pan_number,
	address, state, country, is_deleted, created_at, updated_at
	FROM clients`

func scanClient(scanner interface{ Scan(...any) error }) (models.Client, error) {
	var c models.Client
	err := scanner.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.Phone, &c.GSTNumber, &c.PANNumber,
		&c.Address, &c.State, &c.Country, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
	return c, err
}

// ClientFilter narrows a client listing. Page is 1-based.
type ClientFilter struct {
	Search string
	Page   int
	Limit  int
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func (f *ClientFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
}

type ClientRepository struct {
	q db.DBTX
}

// Create inserts a client. A duplicate email yields models.ErrConflict.
func (r *ClientRepository) Create(ctx context.Context, in models.ClientInput) (*models.Client, error) {
	id := uuid.NewString()
	ts := now()
	_, err := r.q.ExecContext(ctx, `INSERT INTO clients (id, name, email, company, phone, gst_number, pan_number,
		address, state, country, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		id, in.Name, in.Email, in.Company, in.Phone, in.GSTNumber, in.PANNumber,
		in.Address, in.State, in.Country, false, ts)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: client with email %s already exists", models.ErrConflict, in.Email)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.Get(ctx, id)
}

// Get returns an active client. Soft-deleted clients are reported as not found.
func (r *ClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	c, err := scanClient(r.q.QueryRowContext(ctx, clientSelectQuery+" WHERE id = $1 AND is_deleted = $2", id, false))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

// List returns one page of active clients and the total number of matches.
func (r *ClientRepository) List(ctx context.Context, f ClientFilter) (*models.ClientPage, error) {
	f.normalize()

	where := " WHERE is_deleted = $1"
	args := []any{false}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += " AND (LOWER(name) LIKE $2 OR LOWER(email) LIKE $2 OR LOWER(COALESCE(company, '')) LIKE $2)"
		args = append(args, "%"+strings.ToLower(s)+"%")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	n := len(args)
	query := clientSelectQuery + where + fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &models.ClientPage{Clients: clients, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (r *ClientRepository) Update(ctx context.Context, id string, in models.ClientInput) (*models.Client, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE clients SET name = $1, email = $2, company = $3, phone = $4,
		gst_number = $5, pan_number = $6, address = $7, state = $8, country = $9, updated_at = $10
		WHERE id = $11 AND is_deleted = $12`,
		in.Name, in.Email, in.Company, in.Phone, in.GSTNumber, in.PANNumber,
		in.Address, in.State, in.Country, now(), id, false)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: client with email %s already exists", models.ErrConflict, in.Email)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// SoftDelete flags the client as deleted; the row and its invoices remain.
func (r *ClientRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE clients SET is_deleted = $1, updated_at = $2 WHERE id = $3 AND is_deleted = $4`,
		true, now(), id, false)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	return nil
}
