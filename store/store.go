// Package store holds the SQL repositories for clients, invoices and payment
// links. Repositories are bound to a db.DBTX so the same code runs against the
// pool or inside a transaction.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/satheeshds/invoicing/db"
)

// Repos groups the repositories bound to one handle.
type Repos struct {
	Clients  *ClientRepository
	Invoices *InvoiceRepository
	Links    *LinkRepository
}

func newRepos(q db.DBTX) *Repos {
	return &Repos{
		Clients:  &ClientRepository{q: q},
		Invoices: &InvoiceRepository{q: q},
		Links:    &LinkRepository{q: q},
	}
}

// Store hands out repositories bound to the connection pool and runs
// transactional units of work.
type Store struct {
	*Repos
	db *sql.DB
}

func New(database *sql.DB) *Store {
	return &Store{Repos: newRepos(database), db: database}
}

// WithTx runs fn with repositories bound to a single transaction.
// Inside fn only the given Repos may be used.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error {
	return db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, newRepos(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func now() time.Time {
	return time.Now().UTC()
}

// utc normalises a scanned timestamp; sqlite may hand back a fixed zone.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func utcArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
