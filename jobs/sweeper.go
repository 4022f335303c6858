// Package jobs holds the periodic background work: expiring stale payment
// links and cloning recurring invoices.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// SweepResult counts what one sweep did.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sweeper expires PENDING links whose expiry has passed. Each link is its own
// compare-and-swap, so a link paid in the meantime is left alone.
type Sweeper struct {
	store  *store.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewSweeper(s *store.Store, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:  s,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("component", "sweeper"),
	}
}

func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	links, err := s.store.Links.FindExpiredPending(ctx, now)
	if err != nil {
		return res, fmt.Errorf("finding expired links: %w", err)
	}
	res.Scanned = len(links)

	for _, l := range links {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ok, err := s.store.Links.Transition(ctx, l.Token, models.LinkExpired, now, "")
		if err != nil {
			s.logger.Error("expiring link failed", "invoice_id", l.InvoiceID, "error", err)
			res.Failed++
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Expired++
	}

	if res.Scanned > 0 {
		s.logger.Info("sweep complete", "scanned", res.Scanned, "expired", res.Expired, "skipped", res.Skipped, "failed", res.Failed)
	}
	return res, nil
}
