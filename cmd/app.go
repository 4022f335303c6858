package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/satheeshds/invoicing/config"
	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/documents"
	"github.com/satheeshds/invoicing/handlers"
	"github.com/satheeshds/invoicing/jobs"
	"github.com/satheeshds/invoicing/payments"
	"github.com/satheeshds/invoicing/store"
)

// app holds the wired services shared by the subcommands.
type app struct {
	db        *sql.DB
	store     *store.Store
	issuer    *payments.Issuer
	bridge    *payments.Bridge
	reconcile *payments.Reconciler
	sweeper   *jobs.Sweeper
	recurring *jobs.Recurring
	documents *documents.Service
	logger    *slog.Logger
}

// openDB opens and migrates the configured database.
func openDB(ctx context.Context, c *config.Config) (*sql.DB, error) {
	database, err := db.Open(c.DBDriver, c.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database, c.DBDriver); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	logger := slog.Default()

	database, err := openDB(ctx, c)
	if err != nil {
		return nil, err
	}
	s := store.New(database)

	processor, err := newProcessor(c)
	if err != nil {
		database.Close()
		return nil, err
	}
	registry := payments.NewRegistry(processor)

	var mailer documents.Mailer = documents.NewLogMailer(logger)
	if c.MailEnabled() {
		mailer = documents.NewSMTPMailer(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPass)
	}

	var archive documents.Archive
	if c.ArchiveEnabled() {
		a, err := documents.NewS3Archive(ctx, documents.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			database.Close()
			return nil, err
		}
		archive = a
	}

	issuer := payments.NewIssuer(s, c.FrontendURL, c.LinkTTL, logger)
	return &app{
		db:        database,
		store:     s,
		issuer:    issuer,
		bridge:    payments.NewBridge(s, processor, c.FrontendURL, c.ProviderTimeout, logger),
		reconcile: payments.NewReconciler(s, registry, c.ProviderTimeout, logger),
		sweeper:   jobs.NewSweeper(s, logger),
		recurring: jobs.NewRecurring(s, logger),
		documents: documents.NewService(s, issuer, documents.NewPDFRenderer(""), mailer, archive, c.MailFrom, logger),
		logger:    logger,
	}, nil
}

// newProcessor builds the configured payment processor. Only Stripe has a
// live integration; the others are registered so their links fail cleanly.
func newProcessor(c *config.Config) (payments.Processor, error) {
	switch c.PaymentProvider {
	case "stripe":
		if c.StripeSecretKey == "" {
			slog.Warn("STRIPE_SECRET_KEY not set, checkout sessions will fail")
		}
		if c.StripeWebhookSecret == "" {
			slog.Warn("STRIPE_WEBHOOK_SECRET not set, every webhook will be rejected")
		}
		return payments.NewStripe(c.StripeSecretKey, c.StripeWebhookSecret), nil
	case "razorpay", "paypal":
		slog.Warn("payment provider has no live integration", "provider", c.PaymentProvider)
		return payments.NewUnavailable(c.PaymentProvider), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", c.PaymentProvider)
	}
}

func (a *app) handler() *handlers.Handler {
	return handlers.New(handlers.Services{
		Store:      a.store,
		Issuer:     a.issuer,
		Bridge:     a.bridge,
		Reconciler: a.reconcile,
		Sweeper:    a.sweeper,
		Recurring:  a.recurring,
		Documents:  a.documents,
		Currency:   cfg.Currency,
	}, a.logger)
}

func (a *app) Close() error {
	return a.db.Close()
}
