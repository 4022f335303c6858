package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/satheeshds/invoicing/documents"
	"github.com/satheeshds/invoicing/jobs"
	"github.com/satheeshds/invoicing/payments"
	"github.com/satheeshds/invoicing/store"
)

// Handler serves the HTTP API over the store and the payment services.
type Handler struct {
	store      *store.Store
	issuer     *payments.Issuer
	bridge     *payments.Bridge
	reconciler *payments.Reconciler
	sweeper    *jobs.Sweeper
	recurring  *jobs.Recurring
	documents  *documents.Service
	currency   string
	logger     *slog.Logger
}

// Services bundles what the handlers depend on.
type Services struct {
	Store      *store.Store
	Issuer     *payments.Issuer
	Bridge     *payments.Bridge
	Reconciler *payments.Reconciler
	Sweeper    *jobs.Sweeper
	Recurring  *jobs.Recurring
	Documents  *documents.Service
	// Currency is applied to invoices created without one.
	Currency string
}

func New(s Services, logger *slog.Logger) *Handler {
	return &Handler{
		store:      s.Store,
		issuer:     s.Issuer,
		bridge:     s.Bridge,
		reconciler: s.Reconciler,
		sweeper:    s.Sweeper,
		recurring:  s.Recurring,
		documents:  s.Documents,
		currency:   s.Currency,
		logger:     logger.With("component", "http"),
	}
}

// NewRouter wires every route. Admin routes sit behind AdminAuth; the pay,
// checkout and confirm routes are public and webhooks authenticate by signature.
func NewRouter(h *Handler, authCfg AuthConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public payer-facing routes
		r.Get("/pay/{token}", h.InspectLink)
		r.Post("/checkout/{token}", h.CreateCheckout)
		r.Post("/confirm/{token}", h.ConfirmPayment)
		r.Post("/webhooks/{provider}", h.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(authCfg, h.logger))

			// Clients
			r.Get("/clients", h.ListClients)
			r.Post("/clients", h.CreateClient)
			r.Get("/clients/{id}", h.GetClient)
			r.Put("/clients/{id}", h.UpdateClient)
			r.Delete("/clients/{id}", h.DeleteClient)

			// Invoices
			r.Get("/invoices", h.ListInvoices)
			r.Post("/invoices", h.CreateInvoice)
			r.Post("/invoices/recurring/run", h.RunRecurring)
			r.Get("/invoices/{id}", h.GetInvoice)
			r.Put("/invoices/{id}", h.UpdateInvoice)
			r.Delete("/invoices/{id}", h.DeleteInvoice)
			r.Get("/invoices/{id}/links", h.GetInvoiceLinks)
			r.Get("/invoices/{id}/pdf", h.GetInvoicePDF)
			r.Post("/invoices/{id}/send", h.SendInvoice)

			// Payment links
			r.Post("/links/sweep", h.SweepLinks)
			r.Post("/links/{invoiceId}", h.IssueLink)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// Health reports liveness and database reachability.
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"status":    "OK",
		"service":   "invoicing",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		body["status"] = "DEGRADED"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
