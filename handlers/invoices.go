package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// ListInvoices lists invoices
// @Summary      List invoices
// @Description  Invoice headers, newest first. Line items are returned by the single-invoice endpoint.
// @Tags         invoices
// @Produce      json
// @Param        status     query     string  false  "Filter by status (draft/sent/pending/paid/overdue)"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        search     query     string  false  "Search by invoice number, notes, or client name"
// @Success      200        {object}  Response{data=[]models.Invoice}
// @Router       /invoices [get]
// @Security     BasicAuth
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.InvoiceFilter{
		Status:   models.InvoiceStatus(q.Get("status")),
		ClientID: q.Get("client_id"),
		Search:   q.Get("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	invoices, err := h.store.Invoices.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice retrieves a single invoice by ID
// @Summary      Get invoice
// @Description  Get an invoice with its line items.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [get]
// @Security     BasicAuth
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.store.Invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// CreateInvoice creates a new invoice
// @Summary      Create invoice
// @Description  Totals are computed from the line items. The number is generated when omitted.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        invoice  body      models.InvoiceInput  true  "Invoice contents"
// @Success      201      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /invoices [post]
// @Security     BasicAuth
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	inv := &models.Invoice{Currency: h.currency}
	if err := input.Apply(inv); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.store.WithTx(r.Context(), func(ctx context.Context, repos *store.Repos) error {
		if err := clientExists(ctx, repos, inv.ClientID); err != nil {
			return err
		}
		return repos.Invoices.Create(ctx, inv)
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	created, err := h.store.Invoices.Get(r.Context(), inv.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.Info("invoice created", "invoice_id", created.ID, "number", created.InvoiceNumber, "total", created.TotalAmount.String())
	writeJSON(w, http.StatusCreated, created)
}

// UpdateInvoice updates an existing invoice
// @Summary      Update invoice
// @Description  Replaces the invoice contents and recomputes totals. Paid invoices cannot be edited.
// @Description  Without a status the current one is kept.
// @Description  Links already issued keep the amount they were issued with.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Invoice ID"
// @Param        invoice  body      models.InvoiceInput  true  "Updated invoice contents"
// @Success      200      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /invoices/{id} [put]
// @Security     BasicAuth
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var input models.InvoiceInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	err := h.store.WithTx(r.Context(), func(ctx context.Context, repos *store.Repos) error {
		// Held until commit so a payment settling meanwhile is not overwritten.
		if err := repos.Invoices.Lock(ctx, id); err != nil {
			return err
		}
		inv, err := repos.Invoices.Get(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status.IsPaid() {
			return models.ErrAlreadyPaid
		}
		if err := clientExists(ctx, repos, input.ClientID); err != nil {
			return err
		}
		if err := input.Apply(inv); err != nil {
			return models.Validation(err.Error())
		}
		return repos.Invoices.Update(ctx, inv)
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	inv, err := h.store.Invoices.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DeleteInvoice deletes an invoice
// @Summary      Delete invoice
// @Description  Only unpaid invoices without payment links can be deleted.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Failure      409  {object}  Response{error=string}
// @Router       /invoices/{id} [delete]
// @Security     BasicAuth
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.store.WithTx(r.Context(), func(ctx context.Context, repos *store.Repos) error {
		inv, err := repos.Invoices.Get(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status.IsPaid() {
			return models.ErrAlreadyPaid
		}
		n, err := repos.Links.CountByInvoice(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: invoice has %d payment link(s)", models.ErrConflict, n)
		}
		return repos.Invoices.Delete(ctx, id)
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// GetInvoiceLinks lists the payment links issued for an invoice
// @Summary      Get invoice links
// @Description  Every payment link ever issued for the invoice, newest first.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=[]models.PaymentLink}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/links [get]
// @Security     BasicAuth
func (h *Handler) GetInvoiceLinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Invoices.Get(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	links, err := h.store.Links.ListByInvoice(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if links == nil {
		links = []models.PaymentLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

// RunRecurring generates this cycle's copies of recurring invoices
// @Summary      Run recurring invoices
// @Description  Clones every recurring invoice into a new draft. Returns the new invoice IDs.
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  Response{data=[]string}
// @Router       /invoices/recurring/run [post]
// @Security     BasicAuth
func (h *Handler) RunRecurring(w http.ResponseWriter, r *http.Request) {
	ids, err := h.recurring.Run(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func clientExists(ctx context.Context, repos *store.Repos, id string) error {
	_, err := repos.Clients.Get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Validation("client_id does not reference an active client")
	}
	return err
}
