package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/satheeshds/invoicing/models"
)

// GetInvoicePDF streams the rendered invoice
// @Summary      Download invoice PDF
// @Tags         invoices
// @Produce      application/pdf
// @Param        id   path  string  true  "Invoice ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/pdf [get]
// @Security     BasicAuth
func (h *Handler) GetInvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, pdf, err := h.documents.RenderPDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.InvoiceNumber+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

type sendInput struct {
	To string `json:"to"`
}

// SendInvoice mails the invoice with a payment link
// @Summary      Send invoice
// @Description  Issues (or reuses) a payment link, renders the PDF and mails both to the client.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id    path      string     true   "Invoice ID"
// @Param        body  body      sendInput  false  "Override recipient"
// @Success      200   {object}  Response{data=documents.Delivery}
// @Failure      404   {object}  Response{error=string}
// @Failure      409   {object}  Response{error=string}
// @Router       /invoices/{id}/send [post]
// @Security     BasicAuth
func (h *Handler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	var in sendInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &in) {
		return
	}
	if in.To != "" {
		c := models.ClientInput{Name: "recipient", Email: in.To}
		if msg := c.Validate(); msg != "" {
			writeError(w, http.StatusBadRequest, "to: "+msg)
			return
		}
		in.To = c.Email
	}

	d, err := h.documents.Send(r.Context(), chi.URLParam(r, "id"), in.To)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
