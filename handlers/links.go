package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// maxWebhookBody caps webhook payloads read into memory.
const maxWebhookBody = 1 << 20

// IssueLink issues a payment link for an invoice
// @Summary      Issue payment link
// @Description  Mints a single-use link for the invoice's current total, valid for the configured TTL.
// @Description  With reuse=true an existing payable link is returned instead.
// @Tags         links
// @Produce      json
// @Param        invoiceId  path      string  true   "Invoice ID"
// @Param        reuse      query     bool    false  "Return the current payable link if there is one"
// @Success      201        {object}  Response{data=models.IssuedLink}
// @Success      200        {object}  Response{data=models.IssuedLink}
// @Failure      404        {object}  Response{error=string}
// @Failure      409        {object}  Response{error=string}
// @Router       /links/{invoiceId} [post]
// @Security     BasicAuth
func (h *Handler) IssueLink(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceId")
	reuse, _ := strconv.ParseBool(r.URL.Query().Get("reuse"))

	issue := h.issuer.Issue
	if reuse {
		issue = h.issuer.IssueOrReuse
	}
	link, err := issue(r.Context(), invoiceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if link.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, link)
}

// SweepLinks expires stale payment links now
// @Summary      Sweep expired links
// @Description  Runs the expiry sweep once, outside its schedule.
// @Tags         links
// @Produce      json
// @Success      200  {object}  Response{data=jobs.SweepResult}
// @Router       /links/sweep [post]
// @Security     BasicAuth
func (h *Handler) SweepLinks(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// InspectLink backs the public pay page
// @Summary      Inspect payment link
// @Description  Validates a link and returns what the payer is about to pay.
// @Tags         pay
// @Produce      json
// @Param        token  path      string  true  "Link token"
// @Success      200    {object}  Response{data=models.LinkView}
// @Failure      400    {object}  Response{error=string}
// @Failure      410    {object}  Response{error=string}
// @Router       /pay/{token} [get]
func (h *Handler) InspectLink(w http.ResponseWriter, r *http.Request) {
	view, err := h.reconciler.Inspect(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateCheckout opens a hosted checkout session
// @Summary      Start checkout
// @Description  Opens a processor checkout session for the link's amount and returns the redirect URL.
// @Tags         pay
// @Produce      json
// @Param        token  path      string  true  "Link token"
// @Success      200    {object}  Response{data=map[string]string}
// @Failure      400    {object}  Response{error=string}
// @Failure      410    {object}  Response{error=string}
// @Failure      502    {object}  Response{error=string}
// @Router       /checkout/{token} [post]
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	url, err := h.bridge.CreateCheckoutSession(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ConfirmPayment settles a link after the payer returns from checkout
// @Summary      Confirm payment
// @Description  Checks the checkout session with the processor and marks the invoice paid.
// @Tags         pay
// @Produce      json
// @Param        token  path      string  true  "Link token"
// @Success      200    {object}  Response{data=models.Invoice}
// @Failure      400    {object}  Response{error=string}
// @Failure      409    {object}  Response{error=string}
// @Failure      410    {object}  Response{error=string}
// @Router       /confirm/{token} [post]
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	inv, err := h.reconciler.Confirm(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Webhook receives processor notifications
// @Summary      Payment webhook
// @Description  Signature-verified processor events. Anything but a bad signature or an internal
// @Description  failure is acknowledged with 200 so the processor stops retrying.
// @Tags         pay
// @Accept       json
// @Produce      json
// @Param        provider  path      string  true  "Processor name (stripe, razorpay, paypal)"
// @Success      200       {object}  Response{data=payments.WebhookResult}
// @Failure      400       {object}  Response{error=string}
// @Router       /webhooks/{provider} [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	res, err := h.reconciler.HandleWebhook(r.Context(), chi.URLParam(r, "provider"), payload, signatureHeader(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func signatureHeader(r *http.Request) string {
	for _, name := range []string{"Stripe-Signature", "X-Razorpay-Signature", "Paypal-Transmission-Sig"} {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return ""
}
