// Package payments implements the payment-link lifecycle: issuing links,
// opening hosted checkout sessions at a processor, and reconciling processor
// confirmations back into link and invoice state.
package payments

import (
	"context"
	"strings"

	"github.com/satheeshds/invoicing/models"
)

// SessionRequest describes a hosted checkout session to open at a processor.
type SessionRequest struct {
	Token       string
	Amount      models.Money
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Session is a created hosted checkout session.
type Session struct {
	ID  string
	URL string
}

// Event is a verified processor webhook, reduced to what reconciliation needs.
type Event struct {
	ID         string
	Type       string
	Token      string
	SessionID  string
	PaymentRef string
	State      PaymentState
}

// Completed reports whether the event confirms a finished payment for a link.
func (e *Event) Completed() bool {
	return e.State == PaymentPaid && e.Token != ""
}

// Processor is a third-party payment processor.
type Processor interface {
	Name() string
	CreateHostedSession(ctx context.Context, req SessionRequest) (*Session, error)
	// VerifyWebhook checks the signature before decoding; failures wrap models.ErrSignatureInvalid.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
	// SessionStatus asks the processor for the payment state of a session and its payment reference.
	SessionStatus(ctx context.Context, sessionID string) (PaymentState, string, error)
}

// PaymentState is the provider-agnostic state of a checkout payment.
type PaymentState string

const (
	PaymentPaid    PaymentState = "paid"
	PaymentPending PaymentState = "pending"
	PaymentFailed  PaymentState = "failed"
)

// NormalizeProviderStatus maps a processor's payment status vocabulary onto PaymentState.
// Unknown values are treated as pending.
func NormalizeProviderStatus(raw string) PaymentState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "no_payment_required", "succeeded", "captured", "completed":
		return PaymentPaid
	case "failed", "canceled", "cancelled", "expired", "voided", "denied", "declined":
		return PaymentFailed
	default:
		return PaymentPending
	}
}

// Registry looks processors up by name.
type Registry map[string]Processor

func NewRegistry(processors ...Processor) Registry {
	r := make(Registry, len(processors))
	for _, p := range processors {
		r[p.Name()] = p
	}
	return r
}
