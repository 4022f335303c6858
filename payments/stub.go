package payments

import (
	"context"
	"fmt"

	"github.com/satheeshds/invoicing/models"
)

// Unavailable stands in for a processor whose integration is not wired yet
// (Razorpay, PayPal). Every call reports the provider as unavailable.
type Unavailable struct {
	name string
}

func NewUnavailable(name string) *Unavailable {
	return &Unavailable{name: name}
}

func (u *Unavailable) Name() string { return u.name }

func (u *Unavailable) CreateHostedSession(context.Context, SessionRequest) (*Session, error) {
	return nil, fmt.Errorf("%w: %s checkout is not configured", models.ErrProviderUnavailable, u.name)
}

func (u *Unavailable) VerifyWebhook([]byte, string) (*Event, error) {
	return nil, fmt.Errorf("%w: %s webhooks cannot be verified", models.ErrSignatureInvalid, u.name)
}

func (u *Unavailable) SessionStatus(context.Context, string) (PaymentState, string, error) {
	return "", "", fmt.Errorf("%w: %s is not configured", models.ErrProviderUnavailable, u.name)
}
