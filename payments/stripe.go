package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/satheeshds/invoicing/models"
)

const (
	eventCheckoutCompleted    = "checkout.session.completed"
	eventCheckoutAsyncSuccess = "checkout.session.async_payment_succeeded"
	eventCheckoutAsyncFailed  = "checkout.session.async_payment_failed"
)

// checkoutSessions is the slice of the Stripe client used here; *session.Client satisfies it.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Stripe opens Stripe Checkout sessions and verifies Stripe webhooks.
type Stripe struct {
	sessions      checkoutSessions
	webhookSecret string
}

// NewStripe builds a processor around its own API client; no package-level key is set.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{sessions: sc.CheckoutSessions, webhookSecret: webhookSecret}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateHostedSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.Token),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(int64(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("token", req.Token)

	cs, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating stripe checkout session: %w", err)
	}
	return &Session{ID: cs.ID, URL: cs.URL}, nil
}

func (s *Stripe) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
	}

	ev := &Event{ID: event.ID, Type: string(event.Type), State: PaymentPending}
	switch ev.Type {
	case eventCheckoutCompleted, eventCheckoutAsyncSuccess, eventCheckoutAsyncFailed:
	default:
		return ev, nil
	}
	if event.Data == nil {
		return ev, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("decoding checkout session: %w", err)
	}
	ev.SessionID = cs.ID
	ev.Token = cs.Metadata["token"]
	if ev.Token == "" {
		ev.Token = cs.ClientReferenceID
	}
	ev.PaymentRef = paymentRef(&cs)
	if ev.Type == eventCheckoutAsyncFailed {
		ev.State = PaymentFailed
	} else {
		ev.State = NormalizeProviderStatus(string(cs.PaymentStatus))
	}
	return ev, nil
}

func (s *Stripe) SessionStatus(ctx context.Context, sessionID string) (PaymentState, string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := s.sessions.Get(sessionID, params)
	if err != nil {
		return "", "", fmt.Errorf("fetching stripe checkout session: %w", err)
	}
	return NormalizeProviderStatus(string(cs.PaymentStatus)), paymentRef(cs), nil
}

func paymentRef(cs *stripe.CheckoutSession) string {
	if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
		return cs.PaymentIntent.ID
	}
	return cs.ID
}
