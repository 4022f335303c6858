package models

import "time"

// LinkStatus is the state of a payment link. PAID and EXPIRED are terminal.
type LinkStatus string

const (
	LinkPending LinkStatus = "PENDING"
	LinkPaid    LinkStatus = "PAID"
	LinkExpired LinkStatus = "EXPIRED"
)

func (s LinkStatus) Terminal() bool { return s == LinkPaid || s == LinkExpired }

// PaymentLink is a single-use, time-boxed token that gates checkout for one invoice.
// Amount is a snapshot of the invoice total taken when the link was issued.
type PaymentLink struct {
	Token              string     `json:"token"`
	InvoiceID          string     `json:"invoice_id"`
	Amount             Money      `json:"amount"`
	Currency           string     `json:"currency"`
	Status             LinkStatus `json:"status"`
	ExpiresAt          time.Time  `json:"expires_at"`
	Provider           *string    `json:"provider"`
	ProviderSessionID  *string    `json:"provider_session_id"`
	ProviderPaymentRef *string    `json:"provider_payment_ref"`
	PaidAt             *time.Time `json:"paid_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ExpiredAt reports whether the link's expiry lies before now.
func (l *PaymentLink) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// IssuedLink is what the issuer hands back to the caller.
type IssuedLink struct {
	Token     string    `json:"token"`
	PayURL    string    `json:"pay_url"`
	InvoiceID string    `json:"invoice_id"`
	Amount    Money     `json:"amount"`
	Currency  string    `json:"currency"`
	ExpiresAt time.Time `json:"expires_at"`
	Reused    bool      `json:"reused"`
}

// LinkView is the public summary shown on the pay page.
type LinkView struct {
	Token         string        `json:"token"`
	InvoiceID     string        `json:"invoice_id"`
	InvoiceNumber string        `json:"invoice_number"`
	ClientName    *string       `json:"client_name,omitempty"`
	Amount        Money         `json:"amount"`
	Currency      string        `json:"currency"`
	DueDate       *time.Time    `json:"due_date"`
	InvoiceStatus InvoiceStatus `json:"invoice_status"`
	ExpiresAt     time.Time     `json:"expires_at"`
}
