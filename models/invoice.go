package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePending, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

func (s InvoiceStatus) IsPaid() bool { return s == InvoicePaid }

// LineItem is one billed line. Amount is UnitPrice*Quantity rounded to minor units.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   Money           `json:"unit_price"`
	Amount      Money           `json:"amount"`
}

// Invoice represents a receivable invoice to a client.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	ClientID      string        `json:"client_id"`
	Items         []LineItem    `json:"items,omitempty"`
	Subtotal      Money         `json:"subtotal"`
	Tax           Money         `json:"tax"`
	TotalAmount   Money         `json:"total_amount"`
	Currency      string        `json:"currency"`
	DueDate       *time.Time    `json:"due_date"`
	Status        InvoiceStatus `json:"status"`
	Recurring     bool          `json:"recurring"`
	FileURL       *string       `json:"file_url"`
	Notes         *string       `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	// Computed fields
	ClientName *string `json:"client_name,omitempty"`
}

// LineItemInput is a line item as submitted by the caller.
type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   Money           `json:"unit_price"`
}

// InvoiceInput is used for creating/updating invoices.
type InvoiceInput struct {
	ClientID      string          `json:"client_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Items         []LineItemInput `json:"items"`
	Tax           Money           `json:"tax"`
	Currency      string          `json:"currency"`
	DueDate       *time.Time      `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
	Recurring     bool            `json:"recurring"`
	Notes         *string         `json:"notes"`
}

// maxQuantity bounds a single line's quantity.
var maxQuantity = decimal.NewFromInt(1_000_000_000)

// Validate checks the input without changing it. An empty status is allowed:
// Apply defaults it to draft on create and keeps the current one on update.
func (i *InvoiceInput) Validate() string {
	if strings.TrimSpace(i.ClientID) == "" {
		return "client_id is required"
	}
	if len(i.Items) == 0 {
		return "at least one item is required"
	}
	for _, it := range i.Items {
		if strings.TrimSpace(it.Description) == "" {
			return "item description is required"
		}
		if it.Quantity.IsNegative() {
			return "item quantity must be non-negative"
		}
		if it.Quantity.GreaterThan(maxQuantity) {
			return "item quantity must not exceed " + maxQuantity.String()
		}
		if it.UnitPrice < 0 {
			return "item unit_price must be non-negative"
		}
	}
	if i.Tax < 0 {
		return "tax must be non-negative"
	}
	if i.Status != "" {
		if !i.Status.Valid() {
			return "status must be one of: draft, sent, pending, overdue"
		}
		if i.Status == InvoicePaid {
			return "status paid is set by payment reconciliation"
		}
	}
	if _, _, _, err := i.ComputeTotals(); err != nil {
		return "invoice total must not exceed " + MaxAmount.String()
	}
	return ""
}

// ComputeTotals derives line amounts, subtotal and total from the input.
// It fails with ErrAmountOutOfRange when any of them passes MaxAmount.
func (i *InvoiceInput) ComputeTotals() (items []LineItem, subtotal, total Money, err error) {
	items = make([]LineItem, 0, len(i.Items))
	for _, it := range i.Items {
		amount, err := it.UnitPrice.Mul(it.Quantity)
		if err != nil {
			return nil, 0, 0, err
		}
		items = append(items, LineItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      amount,
		})
		if subtotal, err = subtotal.Add(amount); err != nil {
			return nil, 0, 0, err
		}
	}
	if total, err = subtotal.Add(i.Tax); err != nil {
		return nil, 0, 0, err
	}
	return items, subtotal, total, nil
}

// Apply copies the input onto inv and recomputes the persisted totals.
// A blank status keeps inv's current one, or draft for a new invoice.
func (i *InvoiceInput) Apply(inv *Invoice) error {
	items, subtotal, total, err := i.ComputeTotals()
	if err != nil {
		return err
	}
	inv.ClientID = i.ClientID
	if n := strings.TrimSpace(i.InvoiceNumber); n != "" {
		inv.InvoiceNumber = n
	}
	inv.Items = items
	inv.Subtotal = subtotal
	inv.Tax = i.Tax
	inv.TotalAmount = total
	if c := strings.ToLower(strings.TrimSpace(i.Currency)); c != "" {
		inv.Currency = c
	}
	inv.DueDate = i.DueDate
	switch {
	case i.Status != "":
		inv.Status = i.Status
	case inv.Status == "":
		inv.Status = InvoiceDraft
	}
	inv.Recurring = i.Recurring
	inv.Notes = i.Notes
	return nil
}

// InvoiceFilter narrows an invoice listing.
type InvoiceFilter struct {
	Status   InvoiceStatus
	ClientID string
	Search   string
}
