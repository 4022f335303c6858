package documents

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"time"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
)

// LinkIssuer hands out the payment link that goes into a delivered invoice.
type LinkIssuer interface {
	IssueOrReuse(ctx context.Context, invoiceID string) (*models.IssuedLink, error)
}

// Delivery is the outcome of Send.
type Delivery struct {
	InvoiceID string              `json:"invoice_id"`
	To        string              `json:"to"`
	FileURL   string              `json:"file_url,omitempty"`
	Link      *models.IssuedLink `json:"link"`
}

// Service renders, archives and mails invoices.
type Service struct {
	store    *store.Store
	issuer   LinkIssuer
	renderer Renderer
	mailer   Mailer
	archive  Archive // nil when no bucket is configured
	from     string
	logger   *slog.Logger
}

func NewService(s *store.Store, issuer LinkIssuer, renderer Renderer, mailer Mailer, archive Archive, from string, logger *slog.Logger) *Service {
	return &Service{
		store:    s,
		issuer:   issuer,
		renderer: renderer,
		mailer:   mailer,
		archive:  archive,
		from:     from,
		logger:   logger.With("component", "delivery"),
	}
}

var mailTmpl = template.Must(template.New("invoice").Parse(`<p>Hello {{.ClientName}},</p>
<p>Please find attached invoice <strong>{{.Number}}</strong> for <strong>{{.Amount}} {{.Currency}}</strong>{{if .DueDate}}, due on {{.DueDate}}{{end}}.</p>
<p>You can pay online here: <a href="{{.PayURL}}">{{.PayURL}}</a></p>
<p>This link expires on {{.ExpiresAt}} and can be used only once.</p>
<p>Thank you for your business.</p>
`))

type mailData struct {
	ClientName string
	Number     string
	Amount     string
	Currency   string
	DueDate    string
	PayURL     string
	ExpiresAt  string
}

// RenderPDF renders the invoice without issuing a payment link.
func (s *Service) RenderPDF(ctx context.Context, invoiceID string) (*models.Invoice, []byte, error) {
	inv, client, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.Render(inv, client, "")
	if err != nil {
		return nil, nil, err
	}
	return inv, pdf, nil
}

// Send mails the invoice to `to`, or to the client's address when `to` is
// empty. A payable link is reused if the invoice already has one.
func (s *Service) Send(ctx context.Context, invoiceID, to string) (*Delivery, error) {
	inv, client, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status.IsPaid() {
		return nil, models.ErrAlreadyPaid
	}
	if to == "" {
		to = client.Email
	}

	link, err := s.issuer.IssueOrReuse(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.Render(inv, client, link.PayURL)
	if err != nil {
		return nil, err
	}
	filename := inv.InvoiceNumber + ".pdf"

	out := &Delivery{InvoiceID: inv.ID, To: to, Link: link}
	if s.archive != nil {
		key := path.Join("invoices", inv.ID, filename)
		url, err := s.archive.Put(ctx, key, pdf, "application/pdf")
		if err != nil {
			return nil, err
		}
		if err := s.store.Invoices.SetFileURL(ctx, inv.ID, url); err != nil {
			return nil, err
		}
		out.FileURL = url
	}

	body, err := renderMail(inv, client, link)
	if err != nil {
		return nil, err
	}
	err = s.mailer.Send(ctx, Mail{
		From:        s.from,
		To:          to,
		Subject:     "Invoice " + inv.InvoiceNumber,
		HTML:        body,
		Attachments: []Attachment{{Filename: filename, ContentType: "application/pdf", Data: pdf}},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice delivered", "invoice_id", inv.ID, "to", to, "reused_link", link.Reused, "archived", out.FileURL != "")
	return out, nil
}

func (s *Service) load(ctx context.Context, invoiceID string) (*models.Invoice, *models.Client, error) {
	inv, err := s.store.Invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.store.Clients.Get(ctx, inv.ClientID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading client %s: %w", inv.ClientID, err)
	}
	return inv, client, nil
}

func renderMail(inv *models.Invoice, client *models.Client, link *models.IssuedLink) (string, error) {
	data := mailData{
		ClientName: client.Name,
		Number:     inv.InvoiceNumber,
		Amount:     link.Amount.String(),
		Currency:   link.Currency,
		PayURL:     link.PayURL,
		ExpiresAt:  link.ExpiresAt.Format(time.RFC1123),
	}
	if inv.DueDate != nil {
		data.DueDate = inv.DueDate.Format("02 Jan 2006")
	}
	var buf bytes.Buffer
	if err := mailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering mail body: %w", err)
	}
	return buf.String(), nil
}
