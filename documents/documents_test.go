package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/payments"
	"github.com/satheeshds/invoicing/store"
	"github.com/satheeshds/invoicing/store/storetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeMailer struct {
	sent []Mail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m Mail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.keys = append(f.keys, key)
	return "https://files.test/" + key, nil
}

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func setup(t *testing.T, archive Archive) (*Service, *store.Store, *fakeMailer, *models.Invoice) {
	t.Helper()
	s := storetest.New(t)
	c := storetest.Client(t, s, "billing@acme.test")
	inv := storetest.Invoice(t, s, c.ID, 12345)
	mailer := &fakeMailer{}
	issuer := payments.NewIssuer(s, "https://app.test", time.Hour, discard)
	svc := NewService(s, issuer, NewPDFRenderer("Acme Consulting"), mailer, archive, "invoices@acme.test", discard)
	return svc, s, mailer, inv
}

func TestPDFRenderer_Render(t *testing.T) {
	notes := "Thanks!"
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		InvoiceNumber: "INV-2026-0001",
		Currency:      "usd",
		Subtotal:      1000,
		TotalAmount:   1000,
		DueDate:       &due,
		Notes:         &notes,
		Items:         []models.LineItem{{Description: "Work", UnitPrice: 1000, Amount: 1000}},
	}
	out, err := NewPDFRenderer("Acme").Render(inv, &models.Client{Name: "Bob", Email: "bob@x.test"}, "https://app.test/pay/abc")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestService_SendMailsPDFWithPayLink(t *testing.T) {
	archive := &fakeArchive{}
	svc, s, mailer, inv := setup(t, archive)
	ctx := context.Background()

	d, err := svc.Send(ctx, inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.test", d.To)
	assert.False(t, d.Link.Reused)

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, "invoices@acme.test", m.From)
	assert.Equal(t, "Invoice "+inv.InvoiceNumber, m.Subject)
	assert.Contains(t, m.HTML, d.Link.PayURL)
	assert.Contains(t, m.HTML, "123.45")
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, inv.InvoiceNumber+".pdf", m.Attachments[0].Filename)
	assert.True(t, bytes.HasPrefix(m.Attachments[0].Data, []byte("%PDF")))

	require.Equal(t, []string{"invoices/" + inv.ID + "/" + inv.InvoiceNumber + ".pdf"}, archive.keys)
	got, err := s.Invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FileURL)
	assert.Equal(t, d.FileURL, *got.FileURL)
	assert.Equal(t, models.InvoiceSent, got.Status)

	again, err := svc.Send(ctx, inv.ID, "other@acme.test")
	require.NoError(t, err)
	assert.True(t, again.Link.Reused)
	assert.Equal(t, d.Link.Token, again.Link.Token)
	assert.Equal(t, "other@acme.test", mailer.sent[1].To)
}

func TestService_SendWithoutArchive(t *testing.T) {
	svc, _, mailer, inv := setup(t, nil)
	d, err := svc.Send(context.Background(), inv.ID, "")
	require.NoError(t, err)
	assert.Empty(t, d.FileURL)
	assert.Len(t, mailer.sent, 1)
}

func TestService_SendRefusesPaidInvoice(t *testing.T) {
	svc, s, mailer, inv := setup(t, nil)
	require.NoError(t, s.Invoices.SetStatus(context.Background(), inv.ID, models.InvoicePaid))
	_, err := svc.Send(context.Background(), inv.ID, "")
	assert.ErrorIs(t, err, models.ErrAlreadyPaid)
	assert.Empty(t, mailer.sent)
}

func TestService_SendMailFailure(t *testing.T) {
	svc, _, mailer, inv := setup(t, nil)
	mailer.err = errors.New("smtp down")
	_, err := svc.Send(context.Background(), inv.ID, "")
	assert.EqualError(t, err, "smtp down")
}

func TestService_RenderPDF(t *testing.T) {
	svc, _, _, inv := setup(t, nil)
	got, pdf, err := svc.RenderPDF(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, err = svc.RenderPDF(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestS3Archive_Put(t *testing.T) {
	fake := &fakePutObject{}
	a := &S3Archive{client: fake, bucket: "docs", region: "eu-west-1"}

	url, err := a.Put(context.Background(), "invoices/1/a.pdf", []byte("pdf"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.s3.eu-west-1.amazonaws.com/invoices/1/a.pdf", url)
	assert.Equal(t, "docs", *fake.input.Bucket)
	assert.Equal(t, "application/pdf", *fake.input.ContentType)
	assert.Equal(t, []byte("pdf"), fake.body)

	a.endpoint = "http://minio:9000"
	url, err = a.Put(context.Background(), "k", nil, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/docs/k", url)

	fake.err = errors.New("denied")
	_, err = a.Put(context.Background(), "k", nil, "application/pdf")
	assert.ErrorContains(t, err, "uploading k")
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage(Mail{
		From:        "a@x.test",
		To:          "b@x.test",
		Subject:     "Invoice INV-1",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{Filename: "INV-1.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
	})
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Subject: Invoice INV-1")
	assert.Contains(t, out, "INV-1.pdf")
	assert.Contains(t, out, "text/html")
}
