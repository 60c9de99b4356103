// Package memory provides an in-process gateway.Client for local
// development and tests. Invoices are paid or expired by calling MarkPaid
// and Expire.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/models"
)

// Ensure Gateway implements gateway.Client
var _ gateway.Client = (*Gateway)(nil)

// DefaultInvoiceDuration applies when a create request has no duration.
const DefaultInvoiceDuration = 24 * time.Hour

// Gateway keeps invoices and payouts in memory. It is safe for concurrent use.
type Gateway struct {
	mu          sync.Mutex
	now         func() time.Time
	checkoutURL string

	invoices      map[string]models.Invoice
	payouts       map[string]models.Payout // by reference id
	byIdempotency map[string]string        // idempotency key -> reference id

	invoicesCreated int
	payoutsCreated  int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock sets the time source used for invoice expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithCheckoutURL sets the base of generated invoice URLs.
func WithCheckoutURL(base string) Option {
	return func(g *Gateway) { g.checkoutURL = base }
}

// New creates an empty in-memory gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		now:           time.Now,
		checkoutURL:   "http://localhost:8080/checkout/",
		invoices:      make(map[string]models.Invoice),
		payouts:       make(map[string]models.Payout),
		byIdempotency: make(map[string]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetInvoice returns a copy of the invoice, or nil if unknown.
func (g *Gateway) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	inv, ok := g.invoices[id]
	if !ok {
		return nil, nil
	}
	if inv.Status == models.InvoiceStatusPending && inv.ExpiryDate.Before(g.now()) {
		inv.Status = models.InvoiceStatusExpired
		g.invoices[id] = inv
	}
	return &inv, nil
}

// CreateInvoice creates a PENDING invoice.
func (g *Gateway) CreateInvoice(_ context.Context, spec models.CreateInvoiceSpec) (*models.Invoice, error) {
	if spec.Amount <= 0 {
		return nil, fmt.Errorf("memory gateway: invalid invoice amount %d", spec.Amount)
	}
	duration := spec.Duration
	if duration <= 0 {
		duration = DefaultInvoiceDuration
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id := "inv_" + uuid.NewString()
	inv := models.Invoice{
		ID:                 id,
		ExternalID:         spec.ExternalID,
		Description:        spec.Description,
		URL:                g.checkoutURL + id,
		Status:             models.InvoiceStatusPending,
		Amount:             spec.Amount,
		ExpiryDate:         g.now().Add(duration).UTC(),
		PayerEmail:         spec.PayerEmail,
		SuccessRedirectURL: spec.SuccessRedirectURL,
		FailureRedirectURL: spec.FailureRedirectURL,
	}
	g.invoices[id] = inv
	g.invoicesCreated++
	return &inv, nil
}

// GetPayout returns the split bill's payout, or nil if none was created.
func (g *Gateway) GetPayout(_ context.Context, splitBillID int64) (*models.Payout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.payouts[gateway.PayoutReferenceID(splitBillID)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// CreatePayout creates an ACCEPTED payout. A repeated idempotency key
// returns the original payout.
func (g *Gateway) CreatePayout(_ context.Context, spec models.CreateGatewayPayoutSpec) (*models.Payout, error) {
	if spec.Amount <= 0 {
		return nil, fmt.Errorf("memory gateway: invalid payout amount %d", spec.Amount)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if ref, ok := g.byIdempotency[spec.IdempotencyKey]; ok && spec.IdempotencyKey != "" {
		p := g.payouts[ref]
		return &p, nil
	}
	if _, ok := g.payouts[spec.ReferenceID]; ok {
		return nil, fmt.Errorf("memory gateway: duplicate payout reference %s", spec.ReferenceID)
	}

	p := models.Payout{
		ExternalID:        "disb_" + uuid.NewString(),
		ReferenceID:       spec.ReferenceID,
		Amount:            spec.Amount,
		Status:            models.PayoutStatusAccepted,
		ChannelCode:       spec.ChannelCode,
		AccountNumber:     spec.AccountNumber,
		AccountHolderName: spec.AccountHolderName,
	}
	g.payouts[spec.ReferenceID] = p
	if spec.IdempotencyKey != "" {
		g.byIdempotency[spec.IdempotencyKey] = spec.ReferenceID
	}
	g.payoutsCreated++
	return &p, nil
}

// MarkPaid settles an invoice as if the payer completed checkout.
func (g *Gateway) MarkPaid(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	inv, ok := g.invoices[id]
	if !ok {
		return fmt.Errorf("memory gateway: invoice %s not found", id)
	}
	now := g.now().UTC()
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAmount = inv.Amount
	inv.PaidAt = &now
	g.invoices[id] = inv
	return nil
}

// Expire marks an invoice EXPIRED.
func (g *Gateway) Expire(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	inv, ok := g.invoices[id]
	if !ok {
		return fmt.Errorf("memory gateway: invoice %s not found", id)
	}
	inv.Status = models.InvoiceStatusExpired
	g.invoices[id] = inv
	return nil
}

// Forget drops an invoice, simulating a dangling reference.
func (g *Gateway) Forget(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.invoices, id)
}

// InvoicesCreated reports how many invoices were created.
func (g *Gateway) InvoicesCreated() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.invoicesCreated
}

// PayoutsCreated reports how many distinct payouts were created.
func (g *Gateway) PayoutsCreated() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payoutsCreated
}
