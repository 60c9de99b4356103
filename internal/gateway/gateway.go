// Package gateway defines the payment gateway the payment engine collects
// and disburses through.
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paytungan/paytungan/internal/metrics"
	"github.com/paytungan/paytungan/internal/models"
)

// Client is a payment gateway offering hosted invoices and payouts.
//
// Lookups return (nil, nil) when the gateway has no such object.
type Client interface {
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, spec models.CreateInvoiceSpec) (*models.Invoice, error)

	// GetPayout finds the payout created for a split bill, using the
	// reference id derived by PayoutReferenceID.
	GetPayout(ctx context.Context, splitBillID int64) (*models.Payout, error)

	// CreatePayout creates a payout. Requests repeating IdempotencyKey
	// return the original payout.
	CreatePayout(ctx context.Context, spec models.CreateGatewayPayoutSpec) (*models.Payout, error)
}

// PayoutReferenceID is the gateway reference of a split bill's payout.
func PayoutReferenceID(splitBillID int64) string {
	return fmt.Sprintf("split-bill-%d", splitBillID)
}

var payoutNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://paytungan.app/payouts"))

// PayoutIdempotencyKey is stable for a split bill, so a retried creation is
// deduplicated by the gateway.
func PayoutIdempotencyKey(splitBillID int64) string {
	return uuid.NewSHA1(payoutNamespace, []byte(PayoutReferenceID(splitBillID))).String()
}

// InvoiceExternalID returns a fresh external id for an invoice of a bill.
// Every replacement invoice gets its own.
func InvoiceExternalID(billID int64) string {
	return fmt.Sprintf("bill-%d-%s", billID, uuid.NewString())
}

// InvoiceBillID extracts the bill id from an external id made by
// InvoiceExternalID.
func InvoiceBillID(externalID string) (int64, bool) {
	rest, ok := strings.CutPrefix(externalID, "bill-")
	if !ok {
		return 0, false
	}
	idPart, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// instrumented records call counts and latencies of the wrapped client.
type instrumented struct {
	next    Client
	metrics *metrics.Metrics
}

// Instrument wraps c so every call is observed by m.
// A nil m returns c unchanged.
func Instrument(c Client, m *metrics.Metrics) Client {
	if m == nil {
		return c
	}
	return &instrumented{next: c, metrics: m}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	i.metrics.GatewayCalls.WithLabelValues(op, outcome).Inc()
	i.metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) GetInvoice(ctx context.Context, id string) (inv *models.Invoice, err error) {
	defer func(start time.Time) { i.observe("get_invoice", start, err) }(time.Now())
	return i.next.GetInvoice(ctx, id)
}

func (i *instrumented) CreateInvoice(ctx context.Context, spec models.CreateInvoiceSpec) (inv *models.Invoice, err error) {
	defer func(start time.Time) { i.observe("create_invoice", start, err) }(time.Now())
	return i.next.CreateInvoice(ctx, spec)
}

func (i *instrumented) GetPayout(ctx context.Context, splitBillID int64) (p *models.Payout, err error) {
	defer func(start time.Time) { i.observe("get_payout", start, err) }(time.Now())
	return i.next.GetPayout(ctx, splitBillID)
}

func (i *instrumented) CreatePayout(ctx context.Context, spec models.CreateGatewayPayoutSpec) (p *models.Payout, err error) {
	defer func(start time.Time) { i.observe("create_payout", start, err) }(time.Now())
	return i.next.CreatePayout(ctx, spec)
}
