package models

import "time"

// PaymentStatus is the lifecycle state of a payment.
//
//	PENDING_NEW -> AWAITING_PAYMENT -> PAID
//
// An expired invoice is replaced in place while the payment stays in
// AWAITING_PAYMENT. PAID is terminal.
type PaymentStatus string

const (
	// PaymentStatusPendingNew marks a reserved row whose invoice has not been created yet.
	PaymentStatusPendingNew      PaymentStatus = "PENDING_NEW"
	PaymentStatusAwaitingPayment PaymentStatus = "AWAITING_PAYMENT"
	PaymentStatusPaid            PaymentStatus = "PAID"
)

// PaymentMethodInvoice is the only collection method: a hosted gateway invoice.
const PaymentMethodInvoice = "INVOICE"

// Payment is the local record of a collection attempt for a bill.
type Payment struct {
	ID     int64
	BillID int64
	Status PaymentStatus
	Method string

	// ReferenceNo is the gateway invoice id currently backing this payment.
	ReferenceNo string

	// ExpiryDate mirrors the current invoice's expiry.
	ExpiryDate time.Time

	PaidAt *time.Time

	// Number is the external id sent to the gateway with the invoice.
	Number string

	Amount int64

	// PaymentURL is the hosted payment page of the current invoice.
	PaymentURL string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	// Invoice is the live gateway invoice. It is set by the payment engine on
	// single-item reads and is never persisted.
	Invoice *Invoice
}

// IsPaid reports whether the payment reached its terminal state.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// ApplyInvoice points the payment at a (new) gateway invoice.
func (p *Payment) ApplyInvoice(inv *Invoice) {
	p.ReferenceNo = inv.ID
	p.Number = inv.ExternalID
	p.ExpiryDate = inv.ExpiryDate
	p.PaymentURL = inv.URL
	p.Amount = inv.Amount
	p.Method = PaymentMethodInvoice
	if p.Status == PaymentStatusPendingNew || p.Status == "" {
		p.Status = PaymentStatusAwaitingPayment
	}
	p.Invoice = inv
}

// InvoiceStatus is the gateway-side state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusSettled InvoiceStatus = "SETTLED"
	InvoiceStatusExpired InvoiceStatus = "EXPIRED"
)

// Invoice is the gateway's payment-collection object (a hosted payment page).
type Invoice struct {
	ID                 string
	ExternalID         string
	Description        string
	URL                string
	Status             InvoiceStatus
	Amount             int64
	ExpiryDate         time.Time
	PaymentMethod      string
	PaidAmount         int64
	PayerEmail         string
	PaidAt             *time.Time
	SuccessRedirectURL string
	FailureRedirectURL string
}

// IsPaid reports whether the gateway has collected the invoice.
// SETTLED means paid and already credited to the merchant balance.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusSettled
}

// IsExpired reports whether the invoice can no longer be paid at now.
func (i *Invoice) IsExpired(now time.Time) bool {
	if i.IsPaid() {
		return false
	}
	return i.Status == InvoiceStatusExpired || i.ExpiryDate.Before(now)
}
