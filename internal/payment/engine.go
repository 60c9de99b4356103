// Package payment implements the payment lifecycle: collecting each bill of
// a split bill through gateway invoices, reconciling local payments with
// the gateway, and paying the collected funds out to the host.
//
// The engine holds no mutable state. All state lives in the stores and the
// gateway; concurrent requests are serialized by store transactions and
// uniqueness constraints.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/metrics"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

const (
	DefaultInvoiceDuration = 24 * time.Hour
	DefaultGatewayTimeout  = 15 * time.Second
)

// Deps are the collaborators of the engine.
type Deps struct {
	Payments   storage.PaymentStore
	Bills      storage.BillStore
	SplitBills storage.SplitBillStore
	Payouts    storage.PayoutStore

	// Users resolves the payout account holder name. Optional.
	Users storage.UserStore

	// Tx defaults to storage.NoTx.
	Tx storage.Transactor

	Gateway gateway.Client
}

// DepsFromStore takes every store from one backend.
func DepsFromStore(store storage.Store, gw gateway.Client) Deps {
	return Deps{
		Payments:   store,
		Bills:      store,
		SplitBills: store,
		Payouts:    store,
		Users:      store,
		Tx:         store,
		Gateway:    gw,
	}
}

// Engine is the payment lifecycle engine.
type Engine struct {
	payments   storage.PaymentStore
	bills      storage.BillStore
	splitBills storage.SplitBillStore
	payouts    storage.PayoutStore
	users      storage.UserStore
	tx         storage.Transactor
	gw         gateway.Client

	invoiceDuration time.Duration
	gatewayTimeout  time.Duration
	now             func() time.Time
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithInvoiceDuration sets how long new invoices stay payable.
func WithInvoiceDuration(d time.Duration) Option {
	return func(e *Engine) { e.invoiceDuration = d }
}

// WithGatewayTimeout bounds every gateway call.
func WithGatewayTimeout(d time.Duration) Option {
	return func(e *Engine) { e.gatewayTimeout = d }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine.
func NewEngine(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		payments:        deps.Payments,
		bills:           deps.Bills,
		splitBills:      deps.SplitBills,
		payouts:         deps.Payouts,
		users:           deps.Users,
		tx:              deps.Tx,
		gw:              deps.Gateway,
		invoiceDuration: DefaultInvoiceDuration,
		gatewayTimeout:  DefaultGatewayTimeout,
		now:             time.Now,
		logger:          slog.Default(),
	}
	if e.tx == nil {
		e.tx = storage.NoTx{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpdateStatusResult is the reconciled state of a bill and its payment.
type UpdateStatusResult struct {
	Payment *models.Payment
	Bill    *models.Bill
}

// InvoicePaymentResult is a payment together with its newly created invoice.
type InvoicePaymentResult struct {
	Payment *models.Payment
	Invoice *models.Invoice
}

// GetPayment returns the payment decorated with its live invoice, or nil if
// it does not exist. An expired invoice of an unpaid payment is replaced.
func (e *Engine) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := e.payments.GetPayment(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if payment == nil {
		return nil, nil
	}
	if err := e.refresh(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPaymentByBillID is GetPayment keyed by bill.
func (e *Engine) GetPaymentByBillID(ctx context.Context, billID int64) (*models.Payment, error) {
	payment, err := e.payments.GetPaymentByBillID(ctx, billID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if payment == nil {
		return nil, nil
	}
	if err := e.refresh(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPaymentList filters payments. Results carry no invoice.
func (e *Engine) GetPaymentList(ctx context.Context, spec models.GetPaymentListSpec) ([]*models.Payment, error) {
	payments, err := e.payments.ListPayments(ctx, spec)
	if err != nil {
		return nil, apperr.Dependency("list payments", err)
	}
	return payments, nil
}

// CreatePayment starts collecting a bill on behalf of its owner. A bill that
// already has a payment gets that payment back instead of a second invoice.
func (e *Engine) CreatePayment(ctx context.Context, spec models.CreatePaymentSpec, user *models.User) (*models.Payment, error) {
	bill, err := e.bills.GetBill(ctx, spec.BillID)
	if err != nil {
		return nil, apperr.Dependency("load bill", err)
	}
	if bill == nil {
		return nil, apperr.NotFound("bill", spec.BillID)
	}
	if bill.UserID != user.ID {
		return nil, apperr.Validation("bill does not belong to user")
	}
	if bill.IsPaid() {
		return nil, apperr.Validation("bill already paid")
	}

	existing, err := e.payments.GetPaymentByBillID(ctx, bill.ID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if existing != nil {
		return e.existingPayment(ctx, existing, spec, user)
	}

	reservation := &models.Payment{
		BillID: bill.ID,
		Status: models.PaymentStatusPendingNew,
		Method: models.PaymentMethodInvoice,
		Amount: bill.Amount,
	}
	if err := e.payments.CreatePayment(ctx, reservation); err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Dependency("reserve payment", err)
		}
		// Lost the race to a concurrent creator.
		existing, err := e.payments.GetPaymentByBillID(ctx, bill.ID)
		if err != nil {
			return nil, apperr.Dependency("load payment", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("payment for bill %d conflicted but cannot be found", bill.ID)
		}
		return e.existingPayment(ctx, existing, spec, user)
	}

	invoice, err := e.createInvoice(ctx, paymentInvoiceSpec(bill.ID, bill.Amount, spec, user))
	if err != nil {
		e.releaseReservation(ctx, reservation)
		return nil, err
	}

	reservation.ApplyInvoice(invoice)
	if err := e.payments.UpdatePayment(ctx, reservation); err != nil {
		e.logger.Warn("Invoice orphaned by failed payment save", "payment_id", reservation.ID, "invoice_id", invoice.ID)
		e.releaseReservation(ctx, reservation)
		return nil, apperr.Dependency("save payment", err)
	}
	e.metrics.ObservePaymentTransition(string(models.PaymentStatusAwaitingPayment))
	e.logger.Info("Payment created",
		"payment_id", reservation.ID,
		"bill_id", bill.ID,
		"reference_no", reservation.ReferenceNo,
		"amount", reservation.Amount,
	)
	return reservation, nil
}

func (e *Engine) releaseReservation(ctx context.Context, reservation *models.Payment) {
	if err := e.payments.DeletePayment(ctx, reservation.ID); err != nil {
		e.logger.Error("Failed to release payment reservation", "payment_id", reservation.ID, "error", err)
	}
}

func (e *Engine) existingPayment(ctx context.Context, payment *models.Payment, spec models.CreatePaymentSpec, user *models.User) (*models.Payment, error) {
	if payment.Status == models.PaymentStatusPendingNew {
		// The creator's invoice call is bounded by the gateway timeout, so an
		// older reservation was abandoned.
		if e.now().Sub(payment.CreatedAt) <= e.gatewayTimeout {
			return nil, apperr.Validation("payment for bill %d is being created, retry later", payment.BillID)
		}
		return e.completeReservation(ctx, payment, spec, user)
	}
	if err := e.refresh(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// completeReservation creates the invoice of an abandoned PENDING_NEW row.
// When several callers complete it at once, the first save wins and the
// others return the winner's payment.
func (e *Engine) completeReservation(ctx context.Context, payment *models.Payment, spec models.CreatePaymentSpec, user *models.User) (*models.Payment, error) {
	invoice, err := e.createInvoice(ctx, paymentInvoiceSpec(payment.BillID, payment.Amount, spec, user))
	if err != nil {
		return nil, err
	}

	var winner *models.Payment
	err = e.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := e.payments.GetPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("payment %d disappeared", payment.ID)
		}
		if current.Status != models.PaymentStatusPendingNew {
			winner = current
			return nil
		}
		payment.ApplyInvoice(invoice)
		return e.payments.UpdatePayment(ctx, payment)
	})
	if err != nil {
		return nil, apperr.Dependency("save payment", err)
	}

	if winner != nil {
		e.logger.Debug("Reservation completed concurrently", "payment_id", payment.ID, "orphaned_invoice", invoice.ID)
		if err := e.refresh(ctx, winner); err != nil {
			return nil, err
		}
		return winner, nil
	}

	e.metrics.ObservePaymentTransition(string(models.PaymentStatusAwaitingPayment))
	e.logger.Warn("Abandoned payment reservation completed",
		"payment_id", payment.ID,
		"bill_id", payment.BillID,
		"reference_no", payment.ReferenceNo,
	)
	return payment, nil
}

// UpdateStatus reconciles a bill's payment with its gateway invoice. A paid
// invoice moves both the payment and the bill to PAID; anything else leaves
// them unchanged. Calling it again on a paid bill is a no-op.
func (e *Engine) UpdateStatus(ctx context.Context, spec models.UpdateStatusSpec) (*UpdateStatusResult, error) {
	payment, err := e.payments.GetPaymentByBillID(ctx, spec.BillID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if payment == nil {
		return nil, apperr.NotFound("payment for bill", spec.BillID)
	}
	bill, err := e.bills.GetBill(ctx, spec.BillID)
	if err != nil {
		return nil, apperr.Dependency("load bill", err)
	}
	if bill == nil {
		return nil, apperr.NotFound("bill", spec.BillID)
	}

	if payment.IsPaid() && bill.IsPaid() {
		return &UpdateStatusResult{Payment: payment, Bill: bill}, nil
	}
	if payment.Status == models.PaymentStatusPendingNew {
		return &UpdateStatusResult{Payment: payment, Bill: bill}, nil
	}

	paidAt := e.now().UTC()
	var invoice *models.Invoice
	if !payment.IsPaid() {
		invoice, err = e.getInvoice(ctx, payment.ReferenceNo)
		if err != nil {
			return nil, err
		}
		if invoice == nil {
			return nil, danglingReference(payment)
		}
		if !invoice.IsPaid() {
			payment.Invoice = invoice
			return &UpdateStatusResult{Payment: payment, Bill: bill}, nil
		}
		if invoice.PaidAt != nil {
			paidAt = invoice.PaidAt.UTC()
		}
	}

	return e.markPaid(ctx, payment, bill, invoice, paidAt)
}

// markPaid moves a payment and its bill to PAID in one transaction. The
// conditional updates make concurrent and repeated calls transition once.
func (e *Engine) markPaid(ctx context.Context, payment *models.Payment, bill *models.Bill, invoice *models.Invoice, paidAt time.Time) (*UpdateStatusResult, error) {
	var transitioned bool
	err := e.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		transitioned, err = e.payments.MarkPaymentPaid(ctx, payment.ID, paidAt)
		if err != nil {
			return err
		}
		if bill, err = e.bills.UpdateBillStatus(ctx, bill.ID, models.BillStatusPaid); err != nil {
			return err
		}
		current, err := e.payments.GetPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("payment %d disappeared", payment.ID)
		}
		payment = current
		return nil
	})
	if err != nil {
		return nil, apperr.Dependency("mark bill paid", err)
	}

	if transitioned {
		e.metrics.ObservePaymentTransition(string(models.PaymentStatusPaid))
		e.logger.Info("Payment paid", "payment_id", payment.ID, "bill_id", bill.ID, "reference_no", payment.ReferenceNo)
	}
	payment.Invoice = invoice
	return &UpdateStatusResult{Payment: payment, Bill: bill}, nil
}

// SettleInvoice reconciles the payment behind a gateway invoice. Unlike
// UpdateStatus it also honors an invoice that was superseded by
// CreateInvoiceForPayment but paid anyway.
func (e *Engine) SettleInvoice(ctx context.Context, invoiceID string) (*UpdateStatusResult, error) {
	invoice, err := e.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperr.NotFound("invoice", invoiceID)
	}
	payment, err := e.payments.GetPaymentByReferenceNo(ctx, invoice.ID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if payment != nil {
		return e.UpdateStatus(ctx, models.UpdateStatusSpec{BillID: payment.BillID})
	}

	// The invoice was replaced; its external id still names the bill.
	billID, ok := gateway.InvoiceBillID(invoice.ExternalID)
	if !ok {
		return nil, apperr.NotFound("payment for invoice", invoiceID)
	}
	payment, err = e.payments.GetPaymentByBillID(ctx, billID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if payment == nil {
		return nil, apperr.NotFound("payment for invoice", invoiceID)
	}
	bill, err := e.bills.GetBill(ctx, billID)
	if err != nil {
		return nil, apperr.Dependency("load bill", err)
	}
	if bill == nil {
		return nil, apperr.NotFound("bill", billID)
	}
	if !invoice.IsPaid() || (payment.IsPaid() && bill.IsPaid()) {
		return &UpdateStatusResult{Payment: payment, Bill: bill}, nil
	}

	paidAt := e.now().UTC()
	if invoice.PaidAt != nil {
		paidAt = invoice.PaidAt.UTC()
	}
	e.logger.Warn("Superseded invoice paid",
		"payment_id", payment.ID,
		"invoice_id", invoice.ID,
		"reference_no", payment.ReferenceNo,
	)
	return e.markPaid(ctx, payment, bill, invoice, paidAt)
}

// CreateInvoiceForPayment replaces the payment's invoice with a fresh one,
// whether or not the current one expired.
func (e *Engine) CreateInvoiceForPayment(ctx context.Context, spec models.CreateInvoicePaymentSpec) (*InvoicePaymentResult, error) {
	payment, err := e.payments.GetPayment(ctx, spec.PaymentID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if payment == nil {
		return nil, apperr.Validation("payment %d not found", spec.PaymentID)
	}
	if payment.IsPaid() {
		return nil, apperr.Validation("payment already paid")
	}

	invoice, err := e.createInvoice(ctx, models.CreateInvoiceSpec{
		ExternalID:         gateway.InvoiceExternalID(payment.BillID),
		Amount:             payment.Amount,
		Description:        invoiceDescription(payment.BillID),
		PayerEmail:         spec.PayerEmail,
		SuccessRedirectURL: spec.SuccessRedirectURL,
		FailureRedirectURL: spec.FailureRedirectURL,
	})
	if err != nil {
		return nil, err
	}

	wasPending := payment.Status == models.PaymentStatusPendingNew
	payment.ApplyInvoice(invoice)
	if err := e.payments.UpdatePayment(ctx, payment); err != nil {
		return nil, apperr.Dependency("save payment", err)
	}
	if wasPending {
		e.metrics.ObservePaymentTransition(string(models.PaymentStatusAwaitingPayment))
	}
	e.logger.Info("Invoice created for payment", "payment_id", payment.ID, "reference_no", payment.ReferenceNo)
	return &InvoicePaymentResult{Payment: payment, Invoice: invoice}, nil
}

// refresh decorates payment with its live invoice, replacing the invoice
// first if the payment is unpaid and the invoice can no longer be paid.
func (e *Engine) refresh(ctx context.Context, payment *models.Payment) error {
	if payment.Status == models.PaymentStatusPendingNew {
		return nil
	}

	invoice, err := e.getInvoice(ctx, payment.ReferenceNo)
	if err != nil {
		return err
	}
	if invoice == nil {
		return danglingReference(payment)
	}

	now := e.now()
	expired := invoice.IsExpired(now) || (!invoice.IsPaid() && payment.ExpiryDate.Before(now))
	if payment.IsPaid() || !expired {
		payment.Invoice = invoice
		return nil
	}
	return e.replaceInvoice(ctx, payment, invoice)
}

func (e *Engine) replaceInvoice(ctx context.Context, payment *models.Payment, expired *models.Invoice) error {
	staleRef := payment.ReferenceNo
	fresh, err := e.createInvoice(ctx, models.CreateInvoiceSpec{
		ExternalID:         gateway.InvoiceExternalID(payment.BillID),
		Amount:             payment.Amount,
		Description:        invoiceDescription(payment.BillID),
		PayerEmail:         expired.PayerEmail,
		SuccessRedirectURL: expired.SuccessRedirectURL,
		FailureRedirectURL: expired.FailureRedirectURL,
	})
	if err != nil {
		return err
	}

	// A concurrent reader may have replaced the invoice first; keep theirs.
	var winner *models.Payment
	err = e.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := e.payments.GetPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("payment %d disappeared", payment.ID)
		}
		if current.ReferenceNo != staleRef || current.IsPaid() {
			winner = current
			return nil
		}
		payment.ApplyInvoice(fresh)
		return e.payments.UpdatePayment(ctx, payment)
	})
	if err != nil {
		return apperr.Dependency("save payment", err)
	}

	if winner != nil {
		e.logger.Debug("Invoice already replaced concurrently", "payment_id", payment.ID, "orphaned_invoice", fresh.ID)
		*payment = *winner
		invoice, err := e.getInvoice(ctx, payment.ReferenceNo)
		if err != nil {
			return err
		}
		if invoice == nil {
			return danglingReference(payment)
		}
		payment.Invoice = invoice
		return nil
	}

	e.metrics.ObserveInvoiceReplacement()
	e.logger.Info("Expired invoice replaced",
		"payment_id", payment.ID,
		"old_reference_no", staleRef,
		"reference_no", payment.ReferenceNo,
		"expiry_date", payment.ExpiryDate,
	)
	return nil
}

func danglingReference(payment *models.Payment) error {
	return apperr.Validation("invoice %s of payment %d not found at gateway", payment.ReferenceNo, payment.ID)
}

func paymentInvoiceSpec(billID, amount int64, spec models.CreatePaymentSpec, user *models.User) models.CreateInvoiceSpec {
	return models.CreateInvoiceSpec{
		ExternalID:         gateway.InvoiceExternalID(billID),
		Amount:             amount,
		Description:        invoiceDescription(billID),
		PayerEmail:         user.Email,
		SuccessRedirectURL: spec.SuccessRedirectURL,
		FailureRedirectURL: spec.FailureRedirectURL,
	}
}

func invoiceDescription(billID int64) string {
	return fmt.Sprintf("Paytungan bill #%d", billID)
}

// Gateway calls. Each runs under the gateway timeout and fails as a
// dependency error.

func (e *Engine) getInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	invoice, err := e.gw.GetInvoice(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("get invoice", err)
	}
	return invoice, nil
}

func (e *Engine) createInvoice(ctx context.Context, spec models.CreateInvoiceSpec) (*models.Invoice, error) {
	if spec.Duration == 0 {
		spec.Duration = e.invoiceDuration
	}
	ctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	invoice, err := e.gw.CreateInvoice(ctx, spec)
	if err != nil {
		return nil, apperr.Dependency("create invoice", err)
	}
	return invoice, nil
}

func (e *Engine) getPayout(ctx context.Context, splitBillID int64) (*models.Payout, error) {
	ctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	payout, err := e.gw.GetPayout(ctx, splitBillID)
	if err != nil {
		return nil, apperr.Dependency("get payout", err)
	}
	return payout, nil
}

func (e *Engine) createPayout(ctx context.Context, spec models.CreateGatewayPayoutSpec) (*models.Payout, error) {
	ctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	payout, err := e.gw.CreatePayout(ctx, spec)
	if err != nil {
		return nil, apperr.Dependency("create payout", err)
	}
	return payout, nil
}
