// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/paytungan/paytungan/internal/models"
)

// ErrConflict is returned when an insert violates a uniqueness rule, such as
// a second payment for a bill or a second payout for a split bill.
var ErrConflict = errors.New("storage: conflicting record exists")

// Lookups return (nil, nil) when the record does not exist. Soft-deleted rows
// are never returned.

// PaymentStore persists payments.
type PaymentStore interface {
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	GetPaymentByBillID(ctx context.Context, billID int64) (*models.Payment, error)
	GetPaymentByReferenceNo(ctx context.Context, referenceNo string) (*models.Payment, error)
	ListPayments(ctx context.Context, spec models.GetPaymentListSpec) ([]*models.Payment, error)

	// CreatePayment inserts a payment and populates its ID.
	// Returns ErrConflict if the bill already has a payment.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// UpdatePayment writes every mutable field of the payment.
	UpdatePayment(ctx context.Context, payment *models.Payment) error

	// MarkPaymentPaid moves the payment to PAID unless it already is, and
	// reports whether this call made the transition.
	MarkPaymentPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error)

	// DeletePayment removes a reservation that never reached the gateway.
	DeletePayment(ctx context.Context, id int64) error
}

// BillStore persists bills.
type BillStore interface {
	GetBill(ctx context.Context, id int64) (*models.Bill, error)
	ListBillsBySplitBill(ctx context.Context, splitBillID int64) ([]*models.Bill, error)

	// UpdateBillStatus sets the bill's status and returns the stored bill.
	// Setting the status the bill already has is a no-op, not an error.
	UpdateBillStatus(ctx context.Context, id int64, status models.BillStatus) (*models.Bill, error)
}

// SplitBillStore persists split bills.
type SplitBillStore interface {
	GetSplitBill(ctx context.Context, id int64) (*models.SplitBill, error)

	// CreateSplitBill inserts the split bill and its Bills atomically,
	// populating all IDs.
	CreateSplitBill(ctx context.Context, splitBill *models.SplitBill) error
}

// PayoutStore persists the local mirror of gateway payouts.
type PayoutStore interface {
	GetPayoutBySplitBillID(ctx context.Context, splitBillID int64) (*models.Payout, error)

	// CreatePayout inserts a payout and populates its ID.
	// Returns ErrConflict if the split bill already has a payout.
	CreatePayout(ctx context.Context, payout *models.Payout) error

	UpdatePayout(ctx context.Context, payout *models.Payout) error

	// DeletePayout removes a claim that never reached the gateway.
	DeletePayout(ctx context.Context, id int64) error
}

// UserStore persists users.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	ListUsers(ctx context.Context, spec models.GetUserListSpec) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
}

// Transactor runs fn inside a transaction. Store calls made with the ctx
// passed to fn join that transaction. The transaction commits if fn returns
// nil and rolls back otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the union of all stores. This abstraction allows swapping storage
// backends (SQLite, PostgreSQL) without changing the service layer.
type Store interface {
	PaymentStore
	BillStore
	SplitBillStore
	PayoutStore
	UserStore
	Transactor

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// NoTx is a Transactor that runs fn without a transaction.
// Suitable for stores whose single calls are already atomic.
type NoTx struct{}

func (NoTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
