package models

import "time"

// BillStatus is the settlement state of a single bill.
type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING"
	BillStatusPaid    BillStatus = "PAID"
)

// SplitBill represents a shared expense hosted by one user.
// Collected payments for its bills are paid out to the host.
type SplitBill struct {
	// ID is the unique identifier for the split bill.
	ID int64

	// Name is the human-readable name (e.g., "Dinner at Bakmi GM").
	Name string

	// HostID is the user who receives the payout.
	HostID int64

	// WithdrawalMethod is the payout channel code at the gateway (e.g., "ID_BCA").
	WithdrawalMethod string

	// WithdrawalNumber is the account number on the withdrawal channel.
	WithdrawalNumber string

	// Details is free text shown to participants.
	Details string

	// Total is the final amount including tax and fees.
	Total int64

	// Subtotal is the pre-tax amount.
	Subtotal int64

	// Bills are the participants' shares. Only populated by reads that
	// explicitly load them.
	Bills []Bill

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Bill represents one participant's share of a split bill.
//
// There is exactly one non-deleted bill per (UserID, SplitBillID) pair.
// Status only moves from PENDING to PAID, and only through a confirmed payment.
type Bill struct {
	ID          int64
	UserID      int64
	SplitBillID int64
	Status      BillStatus

	// Amount is the participant's computed share, including proportional tax.
	Amount int64

	Details string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsPaid reports whether the bill has been settled.
func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}
