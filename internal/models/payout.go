package models

import "time"

// PayoutStatus is the gateway-side state of a payout.
type PayoutStatus string

const (
	// PayoutStatusPendingNew marks a claimed local row whose gateway payout
	// has not been created yet.
	PayoutStatusPendingNew PayoutStatus = "PENDING_NEW"
	PayoutStatusAccepted   PayoutStatus = "ACCEPTED"
	PayoutStatusRequested  PayoutStatus = "REQUESTED"
	PayoutStatusSucceeded  PayoutStatus = "SUCCEEDED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
	PayoutStatusCancelled  PayoutStatus = "CANCELLED"
	PayoutStatusReversed   PayoutStatus = "REVERSED"
)

// Payout represents the disbursement of a split bill's collected funds to its host.
// There is at most one payout per split bill.
type Payout struct {
	// ID is the local identifier. Zero for a payout only known to the gateway.
	ID int64

	// SplitBillID is the split bill whose funds are paid out.
	SplitBillID int64

	// ExternalID is the gateway payout id. Empty while the payout is only claimed.
	ExternalID string

	// ReferenceID is the reference sent to the gateway; derived from SplitBillID.
	ReferenceID string

	Amount int64
	Status PayoutStatus

	// ChannelCode, AccountNumber and AccountHolderName describe the destination.
	ChannelCode       string
	AccountNumber     string
	AccountHolderName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sync copies gateway-owned fields from a payout fetched from the gateway.
func (p *Payout) Sync(remote *Payout) {
	p.ExternalID = remote.ExternalID
	p.ReferenceID = remote.ReferenceID
	p.Amount = remote.Amount
	p.Status = remote.Status
	if remote.ChannelCode != "" {
		p.ChannelCode = remote.ChannelCode
	}
	if remote.AccountNumber != "" {
		p.AccountNumber = remote.AccountNumber
	}
	if remote.AccountHolderName != "" {
		p.AccountHolderName = remote.AccountHolderName
	}
}
