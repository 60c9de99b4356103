package models

import "time"

// CreatePaymentSpec requests a payment for a bill.
type CreatePaymentSpec struct {
	BillID             int64
	SuccessRedirectURL string
	FailureRedirectURL string
}

// UpdateStatusSpec asks the engine to reconcile a bill's payment with the gateway.
type UpdateStatusSpec struct {
	BillID int64
}

// CreateInvoicePaymentSpec forces a fresh invoice for an existing payment.
type CreateInvoicePaymentSpec struct {
	PaymentID          int64
	PayerEmail         string
	SuccessRedirectURL string
	FailureRedirectURL string
}

// GetPaymentListSpec filters payments. Zero values mean "no filter".
type GetPaymentListSpec struct {
	BillIDs []int64
	UserID  int64
	Status  PaymentStatus
}

// CreatePayoutSpec requests the payout of a split bill.
// A zero Amount pays out everything collected for the split bill.
type CreatePayoutSpec struct {
	SplitBillID int64
	Amount      int64
	Description string
}

// CreateInvoiceSpec is the gateway request for a new invoice.
type CreateInvoiceSpec struct {
	ExternalID         string
	Amount             int64
	Description        string
	PayerEmail         string
	Duration           time.Duration
	SuccessRedirectURL string
	FailureRedirectURL string
}

// CreateGatewayPayoutSpec is the gateway request for a new payout.
type CreateGatewayPayoutSpec struct {
	ReferenceID       string
	IdempotencyKey    string
	Amount            int64
	ChannelCode       string
	AccountNumber     string
	AccountHolderName string
	Description       string
}

// GetUserListSpec filters users. Empty slices mean "no filter".
type GetUserListSpec struct {
	UserIDs      []int64
	Usernames    []string
	FirebaseUIDs []string
}

// CreateUserSpec registers a user.
type CreateUserSpec struct {
	FirebaseUID  string
	PhoneNumber  string
	Username     string
	Name         string
	Email        string
	ProfileImage string
}

// UpdateUserSpec updates the profile of the user identified by FirebaseUID.
type UpdateUserSpec struct {
	FirebaseUID  string
	Username     string
	Name         string
	Email        string
	ProfileImage string
}

// SplitBillItem is a line item used to compute shares.
type SplitBillItem struct {
	Description string
	Amount      int64

	// UserIDs share the item equally.
	UserIDs []int64
}

// CreateSplitBillSpec creates a split bill with one bill per participant.
// With no items, Total is split equally among Participants.
type CreateSplitBillSpec struct {
	Name             string
	WithdrawalMethod string
	WithdrawalNumber string
	Details          string
	Total            int64
	Subtotal         int64
	Participants     []int64
	Items            []SplitBillItem
}
