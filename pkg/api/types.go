package api

import "time"

type User struct {
	ID           int64     `json:"id"`
	FirebaseUID  string    `json:"firebase_uid"`
	PhoneNumber  string    `json:"phone_number"`
	Username     string    `json:"username,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Bill struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	SplitBillID int64     `json:"split_bill_id"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SplitBill struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	HostID           int64     `json:"user_fund_id"`
	WithdrawalMethod string    `json:"withdrawal_method"`
	WithdrawalNumber string    `json:"withdrawal_number"`
	Details          string    `json:"details,omitempty"`
	Total            int64     `json:"total"`
	Subtotal         int64     `json:"subtotal"`
	Bills            []*Bill   `json:"bills"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Invoice struct {
	ID                 string     `json:"id"`
	ExternalID         string     `json:"external_id"`
	Description        string     `json:"description"`
	InvoiceURL         string     `json:"invoice_url"`
	Status             string     `json:"status"`
	Amount             int64      `json:"amount"`
	ExpiryDate         time.Time  `json:"expiry_date"`
	PaymentMethod      string     `json:"payment_method,omitempty"`
	PaidAmount         int64      `json:"paid_amount,omitempty"`
	PayerEmail         string     `json:"payer_email,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	SuccessRedirectURL string     `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string     `json:"failure_redirect_url,omitempty"`
}

type Payment struct {
	ID          int64      `json:"id"`
	BillID      int64      `json:"bill_id"`
	Status      string     `json:"status"`
	Method      string     `json:"method"`
	ReferenceNo string     `json:"reference_no"`
	ExpiryDate  time.Time  `json:"expiry_date"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Number      string     `json:"number"`
	Amount      int64      `json:"amount"`
	PaymentURL  string     `json:"payment_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Invoice     *Invoice   `json:"invoice,omitempty"`
}

type Payout struct {
	ID                int64  `json:"id,omitempty"`
	SplitBillID       int64  `json:"split_bill_id"`
	ExternalID        string `json:"external_id"`
	ReferenceID       string `json:"reference_id"`
	Amount            int64  `json:"amount"`
	Status            string `json:"status"`
	ChannelCode       string `json:"channel_code"`
	AccountNumber     string `json:"account_number"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
}

// PaymentService

type GetPaymentRequest struct {
	ID int64 `json:"id"`
}

type GetPaymentResponse struct {
	Payment *Payment `json:"data"`
}

type CreatePaymentRequest struct {
	BillID             int64  `json:"bill_id"`
	SuccessRedirectURL string `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string `json:"failure_redirect_url,omitempty"`
}

type CreatePaymentResponse struct {
	Payment *Payment `json:"data"`
}

type UpdateStatusRequest struct {
	BillID int64 `json:"bill_id"`
}

type UpdateStatusResponse struct {
	Payment *Payment `json:"payment"`
	Bill    *Bill    `json:"bill"`
}

type GetPaymentByBillIdRequest struct {
	BillID int64 `json:"bill_id"`
}

type GetPaymentByBillIdResponse struct {
	Payment *Payment `json:"data"`
}

type GetPaymentListRequest struct {
	BillIDs []int64 `json:"bill_ids,omitempty"`
	UserID  int64   `json:"user_id,omitempty"`
	Status  string  `json:"status,omitempty"`
}

type GetPaymentListResponse struct {
	Payments []*Payment `json:"data"`
}

type CreateInvoiceForPaymentRequest struct {
	PaymentID          int64  `json:"payment_id"`
	PayerEmail         string `json:"payer_email,omitempty"`
	SuccessRedirectURL string `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string `json:"failure_redirect_url,omitempty"`
}

type CreateInvoiceForPaymentResponse struct {
	Payment *Payment `json:"payment"`
	Invoice *Invoice `json:"invoice"`
}

type GetPayoutRequest struct {
	SplitBillID int64 `json:"split_bill_id"`
}

type GetPayoutResponse struct {
	Payout *Payout `json:"data"`
}

// CreatePayoutRequest is shared by CreatePayout and GetOrCreatePayout.
// A zero amount pays out everything collected.
type CreatePayoutRequest struct {
	SplitBillID int64  `json:"split_bill_id"`
	Amount      int64  `json:"amount,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreatePayoutResponse struct {
	Payout *Payout `json:"data"`
}

// AuthService

type LoginRequest struct {
	Token string `json:"token"`
}

type LoginResponse struct {
	User *User `json:"data"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"data"`
}

// UserService

// GetUserRequest looks a user up by ID or, if ID is zero, by username.
type GetUserRequest struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

type GetUserResponse struct {
	User *User `json:"data"`
}

type GetUserListRequest struct {
	UserIDs      []int64  `json:"user_ids,omitempty"`
	Usernames    []string `json:"usernames,omitempty"`
	FirebaseUIDs []string `json:"firebase_uids,omitempty"`
}

type GetUserListResponse struct {
	Users []*User `json:"data"`
}

// UpdateUserRequest updates the calling user's profile.
type UpdateUserRequest struct {
	Username     string `json:"username,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type UpdateUserResponse struct {
	User *User `json:"data"`
}

// SplitBillService

type SplitBillItem struct {
	Description string  `json:"description"`
	Amount      int64   `json:"amount"`
	UserIDs     []int64 `json:"user_ids"`
}

type CreateSplitBillRequest struct {
	Name             string          `json:"name"`
	WithdrawalMethod string          `json:"withdrawal_method"`
	WithdrawalNumber string          `json:"withdrawal_number"`
	Details          string          `json:"details,omitempty"`
	Total            int64           `json:"total"`
	Subtotal         int64           `json:"subtotal"`
	Participants     []int64         `json:"user_ids"`
	Items            []SplitBillItem `json:"items,omitempty"`
}

type CreateSplitBillResponse struct {
	SplitBill *SplitBill `json:"data"`
}

type GetSplitBillRequest struct {
	ID int64 `json:"id"`
}

type GetSplitBillResponse struct {
	SplitBill *SplitBill `json:"data"`
}

type GetBillRequest struct {
	ID int64 `json:"id"`
}

type GetBillResponse struct {
	Bill *Bill `json:"data"`
}
