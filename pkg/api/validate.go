package api

import (
	"errors"
	"fmt"
)

// Validate checks request fields before the request reaches a service.

var (
	errIDRequired    = errors.New("id must be positive")
	errBillRequired  = errors.New("bill_id must be positive")
	errSplitRequired = errors.New("split_bill_id must be positive")
)

func (r *GetPaymentRequest) Validate() error {
	if r.ID <= 0 {
		return errIDRequired
	}
	return nil
}

func (r *CreatePaymentRequest) Validate() error {
	if r.BillID <= 0 {
		return errBillRequired
	}
	return nil
}

func (r *UpdateStatusRequest) Validate() error {
	if r.BillID <= 0 {
		return errBillRequired
	}
	return nil
}

func (r *GetPaymentByBillIdRequest) Validate() error {
	if r.BillID <= 0 {
		return errBillRequired
	}
	return nil
}

func (r *GetPaymentListRequest) Validate() error {
	for _, id := range r.BillIDs {
		if id <= 0 {
			return fmt.Errorf("bill_ids contains invalid id %d", id)
		}
	}
	if r.UserID < 0 {
		return errors.New("user_id must be positive")
	}
	switch r.Status {
	case "", "PENDING_NEW", "AWAITING_PAYMENT", "PAID":
		return nil
	default:
		return fmt.Errorf("unknown payment status %q", r.Status)
	}
}

func (r *CreateInvoiceForPaymentRequest) Validate() error {
	if r.PaymentID <= 0 {
		return errors.New("payment_id must be positive")
	}
	return nil
}

func (r *GetPayoutRequest) Validate() error {
	if r.SplitBillID <= 0 {
		return errSplitRequired
	}
	return nil
}

func (r *CreatePayoutRequest) Validate() error {
	if r.SplitBillID <= 0 {
		return errSplitRequired
	}
	if r.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	if r.Token == "" {
		return errors.New("token is required")
	}
	return nil
}

func (r *GetUserRequest) Validate() error {
	if r.ID <= 0 && r.Username == "" {
		return errors.New("id or username is required")
	}
	return nil
}

func (r *CreateSplitBillRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Total <= 0 || r.Subtotal <= 0 {
		return errors.New("total and subtotal must be positive")
	}
	if len(r.Participants) == 0 {
		return errors.New("user_ids must not be empty")
	}
	for _, item := range r.Items {
		if item.Amount <= 0 {
			return fmt.Errorf("item %q must have a positive amount", item.Description)
		}
	}
	return nil
}

func (r *GetSplitBillRequest) Validate() error {
	if r.ID <= 0 {
		return errIDRequired
	}
	return nil
}

func (r *GetBillRequest) Validate() error {
	if r.ID <= 0 {
		return errIDRequired
	}
	return nil
}
