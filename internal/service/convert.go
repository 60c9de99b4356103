package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/pkg/api"
)

// validator is implemented by every request message.
type validator interface {
	Validate() error
}

func validate(msg validator) error {
	if err := msg.Validate(); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// toConnectError logs err and converts it into the error returned to the
// caller. Client mistakes are logged at warn, failures at error.
func toConnectError(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) error {
	level := slog.LevelError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindValidation, apperr.KindUnauthenticated:
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, msg, append(args, "error", err)...)
	return apperr.ToConnect(err)
}

func toUser(u *models.User) *api.User {
	if u == nil {
		return nil
	}
	return &api.User{
		ID:           u.ID,
		FirebaseUID:  u.FirebaseUID,
		PhoneNumber:  u.PhoneNumber,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUsers(users []*models.User) []*api.User {
	out := make([]*api.User, len(users))
	for i, u := range users {
		out[i] = toUser(u)
	}
	return out
}

func toBill(b *models.Bill) *api.Bill {
	if b == nil {
		return nil
	}
	return &api.Bill{
		ID:          b.ID,
		UserID:      b.UserID,
		SplitBillID: b.SplitBillID,
		Status:      string(b.Status),
		Amount:      b.Amount,
		Details:     b.Details,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toSplitBill(sb *models.SplitBill) *api.SplitBill {
	if sb == nil {
		return nil
	}
	bills := make([]*api.Bill, len(sb.Bills))
	for i := range sb.Bills {
		bills[i] = toBill(&sb.Bills[i])
	}
	return &api.SplitBill{
		ID:               sb.ID,
		Name:             sb.Name,
		HostID:           sb.HostID,
		WithdrawalMethod: sb.WithdrawalMethod,
		WithdrawalNumber: sb.WithdrawalNumber,
		Details:          sb.Details,
		Total:            sb.Total,
		Subtotal:         sb.Subtotal,
		Bills:            bills,
		CreatedAt:        sb.CreatedAt,
		UpdatedAt:        sb.UpdatedAt,
	}
}

func toInvoice(inv *models.Invoice) *api.Invoice {
	if inv == nil {
		return nil
	}
	return &api.Invoice{
		ID:                 inv.ID,
		ExternalID:         inv.ExternalID,
		Description:        inv.Description,
		InvoiceURL:         inv.URL,
		Status:             string(inv.Status),
		Amount:             inv.Amount,
		ExpiryDate:         inv.ExpiryDate,
		PaymentMethod:      inv.PaymentMethod,
		PaidAmount:         inv.PaidAmount,
		PayerEmail:         inv.PayerEmail,
		PaidAt:             inv.PaidAt,
		SuccessRedirectURL: inv.SuccessRedirectURL,
		FailureRedirectURL: inv.FailureRedirectURL,
	}
}

func toPayment(p *models.Payment) *api.Payment {
	if p == nil {
		return nil
	}
	return &api.Payment{
		ID:          p.ID,
		BillID:      p.BillID,
		Status:      string(p.Status),
		Method:      p.Method,
		ReferenceNo: p.ReferenceNo,
		ExpiryDate:  p.ExpiryDate,
		PaidAt:      p.PaidAt,
		Number:      p.Number,
		Amount:      p.Amount,
		PaymentURL:  p.PaymentURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Invoice:     toInvoice(p.Invoice),
	}
}

func toPayments(payments []*models.Payment) []*api.Payment {
	out := make([]*api.Payment, len(payments))
	for i, p := range payments {
		out[i] = toPayment(p)
	}
	return out
}

func toPayout(p *models.Payout) *api.Payout {
	if p == nil {
		return nil
	}
	return &api.Payout{
		ID:                p.ID,
		SplitBillID:       p.SplitBillID,
		ExternalID:        p.ExternalID,
		ReferenceID:       p.ReferenceID,
		Amount:            p.Amount,
		Status:            string(p.Status),
		ChannelCode:       p.ChannelCode,
		AccountNumber:     p.AccountNumber,
		AccountHolderName: p.AccountHolderName,
	}
}
