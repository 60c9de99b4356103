package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/internal/middleware"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/payment"
	"github.com/paytungan/paytungan/pkg/api"
)

// PaymentService implements the Connect PaymentService on top of the
// payment engine.
type PaymentService struct {
	engine *payment.Engine
	logger *slog.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(engine *payment.Engine) *PaymentService {
	return &PaymentService{engine: engine, logger: slog.Default()}
}

// GetPayment returns the payment decorated with its live invoice. A missing
// payment yields an empty response, not an error.
func (s *PaymentService) GetPayment(ctx context.Context, req *connect.Request[api.GetPaymentRequest]) (*connect.Response[api.GetPaymentResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	p, err := s.engine.GetPayment(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetPayment failed", err, "payment_id", req.Msg.ID)
	}
	return connect.NewResponse(&api.GetPaymentResponse{Payment: toPayment(p)}), nil
}

func (s *PaymentService) CreatePayment(ctx context.Context, req *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	user := middleware.GetUser(ctx)
	slog.Debug("CreatePayment request", "bill_id", req.Msg.BillID, "user_id", user.ID)

	p, err := s.engine.CreatePayment(ctx, models.CreatePaymentSpec{
		BillID:             req.Msg.BillID,
		SuccessRedirectURL: req.Msg.SuccessRedirectURL,
		FailureRedirectURL: req.Msg.FailureRedirectURL,
	}, user)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreatePayment failed", err, "bill_id", req.Msg.BillID, "user_id", user.ID)
	}
	return connect.NewResponse(&api.CreatePaymentResponse{Payment: toPayment(p)}), nil
}

// UpdateStatus reconciles the bill's payment with the gateway. Safe to call
// repeatedly.
func (s *PaymentService) UpdateStatus(ctx context.Context, req *connect.Request[api.UpdateStatusRequest]) (*connect.Response[api.UpdateStatusResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	result, err := s.engine.UpdateStatus(ctx, models.UpdateStatusSpec{BillID: req.Msg.BillID})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "UpdateStatus failed", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.UpdateStatusResponse{
		Payment: toPayment(result.Payment),
		Bill:    toBill(result.Bill),
	}), nil
}

func (s *PaymentService) GetPaymentByBillId(ctx context.Context, req *connect.Request[api.GetPaymentByBillIdRequest]) (*connect.Response[api.GetPaymentByBillIdResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	p, err := s.engine.GetPaymentByBillID(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetPaymentByBillId failed", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.GetPaymentByBillIdResponse{Payment: toPayment(p)}), nil
}

func (s *PaymentService) GetPaymentList(ctx context.Context, req *connect.Request[api.GetPaymentListRequest]) (*connect.Response[api.GetPaymentListResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	payments, err := s.engine.GetPaymentList(ctx, models.GetPaymentListSpec{
		BillIDs: req.Msg.BillIDs,
		UserID:  req.Msg.UserID,
		Status:  models.PaymentStatus(req.Msg.Status),
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetPaymentList failed", err)
	}
	return connect.NewResponse(&api.GetPaymentListResponse{Payments: toPayments(payments)}), nil
}

func (s *PaymentService) CreateInvoiceForPayment(ctx context.Context, req *connect.Request[api.CreateInvoiceForPaymentRequest]) (*connect.Response[api.CreateInvoiceForPaymentResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	result, err := s.engine.CreateInvoiceForPayment(ctx, models.CreateInvoicePaymentSpec{
		PaymentID:          req.Msg.PaymentID,
		PayerEmail:         req.Msg.PayerEmail,
		SuccessRedirectURL: req.Msg.SuccessRedirectURL,
		FailureRedirectURL: req.Msg.FailureRedirectURL,
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreateInvoiceForPayment failed", err, "payment_id", req.Msg.PaymentID)
	}
	return connect.NewResponse(&api.CreateInvoiceForPaymentResponse{
		Payment: toPayment(result.Payment),
		Invoice: toInvoice(result.Invoice),
	}), nil
}

func (s *PaymentService) GetPayout(ctx context.Context, req *connect.Request[api.GetPayoutRequest]) (*connect.Response[api.GetPayoutResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	p, err := s.engine.GetPayout(ctx, req.Msg.SplitBillID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetPayout failed", err, "split_bill_id", req.Msg.SplitBillID)
	}
	return connect.NewResponse(&api.GetPayoutResponse{Payout: toPayout(p)}), nil
}

func (s *PaymentService) CreatePayout(ctx context.Context, req *connect.Request[api.CreatePayoutRequest]) (*connect.Response[api.CreatePayoutResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	p, err := s.engine.CreatePayout(ctx, payoutSpec(req.Msg))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreatePayout failed", err, "split_bill_id", req.Msg.SplitBillID)
	}
	return connect.NewResponse(&api.CreatePayoutResponse{Payout: toPayout(p)}), nil
}

// GetOrCreatePayout returns the split bill's payout, creating it only if
// none exists.
func (s *PaymentService) GetOrCreatePayout(ctx context.Context, req *connect.Request[api.CreatePayoutRequest]) (*connect.Response[api.CreatePayoutResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	p, err := s.engine.GetOrCreatePayout(ctx, payoutSpec(req.Msg))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetOrCreatePayout failed", err, "split_bill_id", req.Msg.SplitBillID)
	}
	return connect.NewResponse(&api.CreatePayoutResponse{Payout: toPayout(p)}), nil
}

func payoutSpec(msg *api.CreatePayoutRequest) models.CreatePayoutSpec {
	return models.CreatePayoutSpec{
		SplitBillID: msg.SplitBillID,
		Amount:      msg.Amount,
		Description: msg.Description,
	}
}
