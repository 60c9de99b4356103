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

// SplitBillService implements the Connect SplitBillService
type SplitBillService struct {
	splitBills *payment.SplitBills
	logger     *slog.Logger
}

// NewSplitBillService creates a new SplitBillService.
func NewSplitBillService(splitBills *payment.SplitBills) *SplitBillService {
	return &SplitBillService{splitBills: splitBills, logger: slog.Default()}
}

// CreateSplitBill creates a split bill hosted by the caller, with one bill
// per participant.
func (s *SplitBillService) CreateSplitBill(ctx context.Context, req *connect.Request[api.CreateSplitBillRequest]) (*connect.Response[api.CreateSplitBillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	host := middleware.GetUser(ctx)

	items := make([]models.SplitBillItem, len(req.Msg.Items))
	for i, item := range req.Msg.Items {
		slog.Debug("Processing item",
			"index", i+1,
			"description", item.Description,
			"amount", item.Amount,
			"participants", item.UserIDs,
		)
		items[i] = models.SplitBillItem{
			Description: item.Description,
			Amount:      item.Amount,
			UserIDs:     item.UserIDs,
		}
	}

	splitBill, err := s.splitBills.Create(ctx, models.CreateSplitBillSpec{
		Name:             req.Msg.Name,
		WithdrawalMethod: req.Msg.WithdrawalMethod,
		WithdrawalNumber: req.Msg.WithdrawalNumber,
		Details:          req.Msg.Details,
		Total:            req.Msg.Total,
		Subtotal:         req.Msg.Subtotal,
		Participants:     req.Msg.Participants,
		Items:            items,
	}, host)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreateSplitBill failed", err, "host_id", host.ID)
	}
	return connect.NewResponse(&api.CreateSplitBillResponse{SplitBill: toSplitBill(splitBill)}), nil
}

func (s *SplitBillService) GetSplitBill(ctx context.Context, req *connect.Request[api.GetSplitBillRequest]) (*connect.Response[api.GetSplitBillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	splitBill, err := s.splitBills.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetSplitBill failed", err, "split_bill_id", req.Msg.ID)
	}
	return connect.NewResponse(&api.GetSplitBillResponse{SplitBill: toSplitBill(splitBill)}), nil
}

func (s *SplitBillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}
	bill, err := s.splitBills.GetBill(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetBill failed", err, "bill_id", req.Msg.ID)
	}
	return connect.NewResponse(&api.GetBillResponse{Bill: toBill(bill)}), nil
}
