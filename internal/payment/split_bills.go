package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/calculator"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

// SplitBills creates and reads split bills.
type SplitBills struct {
	splitBills storage.SplitBillStore
	bills      storage.BillStore
	users      storage.UserStore
}

// NewSplitBills creates a SplitBills service.
func NewSplitBills(splitBills storage.SplitBillStore, bills storage.BillStore, users storage.UserStore) *SplitBills {
	return &SplitBills{splitBills: splitBills, bills: bills, users: users}
}

// Create computes every participant's share and persists the split bill
// with one PENDING bill per participant.
func (s *SplitBills) Create(ctx context.Context, spec models.CreateSplitBillSpec, host *models.User) (*models.SplitBill, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if spec.WithdrawalMethod == "" || spec.WithdrawalNumber == "" {
		return nil, apperr.Validation("withdrawal method and number are required")
	}
	if len(spec.Participants) == 0 {
		return nil, apperr.Validation("at least one participant is required")
	}

	users, err := s.users.ListUsers(ctx, models.GetUserListSpec{UserIDs: spec.Participants})
	if err != nil {
		return nil, apperr.Dependency("load participants", err)
	}
	known := make(map[int64]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	for _, p := range spec.Participants {
		if !known[p] {
			return nil, apperr.Validation("participant %d does not exist", p)
		}
	}

	items := make([]calculator.Item, len(spec.Items))
	for i, item := range spec.Items {
		items[i] = calculator.Item{
			Description: item.Description,
			Amount:      item.Amount,
			AssignedTo:  item.UserIDs,
		}
	}
	shares, err := calculator.CalculateSplit(items, spec.Total, spec.Subtotal, spec.Participants)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	splitBill := &models.SplitBill{
		Name:             spec.Name,
		HostID:           host.ID,
		WithdrawalMethod: spec.WithdrawalMethod,
		WithdrawalNumber: spec.WithdrawalNumber,
		Details:          spec.Details,
		Total:            spec.Total,
		Subtotal:         spec.Subtotal,
		Bills:            make([]models.Bill, 0, len(spec.Participants)),
	}
	for _, p := range spec.Participants {
		splitBill.Bills = append(splitBill.Bills, models.Bill{
			UserID: p,
			Status: models.BillStatusPending,
			Amount: shares[p].Total,
		})
	}

	if err := s.splitBills.CreateSplitBill(ctx, splitBill); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Validation("participant listed twice")
		}
		return nil, apperr.Dependency("save split bill", err)
	}

	slog.Info("Split bill created",
		"split_bill_id", splitBill.ID,
		"host_id", host.ID,
		"total", splitBill.Total,
		"bills", len(splitBill.Bills),
	)
	return splitBill, nil
}

// Get returns the split bill with its bills.
func (s *SplitBills) Get(ctx context.Context, id int64) (*models.SplitBill, error) {
	splitBill, err := s.splitBills.GetSplitBill(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("load split bill", err)
	}
	if splitBill == nil {
		return nil, apperr.NotFound("split bill", id)
	}
	return splitBill, nil
}

// GetBill returns a single bill.
func (s *SplitBills) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	bill, err := s.bills.GetBill(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("load bill", err)
	}
	if bill == nil {
		return nil, apperr.NotFound("bill", id)
	}
	return bill, nil
}
