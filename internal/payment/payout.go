package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/calculator"
	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

// GetPayout returns the split bill's payout, or nil if none exists. The local
// row is brought up to date with the gateway's view.
func (e *Engine) GetPayout(ctx context.Context, splitBillID int64) (*models.Payout, error) {
	local, err := e.payouts.GetPayoutBySplitBillID(ctx, splitBillID)
	if err != nil {
		return nil, apperr.Dependency("load payout", err)
	}
	remote, err := e.getPayout(ctx, splitBillID)
	if err != nil {
		return nil, err
	}

	switch {
	case remote == nil:
		return local, nil
	case local == nil:
		return e.adoptPayout(ctx, splitBillID, remote)
	}

	if local.ExternalID != remote.ExternalID || local.Status != remote.Status || local.Amount != remote.Amount {
		local.Sync(remote)
		if err := e.payouts.UpdatePayout(ctx, local); err != nil {
			return nil, apperr.Dependency("save payout", err)
		}
	}
	return local, nil
}

// adoptPayout records a payout the gateway has but the store lost, e.g.
// after a claim was released on a timeout the gateway did not honor.
func (e *Engine) adoptPayout(ctx context.Context, splitBillID int64, remote *models.Payout) (*models.Payout, error) {
	remote.SplitBillID = splitBillID
	err := e.payouts.CreatePayout(ctx, remote)
	if errors.Is(err, storage.ErrConflict) {
		local, err := e.payouts.GetPayoutBySplitBillID(ctx, splitBillID)
		if err != nil {
			return nil, apperr.Dependency("load payout", err)
		}
		return local, nil
	}
	if err != nil {
		return nil, apperr.Dependency("save payout", err)
	}
	e.logger.Warn("Adopted gateway payout missing locally", "split_bill_id", splitBillID, "external_id", remote.ExternalID)
	return remote, nil
}

// CreatePayout pays the split bill's collected funds out to its host.
// Without an explicit amount, every guest bill must be paid and the payout
// carries their sum.
func (e *Engine) CreatePayout(ctx context.Context, spec models.CreatePayoutSpec) (*models.Payout, error) {
	splitBill, err := e.splitBills.GetSplitBill(ctx, spec.SplitBillID)
	if err != nil {
		return nil, apperr.Dependency("load split bill", err)
	}
	if splitBill == nil {
		return nil, apperr.NotFound("split bill", spec.SplitBillID)
	}

	amount := spec.Amount
	if amount == 0 {
		collection := calculator.Summarize(collectionBills(splitBill.Bills), splitBill.HostID)
		if !collection.Complete() {
			return nil, apperr.Validation("split bill %d still has %d unpaid bills", splitBill.ID, collection.UnpaidBills)
		}
		amount = collection.Collected
	}
	if amount <= 0 {
		return nil, apperr.Validation("payout amount must be positive")
	}

	claim := &models.Payout{
		SplitBillID:       splitBill.ID,
		ReferenceID:       gateway.PayoutReferenceID(splitBill.ID),
		Amount:            amount,
		Status:            models.PayoutStatusPendingNew,
		ChannelCode:       splitBill.WithdrawalMethod,
		AccountNumber:     splitBill.WithdrawalNumber,
		AccountHolderName: e.accountHolderName(ctx, splitBill.HostID),
	}
	if err := e.payouts.CreatePayout(ctx, claim); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, &apperr.Error{
				Kind:    apperr.KindValidation,
				Message: fmt.Sprintf("payout already exists for split bill %d", splitBill.ID),
				Err:     err,
			}
		}
		return nil, apperr.Dependency("claim payout", err)
	}

	return e.submitPayout(ctx, claim, spec.Description)
}

// submitPayout creates the gateway payout for a claimed row. On failure the
// claim is released so the caller may retry; the idempotency key keeps a
// retry from paying out twice.
func (e *Engine) submitPayout(ctx context.Context, claim *models.Payout, description string) (*models.Payout, error) {
	if description == "" {
		description = fmt.Sprintf("Paytungan payout for split bill #%d", claim.SplitBillID)
	}
	remote, err := e.createPayout(ctx, models.CreateGatewayPayoutSpec{
		ReferenceID:       claim.ReferenceID,
		IdempotencyKey:    gateway.PayoutIdempotencyKey(claim.SplitBillID),
		Amount:            claim.Amount,
		ChannelCode:       claim.ChannelCode,
		AccountNumber:     claim.AccountNumber,
		AccountHolderName: claim.AccountHolderName,
		Description:       description,
	})
	if err != nil {
		e.metrics.ObservePayout("failed")
		if delErr := e.payouts.DeletePayout(ctx, claim.ID); delErr != nil {
			e.logger.Error("Failed to release payout claim", "split_bill_id", claim.SplitBillID, "error", delErr)
		}
		return nil, err
	}

	claim.Sync(remote)
	if err := e.payouts.UpdatePayout(ctx, claim); err != nil {
		return nil, apperr.Dependency("save payout", err)
	}
	e.metrics.ObservePayout("created")
	e.logger.Info("Payout created",
		"split_bill_id", claim.SplitBillID,
		"external_id", claim.ExternalID,
		"amount", claim.Amount,
		"status", claim.Status,
	)
	return claim, nil
}

// payoutPollInterval is how often GetOrCreatePayout re-reads a payout
// another caller is still submitting.
const payoutPollInterval = 25 * time.Millisecond

// GetOrCreatePayout returns the split bill's payout, creating it first if
// there is none. Concurrent callers all get the same submitted payout and
// the gateway is asked to create it at most once. A claim that was never
// submitted, e.g. after a crash, is submitted again under its idempotency key.
func (e *Engine) GetOrCreatePayout(ctx context.Context, spec models.CreatePayoutSpec) (*models.Payout, error) {
	// The claimant's gateway call ends within the gateway timeout.
	deadline := time.Now().Add(e.gatewayTimeout)
	for {
		payout, err := e.GetPayout(ctx, spec.SplitBillID)
		if err != nil {
			return nil, err
		}
		if payout == nil {
			payout, err = e.CreatePayout(ctx, spec)
			if errors.Is(err, storage.ErrConflict) {
				e.logger.Debug("Payout claimed concurrently", "split_bill_id", spec.SplitBillID)
				continue
			}
			return payout, err
		}
		if payout.ExternalID != "" {
			return payout, nil
		}

		if e.now().Sub(payout.CreatedAt) > e.gatewayTimeout || !time.Now().Before(deadline) {
			e.logger.Warn("Resubmitting abandoned payout claim", "split_bill_id", payout.SplitBillID, "payout_id", payout.ID)
			return e.submitPayout(ctx, payout, spec.Description)
		}

		timer := time.NewTimer(payoutPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperr.Dependency("wait for payout", ctx.Err())
		case <-timer.C:
		}
	}
}

func (e *Engine) accountHolderName(ctx context.Context, userID int64) string {
	if e.users == nil {
		return ""
	}
	user, err := e.users.GetUser(ctx, userID)
	if err != nil || user == nil {
		e.logger.Warn("Payout account holder unresolved", "user_id", userID, "error", err)
		return ""
	}
	return user.Name
}

func collectionBills(bills []models.Bill) []calculator.BillForCollection {
	out := make([]calculator.BillForCollection, len(bills))
	for i, b := range bills {
		out[i] = calculator.BillForCollection{UserID: b.UserID, Amount: b.Amount, Paid: b.IsPaid()}
	}
	return out
}
