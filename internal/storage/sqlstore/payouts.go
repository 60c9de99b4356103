package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

// CreatePayout persists a new payout. The split bill must not have one yet.
func (s *Store) CreatePayout(ctx context.Context, payout *models.Payout) error {
	now := s.now()
	payout.CreatedAt, payout.UpdatedAt = now, now

	err := s.queryRow(ctx, `
		INSERT INTO payouts (split_bill_id, external_id, reference_id, amount, status, channel_code, account_number, account_holder_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		payout.SplitBillID, payout.ExternalID, payout.ReferenceID, payout.Amount, string(payout.Status),
		payout.ChannelCode, payout.AccountNumber, payout.AccountHolderName, unix(now), unix(now),
	).Scan(&payout.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to insert payout for split bill %d: %w", payout.SplitBillID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payout: %w", err)
	}
	return nil
}

// GetPayoutBySplitBillID retrieves the payout of a split bill.
func (s *Store) GetPayoutBySplitBillID(ctx context.Context, splitBillID int64) (*models.Payout, error) {
	p := &models.Payout{}
	var (
		status               string
		createdAt, updatedAt int64
	)
	err := s.queryRow(ctx, `
		SELECT id, split_bill_id, external_id, reference_id, amount, status, channel_code, account_number, account_holder_name, created_at, updated_at
		FROM payouts WHERE split_bill_id = ?`,
		splitBillID,
	).Scan(&p.ID, &p.SplitBillID, &p.ExternalID, &p.ReferenceID, &p.Amount, &status,
		&p.ChannelCode, &p.AccountNumber, &p.AccountHolderName, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	p.Status = models.PayoutStatus(status)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return p, nil
}

// UpdatePayout writes the gateway-owned fields of a payout.
func (s *Store) UpdatePayout(ctx context.Context, payout *models.Payout) error {
	payout.UpdatedAt = s.now()
	res, err := s.exec(ctx, `
		UPDATE payouts
		SET external_id = ?, reference_id = ?, amount = ?, status = ?, channel_code = ?, account_number = ?, account_holder_name = ?, updated_at = ?
		WHERE id = ?`,
		payout.ExternalID, payout.ReferenceID, payout.Amount, string(payout.Status), payout.ChannelCode,
		payout.AccountNumber, payout.AccountHolderName, unix(payout.UpdatedAt), payout.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payout not found: %d", payout.ID)
	}
	return nil
}

// DeletePayout removes a payout row.
func (s *Store) DeletePayout(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM payouts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete payout: %w", err)
	}
	return nil
}
