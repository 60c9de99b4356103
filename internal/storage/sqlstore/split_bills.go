package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

const billColumns = `id, user_id, split_bill_id, status, amount, details, created_at, updated_at, deleted_at`

func scanBill(row rowScanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var (
		status               string
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	if err := row.Scan(&bill.ID, &bill.UserID, &bill.SplitBillID, &status, &bill.Amount, &bill.Details,
		&createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	bill.Status = models.BillStatus(status)
	bill.CreatedAt = fromUnix(createdAt)
	bill.UpdatedAt = fromUnix(updatedAt)
	bill.DeletedAt = fromNullUnix(deletedAt)
	return bill, nil
}

// CreateSplitBill persists a split bill and its bills in one transaction.
func (s *Store) CreateSplitBill(ctx context.Context, splitBill *models.SplitBill) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		now := s.now()
		splitBill.CreatedAt, splitBill.UpdatedAt = now, now

		err := s.queryRow(ctx, `
			INSERT INTO split_bills (name, host_id, withdrawal_method, withdrawal_number, details, total, subtotal, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			splitBill.Name, splitBill.HostID, splitBill.WithdrawalMethod, splitBill.WithdrawalNumber,
			splitBill.Details, splitBill.Total, splitBill.Subtotal, unix(now), unix(now),
		).Scan(&splitBill.ID)
		if err != nil {
			return fmt.Errorf("failed to insert split bill: %w", err)
		}

		for i := range splitBill.Bills {
			bill := &splitBill.Bills[i]
			bill.SplitBillID = splitBill.ID
			bill.CreatedAt, bill.UpdatedAt = now, now
			if bill.Status == "" {
				bill.Status = models.BillStatusPending
			}

			err := s.queryRow(ctx, `
				INSERT INTO bills (user_id, split_bill_id, status, amount, details, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				bill.UserID, bill.SplitBillID, string(bill.Status), bill.Amount, bill.Details, unix(now), unix(now),
			).Scan(&bill.ID)
			if isUniqueViolation(err) {
				return fmt.Errorf("failed to insert bill for user %d: %w", bill.UserID, storage.ErrConflict)
			}
			if err != nil {
				return fmt.Errorf("failed to insert bill: %w", err)
			}
		}
		return nil
	})
}

// GetSplitBill retrieves a split bill by ID, including its bills.
func (s *Store) GetSplitBill(ctx context.Context, id int64) (*models.SplitBill, error) {
	sb := &models.SplitBill{}
	var (
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	err := s.queryRow(ctx, `
		SELECT id, name, host_id, withdrawal_method, withdrawal_number, details, total, subtotal, created_at, updated_at, deleted_at
		FROM split_bills WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&sb.ID, &sb.Name, &sb.HostID, &sb.WithdrawalMethod, &sb.WithdrawalNumber, &sb.Details,
		&sb.Total, &sb.Subtotal, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split bill: %w", err)
	}
	sb.CreatedAt = fromUnix(createdAt)
	sb.UpdatedAt = fromUnix(updatedAt)
	sb.DeletedAt = fromNullUnix(deletedAt)

	bills, err := s.ListBillsBySplitBill(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		sb.Bills = append(sb.Bills, *b)
	}
	return sb, nil
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	bill, err := scanBill(s.queryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND deleted_at IS NULL`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// ListBillsBySplitBill retrieves all bills of a split bill ordered by ID.
func (s *Store) ListBillsBySplitBill(ctx context.Context, splitBillID int64) ([]*models.Bill, error) {
	rows, err := s.query(ctx,
		`SELECT `+billColumns+` FROM bills WHERE split_bill_id = ? AND deleted_at IS NULL ORDER BY id`,
		splitBillID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

// UpdateBillStatus conditionally moves the bill to status. A bill already in
// that status is left untouched, so concurrent writers transition it once.
func (s *Store) UpdateBillStatus(ctx context.Context, id int64, status models.BillStatus) (*models.Bill, error) {
	_, err := s.exec(ctx,
		`UPDATE bills SET status = ?, updated_at = ? WHERE id = ? AND status <> ? AND deleted_at IS NULL`,
		string(status), unix(s.now()), id, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update bill status: %w", err)
	}

	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, fmt.Errorf("bill not found: %d", id)
	}
	return bill, nil
}
