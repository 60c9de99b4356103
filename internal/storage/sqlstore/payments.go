package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

const paymentColumns = `p.id, p.bill_id, p.status, p.method, p.reference_no, p.expiry_date, p.paid_at,
	p.number, p.amount, p.payment_url, p.created_at, p.updated_at, p.deleted_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	var (
		status                           string
		expiryDate, createdAt, updatedAt int64
		paidAt, deletedAt                sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.BillID, &status, &p.Method, &p.ReferenceNo, &expiryDate, &paidAt,
		&p.Number, &p.Amount, &p.PaymentURL, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	p.ExpiryDate = fromUnix(expiryDate)
	p.PaidAt = fromNullUnix(paidAt)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	p.DeletedAt = fromNullUnix(deletedAt)
	return p, nil
}

// CreatePayment inserts a payment. A bill can only have one live payment.
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	now := s.now()
	payment.CreatedAt, payment.UpdatedAt = now, now

	err := s.queryRow(ctx, `
		INSERT INTO payments (bill_id, status, method, reference_no, expiry_date, paid_at, number, amount, payment_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		payment.BillID, string(payment.Status), payment.Method, payment.ReferenceNo, unix(payment.ExpiryDate),
		nullUnix(payment.PaidAt), payment.Number, payment.Amount, payment.PaymentURL, unix(now), unix(now),
	).Scan(&payment.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to insert payment for bill %d: %w", payment.BillID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// UpdatePayment writes every mutable field of the payment.
func (s *Store) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = s.now()
	res, err := s.exec(ctx, `
		UPDATE payments
		SET status = ?, method = ?, reference_no = ?, expiry_date = ?, paid_at = ?, number = ?, amount = ?, payment_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		string(payment.Status), payment.Method, payment.ReferenceNo, unix(payment.ExpiryDate), nullUnix(payment.PaidAt),
		payment.Number, payment.Amount, payment.PaymentURL, unix(payment.UpdatedAt), payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment not found: %d", payment.ID)
	}
	return nil
}

// MarkPaymentPaid conditionally moves the payment to PAID.
func (s *Store) MarkPaymentPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE payments SET status = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND status <> ? AND deleted_at IS NULL`,
		string(models.PaymentStatusPaid), unix(paidAt), unix(s.now()), id, string(models.PaymentStatusPaid),
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}
	return n > 0, nil
}

// DeletePayment removes a payment row.
func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	return s.getPaymentBy(ctx, "p.id", id)
}

// GetPaymentByBillID retrieves the live payment of a bill.
func (s *Store) GetPaymentByBillID(ctx context.Context, billID int64) (*models.Payment, error) {
	return s.getPaymentBy(ctx, "p.bill_id", billID)
}

// GetPaymentByReferenceNo retrieves the payment currently backed by a gateway invoice.
func (s *Store) GetPaymentByReferenceNo(ctx context.Context, referenceNo string) (*models.Payment, error) {
	return s.getPaymentBy(ctx, "p.reference_no", referenceNo)
}

func (s *Store) getPaymentBy(ctx context.Context, column string, value any) (*models.Payment, error) {
	payment, err := scanPayment(s.queryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE `+column+` = ? AND p.deleted_at IS NULL`,
		value,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by %s: %w", column, err)
	}
	return payment, nil
}

// ListPayments retrieves payments matching every filter set in spec.
func (s *Store) ListPayments(ctx context.Context, spec models.GetPaymentListSpec) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p`
	where := []string{"p.deleted_at IS NULL"}
	var args []any

	if spec.UserID != 0 {
		query += ` JOIN bills b ON b.id = p.bill_id`
		where = append(where, "b.user_id = ?", "b.deleted_at IS NULL")
		args = append(args, spec.UserID)
	}
	if len(spec.BillIDs) > 0 {
		where = append(where, "p.bill_id IN ("+repeatPlaceholder(len(spec.BillIDs))+")")
		for _, id := range spec.BillIDs {
			args = append(args, id)
		}
	}
	if spec.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, string(spec.Status))
	}
	query += " WHERE " + strings.Join(where, " AND ") + " ORDER BY p.id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
