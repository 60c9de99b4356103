// Package report exports the collection state of a split bill to Excel.
package report

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/calculator"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

const (
	summarySheet = "Summary"
	billsSheet   = "Bills"

	// ContentType is the MIME type of the exported workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Stores is what the exporter reads from.
type Stores interface {
	storage.SplitBillStore
	storage.PaymentStore
	storage.PayoutStore
	storage.UserStore
}

// Exporter builds Excel workbooks from stored split bills.
type Exporter struct {
	store Stores
}

// NewExporter creates an Exporter.
func NewExporter(store Stores) *Exporter {
	return &Exporter{store: store}
}

// SplitBill builds a workbook with a Summary sheet and a Bills sheet for the
// given split bill, and its suggested file name. Only stored state is
// exported; the gateway is not asked.
func (e *Exporter) SplitBill(ctx context.Context, id int64) (*excelize.File, string, error) {
	f, splitBill, err := e.splitBill(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return f, FileName(splitBill, time.Now()), nil
}

func (e *Exporter) splitBill(ctx context.Context, id int64) (*excelize.File, *models.SplitBill, error) {
	splitBill, err := e.store.GetSplitBill(ctx, id)
	if err != nil {
		return nil, nil, apperr.Dependency("load split bill", err)
	}
	if splitBill == nil {
		return nil, nil, apperr.NotFound("split bill", id)
	}

	billIDs := make([]int64, len(splitBill.Bills))
	userIDs := make([]int64, len(splitBill.Bills))
	for i, b := range splitBill.Bills {
		billIDs[i] = b.ID
		userIDs[i] = b.UserID
	}

	payments := make(map[int64]*models.Payment)
	if len(billIDs) > 0 {
		list, err := e.store.ListPayments(ctx, models.GetPaymentListSpec{BillIDs: billIDs})
		if err != nil {
			return nil, nil, apperr.Dependency("list payments", err)
		}
		for _, p := range list {
			payments[p.BillID] = p
		}
	}

	names := make(map[int64]string)
	users, err := e.store.ListUsers(ctx, models.GetUserListSpec{UserIDs: append(userIDs, splitBill.HostID)})
	if err != nil {
		return nil, nil, apperr.Dependency("list users", err)
	}
	for _, u := range users {
		names[u.ID] = displayName(u)
	}

	payout, err := e.store.GetPayoutBySplitBillID(ctx, id)
	if err != nil {
		return nil, nil, apperr.Dependency("load payout", err)
	}

	f := excelize.NewFile()
	if err := writeSummary(f, splitBill, names, payout); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeBills(f, splitBill, names, payments); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to create bills sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(summarySheet); err == nil {
		f.SetActiveSheet(index)
	}
	return f, splitBill, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName is the suggested download name for a split bill export.
func FileName(splitBill *models.SplitBill, now time.Time) string {
	name := unsafeFileChars.ReplaceAllString(splitBill.Name, "_")
	if name == "" || name == "_" {
		name = fmt.Sprintf("split_bill_%d", splitBill.ID)
	}
	return fmt.Sprintf("%s_Export_%s.xlsx", name, now.Format("2006-01-02"))
}

func writeSummary(f *excelize.File, sb *models.SplitBill, names map[int64]string, payout *models.Payout) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	bills := make([]calculator.BillForCollection, len(sb.Bills))
	for i, b := range sb.Bills {
		bills[i] = calculator.BillForCollection{UserID: b.UserID, Amount: b.Amount, Paid: b.IsPaid()}
	}
	collection := calculator.Summarize(bills, sb.HostID)

	payoutStatus := "NOT_CREATED"
	var payoutAmount int64
	if payout != nil {
		payoutStatus = string(payout.Status)
		payoutAmount = payout.Amount
	}

	rows := [][]any{
		{"Split bill", sb.Name},
		{"Host", names[sb.HostID]},
		{"Withdrawal", fmt.Sprintf("%s %s", sb.WithdrawalMethod, sb.WithdrawalNumber)},
		{"Subtotal", sb.Subtotal},
		{"Total", sb.Total},
		{"Collected", collection.Collected},
		{"Outstanding", collection.Outstanding},
		{"Paid bills", collection.PaidBills},
		{"Unpaid bills", collection.UnpaidBills},
		{"Payout status", payoutStatus},
		{"Payout amount", payoutAmount},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "B", 20)
}

func writeBills(f *excelize.File, sb *models.SplitBill, names map[int64]string, payments map[int64]*models.Payment) error {
	if _, err := f.NewSheet(billsSheet); err != nil {
		return err
	}

	headers := []any{"Bill", "User", "Amount", "Status", "Payment reference", "Payment status", "Paid at"}
	if err := f.SetSheetRow(billsSheet, "A1", &headers); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(billsSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, b := range sb.Bills {
		row := []any{b.ID, names[b.UserID], b.Amount, string(b.Status), "", "", ""}
		if p := payments[b.ID]; p != nil {
			row[4] = p.ReferenceNo
			row[5] = string(p.Status)
			if p.PaidAt != nil {
				row[6] = p.PaidAt.UTC().Format(time.RFC3339)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(billsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(billsSheet, "A", "G", 18)
}

func displayName(u *models.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return fmt.Sprintf("user #%d", u.ID)
	}
}
