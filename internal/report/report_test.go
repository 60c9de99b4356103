package report

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage/sqlstore"
)

func TestExportSplitBill(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.New(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	defer store.Close()

	users := make([]*models.User, 3)
	for i := range users {
		users[i] = &models.User{FirebaseUID: fmt.Sprintf("uid-%d", i), Name: fmt.Sprintf("User %d", i)}
		require.NoError(t, store.CreateUser(ctx, users[i]))
	}

	sb := &models.SplitBill{
		Name:             "Bakmi GM",
		HostID:           users[0].ID,
		WithdrawalMethod: "ID_BCA",
		WithdrawalNumber: "1234567890",
		Total:            30000,
		Subtotal:         30000,
		Bills: []models.Bill{
			{UserID: users[0].ID, Amount: 10000},
			{UserID: users[1].ID, Amount: 10000},
			{UserID: users[2].ID, Amount: 10000},
		},
	}
	require.NoError(t, store.CreateSplitBill(ctx, sb))

	payment := &models.Payment{
		BillID:      sb.Bills[1].ID,
		Status:      models.PaymentStatusAwaitingPayment,
		Method:      models.PaymentMethodInvoice,
		ReferenceNo: "inv_1",
		Amount:      10000,
	}
	require.NoError(t, store.CreatePayment(ctx, payment))
	_, err = store.MarkPaymentPaid(ctx, payment.ID, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = store.UpdateBillStatus(ctx, sb.Bills[1].ID, models.BillStatusPaid)
	require.NoError(t, err)

	f, name, err := NewExporter(store).SplitBill(ctx, sb.ID)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, name, "Bakmi_GM_Export_")

	assert.Equal(t, []string{summarySheet, billsSheet}, f.GetSheetList())

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	values := make(map[string]string)
	for _, row := range summary {
		require.Len(t, row, 2)
		values[row[0]] = row[1]
	}
	assert.Equal(t, "User 0", values["Host"])
	assert.Equal(t, "10000", values["Collected"])
	assert.Equal(t, "10000", values["Outstanding"])
	assert.Equal(t, "NOT_CREATED", values["Payout status"])

	bills, err := f.GetRows(billsSheet)
	require.NoError(t, err)
	require.Len(t, bills, 4)
	assert.Equal(t, "Payment reference", bills[0][4])
	assert.Equal(t, []string{
		fmt.Sprint(sb.Bills[1].ID), "User 1", "10000", "PAID", "inv_1", "PAID", "2026-05-01T10:00:00Z",
	}, bills[2])
	assert.Equal(t, "PENDING", bills[3][3])
}

func TestExportMissingSplitBill(t *testing.T) {
	store, err := sqlstore.New(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	defer store.Close()

	_, _, err = NewExporter(store).SplitBill(context.Background(), 42)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Bakmi_GM_Export_2026-05-01.xlsx", FileName(&models.SplitBill{Name: "Bakmi GM"}, now))
	assert.Equal(t, "split_bill_7_Export_2026-05-01.xlsx", FileName(&models.SplitBill{ID: 7, Name: "!!"}, now))
}
