package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
)

func TestSplitBillsCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewSplitBills(f.store, f.store, f.store)

	spec := models.CreateSplitBillSpec{
		Name:             "Bakmi GM",
		WithdrawalMethod: "ID_BCA",
		WithdrawalNumber: "1234567890",
		Total:            33000,
		Subtotal:         30000,
		Participants:     []int64{f.host.ID, f.payer.ID},
		Items: []models.SplitBillItem{
			{Description: "Bakmi", Amount: 20000, UserIDs: []int64{f.host.ID, f.payer.ID}},
			{Description: "Es Teh", Amount: 10000, UserIDs: []int64{f.host.ID}},
		},
	}

	sb, err := svc.Create(ctx, spec, f.host)
	require.NoError(t, err)
	require.Len(t, sb.Bills, 2)
	assert.Equal(t, f.host.ID, sb.HostID)
	assert.Equal(t, int64(22000), sb.Bills[0].Amount)
	assert.Equal(t, int64(11000), sb.Bills[1].Amount)

	got, err := svc.Get(ctx, sb.ID)
	require.NoError(t, err)
	var sum int64
	for _, b := range got.Bills {
		sum += b.Amount
		assert.Equal(t, models.BillStatusPending, b.Status)
	}
	assert.Equal(t, spec.Total, sum)

	bill, err := svc.GetBill(ctx, sb.Bills[1].ID)
	require.NoError(t, err)
	assert.Equal(t, f.payer.ID, bill.UserID)
}

func TestSplitBillsCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewSplitBills(f.store, f.store, f.store)

	base := models.CreateSplitBillSpec{
		Name:             "Trip",
		WithdrawalMethod: "ID_BCA",
		WithdrawalNumber: "1",
		Total:            100,
		Subtotal:         100,
		Participants:     []int64{f.host.ID},
	}

	tests := []struct {
		name   string
		modify func(*models.CreateSplitBillSpec)
	}{
		{"missing name", func(s *models.CreateSplitBillSpec) { s.Name = " " }},
		{"missing withdrawal", func(s *models.CreateSplitBillSpec) { s.WithdrawalNumber = "" }},
		{"no participants", func(s *models.CreateSplitBillSpec) { s.Participants = nil }},
		{"unknown participant", func(s *models.CreateSplitBillSpec) { s.Participants = []int64{f.host.ID, 9999} }},
		{"total below subtotal", func(s *models.CreateSplitBillSpec) { s.Total = 50 }},
		{"duplicate participant", func(s *models.CreateSplitBillSpec) { s.Participants = []int64{f.host.ID, f.host.ID} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.modify(&spec)
			_, err := svc.Create(ctx, spec, f.host)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestSplitBillsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewSplitBills(f.store, f.store, f.store)

	_, err := svc.Get(context.Background(), 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.GetBill(context.Background(), 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
