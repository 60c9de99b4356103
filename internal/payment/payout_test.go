package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

// payBill runs the payer's bill through invoice creation and settlement.
func (f *fixture) payBill(t *testing.T) {
	t.Helper()
	payment := f.createPayment(t)
	require.NoError(t, f.gw.MarkPaid(payment.ReferenceNo))
	_, err := f.engine.UpdateStatus(context.Background(), models.UpdateStatusSpec{BillID: f.bill.ID})
	require.NoError(t, err)
}

func TestCreatePayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	spec := models.CreatePayoutSpec{SplitBillID: f.splitBill.ID}

	t.Run("unpaid guest bills", func(t *testing.T) {
		_, err := f.engine.CreatePayout(ctx, spec)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		assert.Equal(t, 0, f.gw.PayoutsCreated())
	})

	t.Run("missing split bill", func(t *testing.T) {
		_, err := f.engine.CreatePayout(ctx, models.CreatePayoutSpec{SplitBillID: 9999})
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	})

	f.payBill(t)

	payout, err := f.engine.CreatePayout(ctx, spec)
	require.NoError(t, err)
	assert.NotZero(t, payout.ID)
	assert.NotEmpty(t, payout.ExternalID)
	// The host's own share is not paid out.
	assert.Equal(t, int64(10000), payout.Amount)
	assert.Equal(t, "ID_BCA", payout.ChannelCode)
	assert.Equal(t, "1234567890", payout.AccountNumber)
	assert.Equal(t, "Host", payout.AccountHolderName)
	assert.Equal(t, models.PayoutStatusAccepted, payout.Status)

	t.Run("second creation is rejected", func(t *testing.T) {
		_, err := f.engine.CreatePayout(ctx, spec)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		assert.True(t, errors.Is(err, storage.ErrConflict))
		assert.Equal(t, 1, f.gw.PayoutsCreated())
	})

	t.Run("GetPayout returns the synced payout", func(t *testing.T) {
		got, err := f.engine.GetPayout(ctx, f.splitBill.ID)
		require.NoError(t, err)
		assert.Equal(t, payout.ID, got.ID)
		assert.Equal(t, payout.ExternalID, got.ExternalID)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Payouts.WithLabelValues("created")))
}

func TestCreatePayoutExplicitAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreatePayout(ctx, models.CreatePayoutSpec{SplitBillID: f.splitBill.ID, Amount: -5})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	payout, err := f.engine.CreatePayout(ctx, models.CreatePayoutSpec{SplitBillID: f.splitBill.ID, Amount: 2500})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), payout.Amount)
}

func TestCreatePayoutGatewayFailureReleasesClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payBill(t)

	f.stub.createPayoutErr = errors.New("gateway unavailable")
	_, err := f.engine.CreatePayout(ctx, models.CreatePayoutSpec{SplitBillID: f.splitBill.ID})
	require.True(t, apperr.Is(err, apperr.KindDependency), "got %v", err)

	got, err := f.engine.GetPayout(ctx, f.splitBill.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	f.stub.createPayoutErr = nil
	payout, err := f.engine.GetOrCreatePayout(ctx, models.CreatePayoutSpec{SplitBillID: f.splitBill.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, payout.ExternalID)
}

func TestGetOrCreatePayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payBill(t)
	spec := models.CreatePayoutSpec{SplitBillID: f.splitBill.ID}

	first, err := f.engine.GetOrCreatePayout(ctx, spec)
	require.NoError(t, err)
	second, err := f.engine.GetOrCreatePayout(ctx, spec)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ExternalID, second.ExternalID)
	assert.Equal(t, 1, f.gw.PayoutsCreated())
}

func TestGetOrCreatePayoutConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payBill(t)
	spec := models.CreatePayoutSpec{SplitBillID: f.splitBill.ID}

	const callers = 8
	var wg sync.WaitGroup
	payouts := make([]*models.Payout, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payouts[i], errs[i] = f.engine.GetOrCreatePayout(ctx, spec)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, payouts[0].ID, payouts[i].ID)
		assert.Equal(t, payouts[0].ReferenceID, payouts[i].ReferenceID)
		assert.NotEmpty(t, payouts[i].ExternalID, "caller %d", i)
	}
	assert.Equal(t, 1, f.gw.PayoutsCreated())
}

func TestGetOrCreatePayoutWaitsForSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payBill(t)
	f.stub.payoutDelay = 200 * time.Millisecond
	spec := models.CreatePayoutSpec{SplitBillID: f.splitBill.ID}

	const callers = 4
	var wg sync.WaitGroup
	payouts := make([]*models.Payout, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payouts[i], errs[i] = f.engine.GetOrCreatePayout(ctx, spec)
		}(i)
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		assert.Equal(t, payouts[0].ID, payouts[i].ID)
		assert.NotEmpty(t, payouts[i].ExternalID, "caller %d", i)
		assert.Equal(t, models.PayoutStatusAccepted, payouts[i].Status, "caller %d", i)
	}
	assert.Equal(t, 1, f.gw.PayoutsCreated())
}

func TestGetOrCreatePayoutResubmitsAbandonedClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payBill(t)

	claim := &models.Payout{
		SplitBillID: f.splitBill.ID,
		ReferenceID: gateway.PayoutReferenceID(f.splitBill.ID),
		Amount:      f.bill.Amount,
		Status:      models.PayoutStatusPendingNew,
		ChannelCode: f.splitBill.WithdrawalMethod,
	}
	require.NoError(t, f.store.CreatePayout(ctx, claim))
	f.clock.Advance(time.Since(f.clock.Now()) + DefaultGatewayTimeout + time.Minute)

	payout, err := f.engine.GetOrCreatePayout(ctx, models.CreatePayoutSpec{SplitBillID: f.splitBill.ID})
	require.NoError(t, err)
	assert.Equal(t, claim.ID, payout.ID)
	assert.NotEmpty(t, payout.ExternalID)
	assert.Equal(t, 1, f.gw.PayoutsCreated())

	stored, err := f.store.GetPayoutBySplitBillID(ctx, f.splitBill.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.ExternalID, stored.ExternalID)
}

func TestGetPayoutAdoptsGatewayPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	remote, err := f.gw.CreatePayout(ctx, models.CreateGatewayPayoutSpec{
		ReferenceID: gateway.PayoutReferenceID(f.splitBill.ID),
		Amount:      10000,
		ChannelCode: "ID_BCA",
	})
	require.NoError(t, err)

	got, err := f.engine.GetPayout(ctx, f.splitBill.ID)
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, remote.ExternalID, got.ExternalID)

	stored, err := f.store.GetPayoutBySplitBillID(ctx, f.splitBill.ID)
	require.NoError(t, err)
	assert.Equal(t, remote.ExternalID, stored.ExternalID)
}
