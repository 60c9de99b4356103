package gateway_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/gateway"
	"github.com/paytungan/paytungan/internal/gateway/memory"
	"github.com/paytungan/paytungan/internal/metrics"
	"github.com/paytungan/paytungan/internal/models"
)

func TestPayoutIdentifiers(t *testing.T) {
	assert.Equal(t, "split-bill-12", gateway.PayoutReferenceID(12))
	assert.Equal(t, gateway.PayoutIdempotencyKey(12), gateway.PayoutIdempotencyKey(12))
	assert.NotEqual(t, gateway.PayoutIdempotencyKey(12), gateway.PayoutIdempotencyKey(13))
	assert.NotEqual(t, gateway.InvoiceExternalID(1), gateway.InvoiceExternalID(1))
}

func TestInvoiceBillID(t *testing.T) {
	id, ok := gateway.InvoiceBillID(gateway.InvoiceExternalID(42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, externalID := range []string{"", "bill-", "bill-42", "bill-x-abc", "bill-0-abc", "split-bill-42"} {
		_, ok := gateway.InvoiceBillID(externalID)
		assert.False(t, ok, externalID)
	}
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	m := metrics.New()
	client := gateway.Instrument(memory.New(), m)
	ctx := context.Background()

	_, err := client.CreateInvoice(ctx, models.CreateInvoiceSpec{Amount: 1000})
	require.NoError(t, err)
	_, err = client.CreateInvoice(ctx, models.CreateInvoiceSpec{Amount: 0})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("create_invoice", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("create_invoice", "error")))
}

func TestInstrumentNilMetrics(t *testing.T) {
	g := memory.New()
	assert.Same(t, gateway.Client(g), gateway.Instrument(g, nil))
}
