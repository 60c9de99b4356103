package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersCountOnRegistry(t *testing.T) {
	m := New()

	m.ObservePaymentTransition("PAID")
	m.ObservePaymentTransition("PAID")
	m.ObserveInvoiceReplacement()
	m.ObservePayout("created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentTransitions.WithLabelValues("PAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvoiceReplacements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Payouts.WithLabelValues("created")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePaymentTransition("PAID")
		m.ObserveInvoiceReplacement()
		m.ObservePayout("failed")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveInvoiceReplacement()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "paytungan_payment_invoice_replacements_total 1"))
}
