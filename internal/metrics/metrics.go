// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paytungan"

// Metrics groups every collector on its own registry so tests can create
// isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	PaymentTransitions  *prometheus.CounterVec
	InvoiceReplacements prometheus.Counter
	Payouts             *prometheus.CounterVec

	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Payment gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		PaymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "transitions_total",
			Help:      "Payment status transitions.",
		}, []string{"to"}),
		InvoiceReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "invoice_replacements_total",
			Help:      "Expired invoices replaced with a fresh one.",
		}),
		Payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "created_total",
			Help:      "Payout creation attempts by outcome.",
		}, []string{"outcome"}),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC requests by procedure and code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GatewayCalls,
		m.GatewayDuration,
		m.PaymentTransitions,
		m.InvoiceReplacements,
		m.Payouts,
		m.RPCRequests,
		m.RPCDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// The helpers below are safe to call on a nil *Metrics.

// ObservePaymentTransition counts a payment moving to status to.
func (m *Metrics) ObservePaymentTransition(to string) {
	if m == nil {
		return
	}
	m.PaymentTransitions.WithLabelValues(to).Inc()
}

// ObserveInvoiceReplacement counts an expired invoice being replaced.
func (m *Metrics) ObserveInvoiceReplacement() {
	if m == nil {
		return
	}
	m.InvoiceReplacements.Inc()
}

// ObservePayout counts a payout creation attempt.
func (m *Metrics) ObservePayout(outcome string) {
	if m == nil {
		return
	}
	m.Payouts.WithLabelValues(outcome).Inc()
}
