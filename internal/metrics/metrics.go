// Package metrics exposes the venue's Prometheus instrumentation on a
// dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	OrdersSubmitted   *prometheus.CounterVec
	Executions        *prometheus.CounterVec
	Cancellations     *prometheus.CounterVec
	AuditCycles       prometheus.Counter
	IntegrityFailures prometheus.Counter
	CycleDuration     prometheus.Histogram
	CurrentPrice      *prometheus.GaugeVec
	AvailableLiq      *prometheus.GaugeVec
	PendingOrders     prometheus.Gauge
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Orders submitted, by instrument and admission decision",
		}, []string{"instrument", "decision"}),

		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Orders executed by the audit sweep",
		}, []string{"instrument"}),

		Cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Orders cancelled on expiry",
		}, []string{"instrument"}),

		AuditCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_cycles_total",
			Help:      "Completed audit cycles",
		}),

		IntegrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_failures_total",
			Help:      "Liquidity integrity check failures",
		}),

		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_cycle_duration_seconds",
			Help:      "Wall time of one audit cycle",
			Buckets:   prometheus.DefBuckets,
		}),

		CurrentPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_price",
			Help:      "Simulated market price per instrument",
		}, []string{"instrument"}),

		AvailableLiq: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available_liquidity",
			Help:      "Unreserved capacity per instrument",
		}, []string{"instrument"}),

		PendingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_orders",
			Help:      "Orders currently queued for the sweep",
		}),
	}

	registry.MustRegister(
		m.OrdersSubmitted,
		m.Executions,
		m.Cancellations,
		m.AuditCycles,
		m.IntegrityFailures,
		m.CycleDuration,
		m.CurrentPrice,
		m.AvailableLiq,
		m.PendingOrders,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
