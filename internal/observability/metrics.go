// Package observability holds the Prometheus metrics exposed at /metrics,
// grounded on order-book-service's internal/observability package.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics the ticketing core exposes.
type Metrics struct {
	// Inventory operations
	InventoryHoldsTotal     *prometheus.CounterVec
	InventoryReleasesTotal  *prometheus.CounterVec
	InventoryCommitsTotal   *prometheus.CounterVec
	InventoryHoldDuration   prometheus.Histogram

	// Order operations
	OrdersCreatedTotal   *prometheus.CounterVec
	OrdersConfirmedTotal prometheus.Counter
	OrdersCancelledTotal *prometheus.CounterVec

	// Outbox and consumer health
	OutboxUnpublishedRows     *prometheus.GaugeVec
	OutboxPublishDuration     *prometheus.HistogramVec
	ConsumerRedeliveriesTotal *prometheus.CounterVec
	ConsumerDeadLetteredTotal *prometheus.CounterVec

	// Expiry sweep
	ExpiredHoldsSweptTotal prometheus.Counter
}

// NewMetrics registers all metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers all metrics with reg, letting tests use
// a throwaway registry instead of the process-global default.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		InventoryHoldsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_holds_total",
				Help: "Total number of hold attempts against the inventory service",
			},
			[]string{"result"}, // success, insufficient, error
		),
		InventoryReleasesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_releases_total",
				Help: "Total number of hold releases",
			},
			[]string{"reason"}, // expired, explicit
		),
		InventoryCommitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_commits_total",
				Help: "Total number of hold commits",
			},
			[]string{"result"},
		),
		InventoryHoldDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inventory_hold_duration_seconds",
				Help:    "Duration of the inventory hold critical section",
				Buckets: prometheus.DefBuckets,
			},
		),
		OrdersCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of orders created",
			},
			[]string{"idempotent_replay"}, // true, false
		),
		OrdersConfirmedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_confirmed_total",
				Help: "Total number of orders confirmed after payment",
			},
		),
		OrdersCancelledTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_cancelled_total",
				Help: "Total number of orders cancelled",
			},
			[]string{"reason"}, // payment_failed, explicit
		),
		OutboxUnpublishedRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "outbox_unpublished_rows",
				Help: "Number of outbox rows not yet published, sampled per poll",
			},
			[]string{"table"},
		),
		OutboxPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outbox_publish_duration_seconds",
				Help:    "Duration of an outbox poll-and-publish batch",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table"},
		),
		ConsumerRedeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumer_redeliveries_total",
				Help: "Total number of messages retried by a consumer after a handler error",
			},
			[]string{"queue"},
		),
		ConsumerDeadLetteredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumer_dead_lettered_total",
				Help: "Total number of messages routed to the dead-letter exchange after exhausting retries",
			},
			[]string{"queue"},
		),
		ExpiredHoldsSweptTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_holds_swept_total",
				Help: "Total number of holds released by the expiry sweep loop",
			},
		),
	}
}
