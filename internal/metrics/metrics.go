package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the sync layer.
type Metrics struct {
	WritesTotal         *prometheus.CounterVec
	SnapshotDeliveries  *prometheus.CounterVec
	StaleDeliveries     prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	TenantSwitches      prometheus.Counter
}

// New registers the metrics with the given registerer. Tests pass a fresh
// registry so contexts can be constructed repeatedly.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restosaas_store_writes_total",
				Help: "Total store write operations",
			},
			[]string{"collection", "op"},
		),
		SnapshotDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restosaas_snapshot_deliveries_total",
				Help: "Snapshot deliveries applied to mirrors",
			},
			[]string{"collection"},
		),
		StaleDeliveries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "restosaas_stale_deliveries_discarded_total",
				Help: "Subscription deliveries discarded after teardown",
			},
		),
		ActiveSubscriptions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "restosaas_active_subscriptions",
				Help: "Currently open store subscriptions",
			},
		),
		TenantSwitches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "restosaas_tenant_switches_total",
				Help: "Tenant context re-targets",
			},
		),
	}
}
