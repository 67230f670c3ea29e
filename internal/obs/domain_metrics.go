package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts submitted orders.
	OrdersCreatedTotal *prometheus.CounterVec
	// OrderStatusChangesTotal counts kanban status transitions by target status.
	OrderStatusChangesTotal *prometheus.CounterVec
	// CouponRedemptionsTotal counts coupon validation and redemption outcomes.
	CouponRedemptionsTotal *prometheus.CounterVec
	// PaymentPreferenceTotal counts checkout preference creation outcomes.
	PaymentPreferenceTotal *prometheus.CounterVec
	// GeocodeLookupsTotal counts address lookups by outcome.
	GeocodeLookupsTotal *prometheus.CounterVec
	// DashboardQueriesTotal counts dashboard computations by source.
	DashboardQueriesTotal *prometheus.CounterVec
	// ReceiptJobsTotal counts background receipt renders.
	ReceiptJobsTotal *prometheus.CounterVec
	// ReceiptRenderLatency records PDF render latency in milliseconds.
	ReceiptRenderLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders submitted through checkout.",
		}, []string{"delivery_method", "payment_method"})
		OrderStatusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Count of order status updates by target status.",
		}, []string{"status"})
		CouponRedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Count of coupon validation and redemption outcomes.",
		}, []string{"stage", "result"})
		PaymentPreferenceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_preference_total",
			Help:      "Count of payment preference creation outcomes.",
		}, []string{"provider", "result"})
		GeocodeLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Count of address geocoding lookups by outcome.",
		}, []string{"result"})
		DashboardQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_queries_total",
			Help:      "Count of dashboard metric computations by source.",
		}, []string{"source"})
		ReceiptJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_jobs_total",
			Help:      "Count of background receipt jobs by outcome.",
		}, []string{"result"})
		ReceiptRenderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_render_duration_ms",
			Help:      "Latency for PDF renders in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"kind"})

		for _, cv := range []**prometheus.CounterVec{
			&OrdersCreatedTotal, &OrderStatusChangesTotal, &CouponRedemptionsTotal,
			&PaymentPreferenceTotal, &GeocodeLookupsTotal, &DashboardQueriesTotal, &ReceiptJobsTotal,
		} {
			target := cv
			mustRegisterCollector(reg, *target, func(existing prometheus.Collector) {
				if v, ok := existing.(*prometheus.CounterVec); ok {
					*target = v
				}
			})
		}
		mustRegisterCollector(reg, ReceiptRenderLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				ReceiptRenderLatency = v
			}
		})
	})
}

// Inc increments vec when domain metrics are registered.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}

// ObserveMillis records a latency sample when the histogram is registered.
func ObserveMillis(vec *prometheus.HistogramVec, ms float64, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Observe(ms)
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
