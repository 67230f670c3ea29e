package resilience

import "github.com/prometheus/client_golang/prometheus"

// Collectors for outbound calls, labelled by downstream target
// (nominatim, mercadopago).
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "resto",
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"})
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resto",
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"target", "from", "to"})
	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resto",
		Subsystem: "breaker",
		Name:      "opened_total",
		Help:      "Times a breaker moved into the open state.",
	}, []string{"target"})
	BreakerRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resto",
		Subsystem: "breaker",
		Name:      "rejected_total",
		Help:      "Calls refused without reaching the downstream.",
	}, []string{"target"})
	UpstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resto",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of single outbound attempts by outcome.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"target", "outcome"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal, BreakerRejectedTotal, UpstreamDuration)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case retryable(err):
		return "retryable"
	default:
		return "rejected"
	}
}
