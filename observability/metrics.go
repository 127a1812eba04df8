package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the aggregation
// engine.
type Metrics struct {
	AlertsIngested prometheus.Counter
	AlertsDropped  *prometheus.CounterVec // labels: reason={validation,geocode,store}

	SweepsTotal   prometheus.Counter
	AlertsSwept   prometheus.Counter
	SweepDuration prometheus.Histogram

	Purges *prometheus.CounterVec // labels: target={bucket,alert}, outcome={success,not_found,error}

	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stormwatch",
			Name:      "alerts_ingested_total",
			Help:      "Alerts accepted into an aggregation bucket.",
		}),
		AlertsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stormwatch",
			Name:      "alerts_dropped_total",
			Help:      "Alerts dropped before aggregation, by reason.",
		}, []string{"reason"}),
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stormwatch",
			Name:      "sweeps_total",
			Help:      "Completed retention sweeps.",
		}),
		AlertsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stormwatch",
			Name:      "alerts_swept_total",
			Help:      "Alerts evicted by the retention sweeper.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stormwatch",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full retention sweep.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Purges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stormwatch",
			Name:      "purges_total",
			Help:      "Manual purge calls by target and outcome.",
		}, []string{"target", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stormwatch",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding lookups by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertsIngested,
		m.AlertsDropped,
		m.SweepsTotal,
		m.AlertsSwept,
		m.SweepDuration,
		m.Purges,
		m.GeocodeRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry,
// avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
