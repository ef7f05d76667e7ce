package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments for the forecasting engine.
type Metrics struct {
	ProjectionsTotal    prometheus.Counter
	ProjectionErrors    prometheus.Counter
	AuditsTotal         prometheus.Counter
	ProfileRebuilds     prometheus.Counter
	SignaturesExtracted prometheus.Counter
	GoalsTranslated     prometheus.Counter

	RequestsByRoute *prometheus.CounterVec

	ProjectionLatencyMs prometheus.Histogram
	AuditLatencyMs      prometheus.Histogram
}

// New creates and registers all metrics on the default registry. Call
// once per process.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all metrics on the given registerer
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProjectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "godna_projections_total",
			Help: "Total number of year projections computed",
		}),
		ProjectionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "godna_projection_errors",
			Help: "Number of projection requests that failed calibration or validation",
		}),
		AuditsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "godna_audits_total",
			Help: "Total number of event attribution audits run",
		}),
		ProfileRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "godna_profile_rebuilds",
			Help: "Number of times the seasonal profile store was rebuilt from history",
		}),
		SignaturesExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "godna_signatures_extracted",
			Help: "Number of shock signatures extracted from historical windows",
		}),
		GoalsTranslated: factory.NewCounter(prometheus.CounterOpts{
			Name: "godna_goals_translated",
			Help: "Number of goal translation requests served",
		}),

		RequestsByRoute: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "godna_http_requests_by_route",
				Help: "HTTP requests served per route and status class",
			},
			[]string{"route", "status"},
		),

		ProjectionLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "godna_projection_latency_ms",
			Help:    "Latency of a single year projection in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
		AuditLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "godna_audit_latency_ms",
			Help:    "Latency of a full attribution audit in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}
