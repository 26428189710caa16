package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Event metrics
	EventsAccepted *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec
	ApplyDuration  prometheus.Histogram
	ApplyErrors    prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter

	// Ingestion metrics
	RecordsRead    prometheus.Counter
	RecordsSkipped prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPRequestsActive prometheus.Gauge
}

// New creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Event metrics
		EventsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_events_accepted_total",
				Help: "Total number of events applied to the ledger by kind",
			},
			[]string{"kind"},
		),
		EventsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_events_rejected_total",
				Help: "Total number of dropped events by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payments_apply_duration_seconds",
			Help:    "Duration of a single event application",
			Buckets: prometheus.DefBuckets,
		}),
		ApplyErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_apply_errors_total",
			Help: "Total number of fatal store errors while applying events",
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_accounts_locked_total",
			Help: "Total number of accounts locked by a chargeback",
		}),

		// Ingestion metrics
		RecordsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_records_read_total",
			Help: "Total number of input records read",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_records_skipped_total",
			Help: "Total number of input records skipped as unparseable",
		}),

		// Database metrics
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_db_retries_total",
				Help: "Total number of retried database transactions",
			},
			[]string{"code"},
		),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
