package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration excludes websocket sessions, which are timed by
	// WebsocketSessionSeconds instead.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WebsocketSessionSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "websocket_session_seconds",
			Help:    "Lifetime of websocket sessions in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 3600, 14400},
		},
		[]string{"route"},
	)

	// LiveRefreshTotal counts refresh controller fetches by outcome.
	LiveRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_refresh_total",
			Help: "Total number of live view refreshes",
		},
		[]string{"result"},
	)

	// LiveViewsActive is the number of open live views.
	LiveViewsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "live_views_active",
		Help: "Number of live views currently open",
	})

	ChangeNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_notifications_total",
			Help: "Total number of table change notifications received",
		},
		[]string{"table"},
	)

	IngestDetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_detections_total",
			Help: "Total number of ingested detections",
		},
		[]string{"source", "result"},
	)

	EmailSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_send_total",
			Help: "Total number of transactional emails sent",
		},
		[]string{"result"},
	)

	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "result"},
	)
)

// Result returns the outcome label for err.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
