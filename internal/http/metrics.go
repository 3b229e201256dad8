package http

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-audit-insights/internal/series"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_insights_http_requests_total",
			Help: "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_insights_http_request_duration_seconds",
			Help:    "HTTP request duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audit_insights_http_in_flight_requests",
		Help: "Current in-flight HTTP requests.",
	})
	dbQueries = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_insights_db_query_duration_seconds",
			Help:    "Database query duration by connector and operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector", "operation"},
	)
	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_insights_db_query_errors_total",
			Help: "Database query errors by connector and operation.",
		},
		[]string{"connector", "operation"},
	)
	externalProbes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_insights_external_probe_duration_seconds",
			Help:    "External dependency probe duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target", "operation"},
	)
	externalProbeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_insights_external_probe_errors_total",
			Help: "External dependency probe errors.",
		},
		[]string{"target", "operation"},
	)
	reportRuns = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_insights_report_runs_duration_seconds",
			Help:    "Report generation duration by page and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"page", "status"},
	)
	seriesOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_insights_series_outcomes_total",
			Help: "Dashboard series resolutions by page, series and value source.",
		},
		[]string{"page", "series", "source"},
	)
	seriesLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_insights_series_fetch_duration_seconds",
			Help:    "Dashboard series fetch duration.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"page"},
	)
	ragQueries = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_insights_rag_query_duration_seconds",
			Help:    "Chat question answering duration by result.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"result"},
	)
)

func metricsHandler() nethttp.Handler {
	return promhttp.Handler()
}

func observabilityMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		recordHTTPMetric(r.Method, routePattern(r), ww.Status(), time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded by using the matched chi route.
func routePattern(r *nethttp.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func recordHTTPMetric(method, path string, status int, durationSeconds float64) {
	if status == 0 {
		status = nethttp.StatusOK
	}
	code := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, code).Inc()
	httpDuration.WithLabelValues(method, path, code).Observe(durationSeconds)
}

func recordDBQuery(connector, operation string, durationSeconds float64, err error) {
	dbQueries.WithLabelValues(connector, operation).Observe(durationSeconds)
	if err != nil {
		dbQueryErrors.WithLabelValues(connector, operation).Inc()
	}
}

func recordExternalProbe(target, operation string, durationSeconds float64, err error) {
	externalProbes.WithLabelValues(target, operation).Observe(durationSeconds)
	if err != nil {
		externalProbeErrors.WithLabelValues(target, operation).Inc()
	}
}

func recordReportRun(page, status string, durationSeconds float64) {
	reportRuns.WithLabelValues(page, status).Observe(durationSeconds)
}

func recordRAGQuery(result string, durationSeconds float64) {
	ragQueries.WithLabelValues(result).Observe(durationSeconds)
}

// observeSeries is installed on the dashboard fetcher.
func observeSeries(page, name string, source series.Source, latency time.Duration) {
	seriesOutcomes.WithLabelValues(page, name, string(source)).Inc()
	seriesLatency.WithLabelValues(page).Observe(latency.Seconds())
}
