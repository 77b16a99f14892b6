// Package telemetry exposes Prometheus metrics for the scrape and
// selection pipeline.
package telemetry

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// --- METRIC DEFINITIONS ---

var (
	pagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_pages_fetched_total",
			Help: "Total number of pages fetched, labeled by site and status.",
		},
		[]string{"site", "status"},
	)

	candidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_candidates_total",
			Help: "Total number of candidates extracted, labeled by origin.",
		},
		[]string{"origin"},
	)

	waybackFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oracle_wayback_fallbacks_total",
			Help: "Total number of archive fallbacks triggered by blocked or failing hosts.",
		},
	)

	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_selections_total",
			Help: "Total number of selections performed, labeled by metro and terminal rule.",
		},
		[]string{"metro", "rule"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served, labeled by method and code.",
		},
		[]string{"method", "code"},
	)
)

// --- HTTP HANDLER & MIDDLEWARE ---

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// --- HELPER FUNCTIONS ---

// SanitizeSite extracts the hostname from a URL.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObservePageFetch records one fetched page.
func ObservePageFetch(site string, statusCode int) {
	pagesFetchedTotal.WithLabelValues(SanitizeSite(site), strconv.Itoa(statusCode)).Inc()
}

// ObserveCandidates records extracted candidates by origin ("live" or "wayback").
func ObserveCandidates(origin string, count int) {
	if count > 0 {
		candidatesTotal.WithLabelValues(origin).Add(float64(count))
	}
}

// ObserveWaybackFallback records one archive fallback.
func ObserveWaybackFallback() {
	waybackFallbacksTotal.Inc()
}

// ObserveSelection records one selection outcome by its terminal rule.
func ObserveSelection(metro, rule string) {
	selectionsTotal.WithLabelValues(metro, rule).Inc()
}

// ObserveHTTPRequest records metrics for a served HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
