package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MarkersActive is the number of markers whose deadline has not passed,
	// refreshed by the scheduler.
	MarkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "markers_active",
			Help: "Number of markers with a deadline of today or later",
		},
	)

	// MarkerChanges counts successful marker writes by action (create, update, delete).
	MarkerChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marker_changes_total",
			Help: "Total number of marker creates, updates and deletes",
		},
		[]string{"action"},
	)

	// CommentsCreated counts comments added to markers.
	CommentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comments_created_total",
			Help: "Total number of comments created",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, MarkersActive, MarkerChanges, CommentsCreated)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /announcement/123 -> /announcement/{id}, /api/markers/45 -> /api/markers/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// SetMarkersActive sets the active markers gauge.
func SetMarkersActive(n int) {
	MarkersActive.Set(float64(n))
}

// IncMarkerChanges increments the marker write counter for action (create, update, delete).
func IncMarkerChanges(action string) {
	MarkerChanges.WithLabelValues(action).Inc()
}

// IncCommentsCreated increments the comment counter.
func IncCommentsCreated() {
	CommentsCreated.Inc()
}
