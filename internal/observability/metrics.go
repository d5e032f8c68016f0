package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce              sync.Once
	httpRequestsTotal         *prometheus.CounterVec
	httpLatencySeconds        *prometheus.HistogramVec
	httpErrorsTotal           *prometheus.CounterVec
	votesTotal                *prometheus.CounterVec
	notificationsPublished    *prometheus.CounterVec
	realtimeConnectionsActive prometheus.Gauge
	realtimePushTotal         *prometheus.CounterVec
	uploadsTotal              *prometheus.CounterVec
	rateLimitedTotal          *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the forum API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		votesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_votes_total",
			Help: "Votes applied to the ledger by target type and direction.",
		}, []string{"target", "direction"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_notifications_published_total",
			Help: "Notifications persisted and fanned out, by type.",
		}, []string{"type"})

		realtimeConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forum_realtime_connections_active",
			Help: "Open websocket and SSE connections on this instance.",
		})

		realtimePushTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_realtime_push_total",
			Help: "Realtime push attempts by result.",
		}, []string{"result"})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_uploads_total",
			Help: "Avatar uploads by result.",
		}, []string{"result"})

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_rate_limited_total",
			Help: "Requests rejected by a rate limiter, by limiter name.",
		}, []string{"limiter"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			votesTotal,
			notificationsPublished,
			realtimeConnectionsActive,
			realtimePushTotal,
			uploadsTotal,
			rateLimitedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// VotesTotal exposes the vote counter.
func VotesTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return votesTotal
}

// NotificationsPublishedTotal exposes the notification counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// RealtimeConnectionsActive exposes the open connection gauge.
func RealtimeConnectionsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeConnectionsActive
}

// RealtimePushTotal exposes the push result counter.
func RealtimePushTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimePushTotal
}

// UploadsTotal exposes the upload result counter.
func UploadsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// RateLimitedTotal exposes the limiter rejection counter.
func RateLimitedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return rateLimitedTotal
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
