package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Catalog (TMDB) metrics
	CatalogRequestsTotal   *prometheus.CounterVec
	CatalogRequestDuration *prometheus.HistogramVec
	CatalogRetriesTotal    prometheus.Counter

	// Recommendation metrics
	RecommendationsServed   *prometheus.CounterVec
	RecommendationErrors    *prometheus.CounterVec
	RecommendationsDropped  *prometheus.CounterVec
	EngineRequestDuration   *prometheus.HistogramVec
	CircuitBreakerState     *prometheus.GaugeVec
	IngestedPreferences     *prometheus.CounterVec
	EmbeddingPersistFailure prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of requests rejected by the rate limiter",
				},
				[]string{"endpoint", "method"},
			),

			CatalogRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tmdb_requests_total",
					Help: "Total number of TMDB requests by endpoint and outcome",
				},
				[]string{"endpoint", "status"},
			),
			CatalogRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tmdb_request_duration_seconds",
					Help:    "TMDB request latency in seconds, retries included",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint"},
			),
			CatalogRetriesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tmdb_retries_total",
					Help: "Total number of TMDB retries after a connection reset",
				},
			),

			RecommendationsServed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendations_served_total",
					Help: "Total number of recommendation lists served",
				},
				[]string{"algorithm"},
			),
			RecommendationErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendation_errors_total",
					Help: "Total number of failed recommendation requests",
				},
				[]string{"algorithm", "error_type"},
			),
			RecommendationsDropped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendation_items_dropped_total",
					Help: "Recommended ids dropped because their metadata could not be fetched",
				},
				[]string{"algorithm"},
			),
			EngineRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "rec_engine_request_duration_seconds",
					Help:    "Recommendation engine latency in seconds",
					Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"endpoint"},
			),
			CircuitBreakerState: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "circuit_breaker_state",
					Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
				},
				[]string{"name"},
			),
			IngestedPreferences: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ingested_preferences_total",
					Help: "Onboarding preference items by outcome",
				},
				[]string{"outcome"},
			),
			EmbeddingPersistFailure: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "embedding_persist_failures_total",
					Help: "Failed best-effort writes of the collaborative embedding",
				},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
