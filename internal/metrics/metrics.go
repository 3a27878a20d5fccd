// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Processing Run Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_runs_total",
			Help: "Total number of finished runs by kind and final state",
		},
		[]string{"kind", "state"}, // state: completed, cancelled, failed
	)

	RunsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_runs_rejected_total",
			Help: "Run start attempts rejected because another run was active",
		},
		[]string{"trigger"}, // trigger: api, schedule, webhook
	)

	RunActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_run_active",
			Help: "1 while a run is in progress",
		},
	)

	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_items_total",
			Help: "Items handled by runs, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: success, failed, skipped
	)

	ItemDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_item_duration_seconds",
			Help:    "Time spent on a single item excluding the inter-item delay",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	// Rating Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_provider_requests_total",
			Help: "Requests to external rating providers",
		},
		[]string{"provider", "outcome"}, // outcome: success, not_found, error
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_provider_request_duration_seconds",
			Help:    "Latency of external rating provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	RatingsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_ratings_resolved_total",
			Help: "Per-source rating resolutions by origin",
		},
		[]string{"source", "origin"}, // origin: plex, external, missing
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Plex Metrics
	PlexRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_plex_requests_total",
			Help: "Requests to the Plex Media Server",
		},
		[]string{"operation", "outcome"},
	)

	PlexRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_plex_rate_limited_total",
			Help: "HTTP 429 responses received from Plex",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Backup Metrics
	BackupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_backups_created_total",
			Help: "Original posters backed up before the first overlay",
		},
	)

	BackupsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_backups_deleted_total",
			Help: "Backups removed by maintenance actions",
		},
	)

	// Webhook Metrics
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_webhook_events_total",
			Help: "Plex webhook deliveries by event and disposition",
		},
		[]string{"event", "disposition"}, // disposition: queued, ignored, rejected
	)

	WebhookBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_webhook_batches_total",
			Help: "Debounced webhook batches by outcome",
		},
		[]string{"outcome"}, // outcome: started, deferred, dropped
	)

	WebhookBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marquee_webhook_batch_items",
			Help:    "Number of items in a dispatched webhook batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// Scheduler Metrics
	ScheduledRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_scheduled_runs_total",
			Help: "Cron ticks by outcome",
		},
		[]string{"outcome"}, // outcome: started, skipped, error
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Progress messages dropped because a buffer was full",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordItem records the outcome of one item within a run.
func RecordItem(kind, outcome string, duration time.Duration) {
	ItemsTotal.WithLabelValues(kind, outcome).Inc()
	ItemDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRunFinished records a run's terminal state and clears the active gauge.
func RecordRunFinished(kind, state string) {
	RunsTotal.WithLabelValues(kind, state).Inc()
	RunActive.Set(0)
}

// RecordProviderRequest records one external rating provider call.
func RecordProviderRequest(provider, outcome string, duration time.Duration) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCacheLookup records a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}
