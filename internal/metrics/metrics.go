// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Vote consensus
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_votes_total",
			Help: "Votes submitted, by polarity and outcome",
		},
		[]string{"type", "result"}, // result: accepted, duplicate, rejected, error
	)

	MatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trinity_matches_total",
			Help: "Rooms that reached consensus",
		},
	)

	FinalizeNoops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trinity_match_finalize_noop_total",
			Help: "Finalize attempts that found the room already matched",
		},
	)

	ShownMarkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trinity_shown_mark_failures_total",
			Help: "Best-effort shown marking failures (logged and swallowed)",
		},
	)

	TxnConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_txn_conflicts_total",
			Help: "Badger transaction conflicts that triggered a retry",
		},
		[]string{"op"},
	)

	ReconcileRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_reconcile_repairs_total",
			Help: "Repairs applied by the reconciliation pass",
		},
		[]string{"kind"}, // tally, finalize
	)

	// Sequencer
	SequencerResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_sequencer_results_total",
			Help: "nextCandidate outcomes",
		},
		[]string{"result"}, // candidate, matched, exhausted
	)

	// Content supply cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_cache_hits_total",
			Help: "Content supply cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_cache_misses_total",
			Help: "Content supply cache misses",
		},
		[]string{"cache_type"},
	)

	SupplyFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_supply_fallback_total",
			Help: "Candidate requests served from a fallback tier",
		},
		[]string{"tier"}, // filter_cache, default_list
	)

	// Catalog client
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_catalog_requests_total",
			Help: "Upstream catalog HTTP requests by status",
		},
		[]string{"status"},
	)

	CatalogRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trinity_catalog_rate_limited_total",
			Help: "HTTP 429 responses received from the catalog",
		},
	)

	CatalogItemsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trinity_catalog_items_dropped_total",
			Help: "Catalog items discarded for missing required fields",
		},
	)

	CatalogFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trinity_catalog_fetch_duration_seconds",
			Help:    "Duration of a complete catalog fetch (all pages)",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trinity_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_circuit_breaker_requests_total",
			Help: "Calls through the circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trinity_circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures seen by the breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_events_published_total",
			Help: "Observer events published, by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_events_recorded_total",
			Help: "Observer events written to the activity feed",
		},
		[]string{"kind"},
	)

	// Store maintenance
	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_store_gc_runs_total",
			Help: "Badger value log GC runs by outcome",
		},
		[]string{"result"}, // rewritten, noop, error
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trinity_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trinity_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trinity_api_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

// RecordVote counts a vote submission outcome.
func RecordVote(voteType, result string) {
	VotesTotal.WithLabelValues(voteType, result).Inc()
}

// RecordCatalogResponse counts an upstream response by HTTP status code.
// statusCode 0 means the request failed before a response arrived.
func RecordCatalogResponse(statusCode int) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	CatalogRequests.WithLabelValues(status).Inc()
}

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, path, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
